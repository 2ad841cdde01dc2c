// File: internal/runner/validate.go
package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// forbiddenTitleChars are rejected by the console's title field.
const forbiddenTitleChars = "<>"

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkStruct runs the struct tags of v and turns the first failure into a
// ValidationError mentioning what.
func checkStruct(what string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		return schemas.ValidationError("runner.validate", fmt.Sprintf("%s: field %s failed the %q rule", what, fe.Field(), fe.Tag()))
	}
	return schemas.ValidationError("runner.validate", fmt.Sprintf("%s: %v", what, err))
}

func checkTitle(what, title string) error {
	if strings.ContainsAny(title, forbiddenTitleChars) {
		return schemas.ValidationError("runner.validate", fmt.Sprintf("%s: title %q contains one of the forbidden characters %q", what, title, forbiddenTitleChars))
	}
	return nil
}

func validateCredentials(creds schemas.Credentials) error {
	return checkStruct("credentials", creds)
}

func validateUpload(i int, job schemas.UploadJob) error {
	what := fmt.Sprintf("upload job %d", i)
	if err := checkStruct(what, job); err != nil {
		return err
	}
	return checkTitle(what, job.Title)
}

func validateEdit(i int, job schemas.EditJob) error {
	what := fmt.Sprintf("edit job %d", i)
	if err := checkStruct(what, job); err != nil {
		return err
	}
	return checkTitle(what, job.Title)
}

func validateComment(i int, job schemas.CommentJob) error {
	return checkStruct(fmt.Sprintf("comment job %d", i), job)
}
