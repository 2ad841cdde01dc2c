// -- cmd/batch.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// batchFile is the YAML document the subcommands read with --jobs.
//
//	account:
//	  email: creator@example.com
//	uploads:
//	  - path: ./clip.mp4
//	    title: My clip
//	    visibility: unlisted
type batchFile struct {
	Account  schemas.Credentials  `yaml:"account"`
	Uploads  []schemas.UploadJob  `yaml:"uploads"`
	Edits    []schemas.EditJob    `yaml:"edits"`
	Comments []schemas.CommentJob `yaml:"comments"`
}

func loadBatch(path string) (*batchFile, error) {
	if path == "" {
		return nil, fmt.Errorf("--jobs is required")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var b batchFile
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", expanded, err)
	}
	return &b, nil
}
