// -- cmd/comment.go --
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
	"github.com/xkilldash9x/tubepilot/pkg/studio"
)

func newCommentCmd(app *appContext) *cobra.Command {
	var jobsFile string
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Posts every comment listed in the batch file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := loadBatch(jobsFile)
			if err != nil {
				return err
			}
			opts, cleanup, err := app.options(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := studio.Comment(cmd.Context(), app.credentials(batch.Account), batch.Comments, opts...)
			if err != nil {
				return err
			}
			return printResults(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&jobsFile, "jobs", "j", "", "YAML batch file")
	return cmd
}

// errSomeFailed makes the exit status non-zero when a tolerant batch had failures.
var errSomeFailed = fmt.Errorf("one or more jobs failed")

// printResults writes one tab separated line per result.
func printResults(w io.Writer, results []schemas.Result) error {
	failed := false
	for _, r := range results {
		if r.OK() {
			fmt.Fprintf(w, "ok\t%s\t%s\n", r.Target, r.Value)
			continue
		}
		failed = true
		fmt.Fprintf(w, "error\t%s\t%v\n", r.Target, r.Err)
	}
	if failed {
		return errSomeFailed
	}
	return nil
}
