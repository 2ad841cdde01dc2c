// -- cmd/upload.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
	"github.com/xkilldash9x/tubepilot/pkg/studio"
)

func newUploadCmd(app *appContext) *cobra.Command {
	var jobsFile string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Publishes every upload listed in the batch file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := loadBatch(jobsFile)
			if err != nil {
				return err
			}
			if len(batch.Uploads) == 0 {
				return fmt.Errorf("batch file has no uploads")
			}
			opts, cleanup, err := app.options(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			for i := range batch.Uploads {
				path := batch.Uploads[i].Path
				batch.Uploads[i].OnProgress = func(p schemas.Progress) {
					fmt.Fprintf(out, "%s: %s %d%%\n", path, p.Stage, p.Percentage)
				}
			}

			links, err := studio.Upload(cmd.Context(), app.credentials(batch.Account), batch.Uploads, opts...)
			if err != nil {
				return err
			}
			for i, link := range links {
				fmt.Fprintf(out, "%s\t%s\n", batch.Uploads[i].Path, link)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&jobsFile, "jobs", "j", "", "YAML batch file")
	return cmd
}
