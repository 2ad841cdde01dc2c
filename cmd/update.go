// -- cmd/update.go --
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/tubepilot/pkg/studio"
)

func newUpdateCmd(app *appContext) *cobra.Command {
	var jobsFile string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edits the metadata of every video listed in the batch file",
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

			results, err := studio.Update(cmd.Context(), app.credentials(batch.Account), batch.Edits, opts...)
			if err != nil {
				return err
			}
			return printResults(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVarP(&jobsFile, "jobs", "j", "", "YAML batch file")
	return cmd
}
