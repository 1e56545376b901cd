package cmd

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <backup-id>",
	Short: "Delete a stored backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.service.DeleteBackup(ctx, args[0]); err != nil {
			return err
		}

		app.printer.Success("Backup %s deleted", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
