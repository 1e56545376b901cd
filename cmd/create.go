package cmd

import (
	"github.com/spf13/cobra"

	"snapvault/internal/display"
)

var (
	createName        string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup of every registered table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := app.service.CreateBackup(ctx, operator(), createName, createDescription)
		if err != nil {
			return err
		}

		app.printer.Success("Backup %s created", result.ID)
		app.printer.Info("  Name:    %s", result.Name)
		if result.Description != "" {
			app.printer.Info("  Notes:   %s", result.Description)
		}
		app.printer.Info("  Size:    %s", display.FormatBytes(result.SizeBytes))
		app.printer.Info("  Tables:  %d", result.TableCount)
		app.printer.Info("  Records: %d", result.TotalRecords)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "backup name (required)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "optional backup description")
	createCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(createCmd)
}
