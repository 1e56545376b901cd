package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"snapvault/internal/display"
	"snapvault/internal/sqldump"
)

var (
	exportType   string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <backup-id>",
	Short: "Export a stored backup as an SQL script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer app.Close()

		export, err := app.service.ExportSQL(ctx, operator(), args[0], sqldump.ExportType(exportType))
		if err != nil {
			return err
		}

		if exportOutput == "-" {
			_, err := os.Stdout.Write(export.SQL)
			return err
		}

		path := exportOutput
		if path == "" {
			path = export.Filename
		}
		if err := os.WriteFile(path, export.SQL, 0o644); err != nil {
			return err
		}

		app.printer.Success("Exported %s to %s (%s)", args[0], path, display.FormatBytes(int64(len(export.SQL))))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportType, "type", "complete", "export type (complete, structure, data)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default is the suggested filename, - for stdout)")
	rootCmd.AddCommand(exportCmd)
}
