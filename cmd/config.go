package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"snapvault/internal/config"
	"snapvault/internal/display"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented sample configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "snapvault.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		if err := config.WriteSample(path); err != nil {
			return err
		}

		printer := display.NewPrinter(os.Stdout)
		printer.Success("Wrote sample configuration to %s", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = "snapvault.yaml"
		}

		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		// Secrets stay out of the dump.
		cfg.Database.Password = ""
		cfg.Encryption.Passphrase = ""
		if cfg.Storage.S3 != nil {
			cfg.Storage.S3.SecretKey = ""
		}
		if cfg.Storage.Azure != nil {
			cfg.Storage.Azure.AccountKey = ""
		}

		encoded, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(encoded))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
