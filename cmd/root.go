package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"snapvault/internal/archive"
	"snapvault/internal/blobstore"
	"snapvault/internal/collector"
	"snapvault/internal/config"
	"snapvault/internal/datasource"
	"snapvault/internal/display"
	apperrors "snapvault/internal/errors"
	"snapvault/internal/logging"
	"snapvault/internal/ratelimit"
	"snapvault/internal/sanitize"
	"snapvault/internal/schema"
	"snapvault/internal/service"
	"snapvault/internal/sqldump"
	"snapvault/internal/store"
)

var (
	cfgFile      string
	operatorFlag string
	verbose      bool
	quiet        bool
)

// rootCmd is the base command when snapvault is called without subcommands
var rootCmd = &cobra.Command{
	Use:   "snapvault",
	Short: "Backup and export tool for the Cardbase database",
	Long: `snapvault snapshots every table of a Cardbase installation into a
versioned archive, stores it locally or in cloud object storage, and turns
stored archives back into importable SQL scripts.

Examples:
  # Create a backup
  snapvault create --name "nightly" --description "pre-release snapshot"

  # List stored backups
  snapvault list

  # Export a backup as a complete SQL script
  snapvault export bk-20260901-120000-1a2b3c4d --type complete -o dump.sql

  # Delete a backup
  snapvault delete bk-20260901-120000-1a2b3c4d`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./snapvault.yaml)")
	rootCmd.PersistentFlags().StringVar(&operatorFlag, "operator", "", "operator identifier recorded in backup metadata")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
}

// app bundles the wired subsystem for one command invocation
type app struct {
	config  *config.Config
	logger  *logging.Logger
	printer *display.Printer
	service *service.BackupService

	db *sql.DB
}

// newApp loads configuration and wires the backup subsystem. The database
// connection is only opened when the command needs to read live data.
func newApp(ctx context.Context, needDatabase bool) (*app, error) {
	path := cfgFile
	if path == "" {
		path = "snapvault.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	loggerConfig := cfg.LoggerConfig()
	if verbose {
		loggerConfig.Level = logging.LogLevelVerbose
	}
	if quiet {
		loggerConfig.Level = logging.LogLevelQuiet
	}
	logger, err := logging.NewLogger(loggerConfig)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to initialize logging", err)
	}

	registry := schema.Default()

	blobs, err := blobstore.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	archives, err := store.New(blobs, cfg.StoreOptions(), logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:  cfg,
		logger:  logger,
		printer: display.NewPrinter(os.Stdout),
	}

	var snapshots service.SnapshotCollector
	if needDatabase {
		db, err := datasource.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db

		source := datasource.NewMySQLSource(db, registry)
		snapshots = collector.NewCollector(registry, source, sanitize.NewSanitizer(nil), logger)
	}

	a.service = service.New(
		snapshots,
		archive.NewValidator(registry),
		archives,
		sqldump.NewDumper(registry),
		ratelimit.NewLimiter(cfg.Cooldowns(), nil),
		logger,
		service.Options{
			SanitizeSnapshots: cfg.Sanitize.Snapshots,
			BatchSize:         cfg.Limits.BatchSize,
		},
	)
	return a, nil
}

// Close releases the app's resources
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

// operator resolves the operator identity: flag first, then the OS user
func operator() string {
	if operatorFlag != "" {
		return operatorFlag
	}
	if current, err := user.Current(); err == nil && current.Username != "" {
		return current.Username
	}
	return "unknown"
}
