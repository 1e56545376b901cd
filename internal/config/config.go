package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"snapvault/internal/blobstore"
	"snapvault/internal/datasource"
	apperrors "snapvault/internal/errors"
	"snapvault/internal/logging"
	"snapvault/internal/ratelimit"
	"snapvault/internal/store"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// SNAPVAULT_DATABASE_PASSWORD overrides database.password.
const EnvPrefix = "SNAPVAULT"

// Config is the full application configuration
type Config struct {
	Storage     blobstore.Config       `yaml:"storage" mapstructure:"storage"`
	Database    datasource.Config      `yaml:"database" mapstructure:"database"`
	Limits      LimitsConfig           `yaml:"limits" mapstructure:"limits"`
	Compression CompressionConfig      `yaml:"compression" mapstructure:"compression"`
	Encryption  store.EncryptionConfig `yaml:"encryption" mapstructure:"encryption"`
	Logging     LoggingConfig          `yaml:"logging" mapstructure:"logging"`
	Sanitize    SanitizeConfig         `yaml:"sanitize" mapstructure:"sanitize"`
}

// LimitsConfig holds size ceilings, cooldowns and batching limits
type LimitsConfig struct {
	// MaxArchiveBytes caps the serialized archive size. Zero selects the
	// built-in 500 MiB default; negative disables the ceiling.
	MaxArchiveBytes int64 `yaml:"max_archive_bytes" mapstructure:"max_archive_bytes"`
	// CreateCooldown is the per-operator wait between backup creations
	CreateCooldown time.Duration `yaml:"create_cooldown" mapstructure:"create_cooldown"`
	// DownloadCooldown is the per-operator wait between SQL exports
	DownloadCooldown time.Duration `yaml:"download_cooldown" mapstructure:"download_cooldown"`
	// BatchSize is the number of rows per generated INSERT statement
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// CompressionConfig selects the at-rest archive compression
type CompressionConfig struct {
	Algorithm store.Codec `yaml:"algorithm" mapstructure:"algorithm"`
	Level     int         `yaml:"level" mapstructure:"level"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  logging.LogLevel `yaml:"level" mapstructure:"level"`
	Format string           `yaml:"format" mapstructure:"format"`
	File   string           `yaml:"file" mapstructure:"file"`
}

// SanitizeConfig controls credential redaction during collection
type SanitizeConfig struct {
	// Snapshots redacts sensitive fields before archiving. Off by default:
	// an un-sanitized backup restores operator credentials intact.
	Snapshots bool `yaml:"snapshots" mapstructure:"snapshots"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Storage: blobstore.Config{
			Provider: blobstore.ProviderLocal,
			Local: &blobstore.LocalConfig{
				BasePath:    "./backups",
				Permissions: 0o755,
			},
		},
		Database: datasource.Config{
			Host:     "localhost",
			Port:     3306,
			Username: "cardbase",
			Database: "cardbase",
		},
		Limits: LimitsConfig{
			CreateCooldown:   30 * time.Second,
			DownloadCooldown: 10 * time.Second,
			BatchSize:        1000,
		},
		Compression: CompressionConfig{
			Algorithm: store.CodecNone,
		},
		Logging: LoggingConfig{
			Level:  logging.LogLevelNormal,
			Format: "text",
		},
	}
}

// Load reads configuration from the given YAML file, applying environment
// variable overrides with the SNAPVAULT_ prefix. A missing file is not an
// error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
				return nil, apperrors.NewValidationError(
					fmt.Sprintf("failed to read config file %s", path), err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, apperrors.NewValidationError("failed to parse configuration", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("storage.provider", string(defaults.Storage.Provider))
	v.SetDefault("storage.local.base_path", defaults.Storage.Local.BasePath)
	v.SetDefault("storage.local.permissions", int(defaults.Storage.Local.Permissions))
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.username", defaults.Database.Username)
	v.SetDefault("database.database", defaults.Database.Database)
	v.SetDefault("limits.create_cooldown", defaults.Limits.CreateCooldown)
	v.SetDefault("limits.download_cooldown", defaults.Limits.DownloadCooldown)
	v.SetDefault("limits.batch_size", defaults.Limits.BatchSize)
	v.SetDefault("compression.algorithm", string(defaults.Compression.Algorithm))
	v.SetDefault("logging.level", string(defaults.Logging.Level))
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("sanitize.snapshots", false)
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if c.Compression.Algorithm != "" && !c.Compression.Algorithm.Valid() {
		return apperrors.NewValidationError(
			fmt.Sprintf("unsupported compression algorithm: %s", c.Compression.Algorithm), nil)
	}

	if c.Limits.BatchSize < 0 {
		return apperrors.NewValidationError("limits.batch_size cannot be negative", nil)
	}
	if c.Limits.CreateCooldown < 0 || c.Limits.DownloadCooldown < 0 {
		return apperrors.NewValidationError("cooldowns cannot be negative", nil)
	}

	if c.Encryption.Enabled &&
		c.Encryption.Passphrase == "" && c.Encryption.KeyFile == "" && c.Encryption.KeyEnvVar == "" {
		return apperrors.NewValidationError(
			"encryption is enabled but no passphrase, key file or key env var is configured", nil)
	}

	return nil
}

// StoreOptions maps the configuration to archive store options
func (c *Config) StoreOptions() store.Options {
	encryption := c.Encryption
	return store.Options{
		MaxArchiveBytes:  c.Limits.MaxArchiveBytes,
		Compression:      c.Compression.Algorithm,
		CompressionLevel: c.Compression.Level,
		Encryption:       &encryption,
	}
}

// Cooldowns maps the configured limits to rate limiter cooldowns
func (c *Config) Cooldowns() map[ratelimit.Operation]time.Duration {
	cooldowns := ratelimit.DefaultCooldowns()
	if c.Limits.CreateCooldown > 0 {
		cooldowns[ratelimit.OpCreateBackup] = c.Limits.CreateCooldown
	}
	if c.Limits.DownloadCooldown > 0 {
		cooldowns[ratelimit.OpDownload] = c.Limits.DownloadCooldown
	}
	return cooldowns
}

// LoggerConfig maps the configuration to logger settings
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:   c.Logging.Level,
		Format:  c.Logging.Format,
		LogFile: c.Logging.File,
	}
}

// sampleConfig is written by WriteSample as a starting point for operators
const sampleConfig = `# snapvault configuration
# Every value can be overridden with a SNAPVAULT_ environment variable,
# e.g. SNAPVAULT_DATABASE_PASSWORD overrides database.password.

# Archive storage
storage:
  # Storage provider: local, s3, azure, gcs
  provider: local

  local:
    base_path: "./backups"
    permissions: 0755

  # s3:
  #   bucket: "my-backup-bucket"
  #   region: "us-east-1"
  #   access_key: ""
  #   secret_key: ""

  # azure:
  #   account_name: ""
  #   account_key: ""
  #   container_name: "backups"

  # gcs:
  #   bucket: "my-backup-bucket"
  #   credentials_path: "/path/to/credentials.json"

# Application database to snapshot
database:
  host: localhost
  port: 3306
  username: cardbase
  password: ""
  database: cardbase

# Operational limits
limits:
  # Serialized archive size ceiling in bytes (0 = 500 MiB default)
  max_archive_bytes: 0
  # Per-operator cooldown between backup creations
  create_cooldown: 30s
  # Per-operator cooldown between SQL exports
  download_cooldown: 10s
  # Rows per INSERT statement in generated SQL
  batch_size: 1000

# Archive compression at rest: none, gzip, lz4, zstd
compression:
  algorithm: none
  level: 0

# Archive encryption at rest (AES-256-GCM)
encryption:
  enabled: false
  passphrase: ""
  # key_file: "/path/to/key"
  # key_env_var: SNAPVAULT_ENCRYPTION_KEY

# Logging
logging:
  # quiet, normal, verbose, debug
  level: normal
  # text or json
  format: text
  # file: "/var/log/snapvault.log"

# Redact credential fields from snapshots before archiving
sanitize:
  snapshots: false
`

// WriteSample writes a commented sample configuration file. Refuses to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return apperrors.NewValidationError(
			fmt.Sprintf("config file %s already exists", path), nil)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewStorageError("failed to create config directory", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return apperrors.NewStorageError("failed to write config file", err)
	}
	return nil
}
