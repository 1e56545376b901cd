package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	apperrors "snapvault/internal/errors"
)

// ErrObjectNotFound is returned by Read/Delete/Stat when the named object
// does not exist. Callers map it to their own not-found error so a missing
// archive is never reported as a generic I/O failure.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes one stored object
type ObjectInfo struct {
	Name      string
	Size      int64
	UpdatedAt time.Time
}

// Store is the directory-like blob store the archive layer persists to:
// read/write/list/delete by opaque name. Implementations exist for the
// local file system, Amazon S3, Google Cloud Storage, and Azure Blob
// Storage.
type Store interface {
	Write(ctx context.Context, name string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]ObjectInfo, error)
	Delete(ctx context.Context, name string) error
	Stat(ctx context.Context, name string) (ObjectInfo, error)
}

// ProviderType selects a blob store implementation
type ProviderType string

const (
	// ProviderLocal stores objects on the local file system
	ProviderLocal ProviderType = "local"
	// ProviderS3 stores objects in Amazon S3
	ProviderS3 ProviderType = "s3"
	// ProviderAzure stores objects in Azure Blob Storage
	ProviderAzure ProviderType = "azure"
	// ProviderGCS stores objects in Google Cloud Storage
	ProviderGCS ProviderType = "gcs"
)

// Config defines blob store provider configuration
type Config struct {
	Provider ProviderType `yaml:"provider" mapstructure:"provider"`
	Local    *LocalConfig `yaml:"local,omitempty" mapstructure:"local"`
	S3       *S3Config    `yaml:"s3,omitempty" mapstructure:"s3"`
	Azure    *AzureConfig `yaml:"azure,omitempty" mapstructure:"azure"`
	GCS      *GCSConfig   `yaml:"gcs,omitempty" mapstructure:"gcs"`
}

// LocalConfig for local file system storage
type LocalConfig struct {
	BasePath    string      `yaml:"base_path" mapstructure:"base_path"`
	Permissions os.FileMode `yaml:"permissions" mapstructure:"permissions"`
}

// S3Config for Amazon S3 storage
type S3Config struct {
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
}

// AzureConfig for Azure Blob Storage
type AzureConfig struct {
	AccountName   string `yaml:"account_name" mapstructure:"account_name"`
	AccountKey    string `yaml:"account_key" mapstructure:"account_key"`
	ContainerName string `yaml:"container_name" mapstructure:"container_name"`
	Prefix        string `yaml:"prefix" mapstructure:"prefix"`
}

// GCSConfig for Google Cloud Storage
type GCSConfig struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	CredentialsPath string `yaml:"credentials_path" mapstructure:"credentials_path"`
	Prefix          string `yaml:"prefix" mapstructure:"prefix"`
}

// Validate validates the blob store configuration
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.Local == nil || c.Local.BasePath == "" {
			return apperrors.NewValidationError("base path is required for local storage", nil)
		}
	case ProviderS3:
		if c.S3 == nil {
			return apperrors.NewValidationError("S3 storage configuration is required", nil)
		}
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return apperrors.NewValidationError("S3 bucket and region are required", nil)
		}
	case ProviderAzure:
		if c.Azure == nil {
			return apperrors.NewValidationError("Azure storage configuration is required", nil)
		}
		if c.Azure.AccountName == "" || c.Azure.AccountKey == "" || c.Azure.ContainerName == "" {
			return apperrors.NewValidationError("Azure account name, key and container are required", nil)
		}
	case ProviderGCS:
		if c.GCS == nil || c.GCS.Bucket == "" {
			return apperrors.NewValidationError("GCS bucket is required", nil)
		}
	default:
		return apperrors.NewValidationError(
			fmt.Sprintf("unsupported storage provider: %s", c.Provider), nil)
	}
	return nil
}

// New creates a blob store from configuration
func New(ctx context.Context, config Config) (Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderLocal:
		return NewLocalStore(config.Local)
	case ProviderS3:
		return NewS3Store(config.S3)
	case ProviderAzure:
		return NewAzureStore(config.Azure)
	case ProviderGCS:
		return NewGCSStore(ctx, config.GCS)
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported storage provider: %s", config.Provider), nil)
	}
}
