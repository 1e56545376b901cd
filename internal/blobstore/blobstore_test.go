package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid local",
			config: Config{Provider: ProviderLocal, Local: &LocalConfig{BasePath: "/tmp/backups"}},
		},
		{
			name:    "local without base path",
			config:  Config{Provider: ProviderLocal, Local: &LocalConfig{}},
			wantErr: true,
		},
		{
			name:   "valid s3",
			config: Config{Provider: ProviderS3, S3: &S3Config{Bucket: "b", Region: "us-east-1"}},
		},
		{
			name:    "s3 without region",
			config:  Config{Provider: ProviderS3, S3: &S3Config{Bucket: "b"}},
			wantErr: true,
		},
		{
			name:   "valid azure",
			config: Config{Provider: ProviderAzure, Azure: &AzureConfig{AccountName: "a", AccountKey: "k", ContainerName: "c"}},
		},
		{
			name:    "azure without key",
			config:  Config{Provider: ProviderAzure, Azure: &AzureConfig{AccountName: "a", ContainerName: "c"}},
			wantErr: true,
		},
		{
			name:   "valid gcs",
			config: Config{Provider: ProviderGCS, GCS: &GCSConfig{Bucket: "b"}},
		},
		{
			name:    "gcs without bucket",
			config:  Config{Provider: ProviderGCS, GCS: &GCSConfig{}},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			config:  Config{Provider: ProviderType("ftp")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
