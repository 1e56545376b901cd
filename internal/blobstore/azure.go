package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-storage-blob-go/azblob"

	apperrors "snapvault/internal/errors"
)

// AzureStore implements Store for Azure Blob Storage
type AzureStore struct {
	containerURL azblob.ContainerURL
	prefix       string
}

// NewAzureStore creates a new Azure-backed blob store using shared key
// credentials
func NewAzureStore(config *AzureConfig) (*AzureStore, error) {
	if config == nil {
		return nil, apperrors.NewValidationError("Azure storage configuration is required", nil)
	}

	credential, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create Azure credentials", err)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", config.AccountName))
	if err != nil {
		return nil, apperrors.NewStorageError("failed to parse Azure service URL", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "backups/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &AzureStore{
		containerURL: azblob.NewServiceURL(*serviceURL, pipeline).NewContainerURL(config.ContainerName),
		prefix:       prefix,
	}, nil
}

// Write uploads an object as a block blob
func (a *AzureStore) Write(ctx context.Context, name string, data []byte) error {
	blobURL := a.containerURL.NewBlockBlobURL(a.prefix + name)

	_, err := azblob.UploadBufferToBlockBlob(ctx, data, blobURL, azblob.UploadToBlockBlobOptions{
		BlockSize:   4 * 1024 * 1024,
		Parallelism: 16,
		BlobHTTPHeaders: azblob.BlobHTTPHeaders{
			ContentType: "application/json",
		},
	})
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to upload object %s to Azure", name), err)
	}
	return nil
}

// Read downloads an object by name
func (a *AzureStore) Read(ctx context.Context, name string) ([]byte, error) {
	blobURL := a.containerURL.NewBlockBlobURL(a.prefix + name)

	response, err := blobURL.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		if isAzureNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to download object %s from Azure", name), err)
	}

	body := response.Body(azblob.RetryReaderOptions{MaxRetryRequests: 3})
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read object body", err)
	}
	return data, nil
}

// List returns every object under the store prefix
func (a *AzureStore) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	for marker := (azblob.Marker{}); marker.NotDone(); {
		response, err := a.containerURL.ListBlobsFlatSegment(ctx, marker, azblob.ListBlobsSegmentOptions{
			Prefix: a.prefix,
		})
		if err != nil {
			return nil, apperrors.NewStorageError("failed to list objects in Azure", err)
		}
		marker = response.NextMarker

		for _, blob := range response.Segment.BlobItems {
			var size int64
			if blob.Properties.ContentLength != nil {
				size = *blob.Properties.ContentLength
			}
			objects = append(objects, ObjectInfo{
				Name:      strings.TrimPrefix(blob.Name, a.prefix),
				Size:      size,
				UpdatedAt: blob.Properties.LastModified,
			})
		}
	}

	return objects, nil
}

// Delete removes an object by name
func (a *AzureStore) Delete(ctx context.Context, name string) error {
	blobURL := a.containerURL.NewBlockBlobURL(a.prefix + name)

	_, err := blobURL.Delete(ctx, azblob.DeleteSnapshotsOptionInclude, azblob.BlobAccessConditions{})
	if err != nil {
		if isAzureNotFound(err) {
			return ErrObjectNotFound
		}
		return apperrors.NewStorageError(fmt.Sprintf("failed to delete object %s from Azure", name), err)
	}
	return nil
}

// Stat returns size information for an object
func (a *AzureStore) Stat(ctx context.Context, name string) (ObjectInfo, error) {
	blobURL := a.containerURL.NewBlockBlobURL(a.prefix + name)

	properties, err := blobURL.GetProperties(ctx, azblob.BlobAccessConditions{}, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		if isAzureNotFound(err) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, apperrors.NewStorageError(fmt.Sprintf("failed to stat object %s in Azure", name), err)
	}

	return ObjectInfo{
		Name:      name,
		Size:      properties.ContentLength(),
		UpdatedAt: properties.LastModified(),
	}, nil
}

func isAzureNotFound(err error) bool {
	var storageErr azblob.StorageError
	if errors.As(err, &storageErr) {
		return storageErr.ServiceCode() == azblob.ServiceCodeBlobNotFound
	}
	return false
}
