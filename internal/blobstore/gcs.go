package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	apperrors "snapvault/internal/errors"
)

// GCSStore implements Store for Google Cloud Storage
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a new GCS-backed blob store. When no credentials file
// is configured, the client falls back to application default credentials.
func NewGCSStore(ctx context.Context, config *GCSConfig) (*GCSStore, error) {
	if config == nil {
		return nil, apperrors.NewValidationError("GCS storage configuration is required", nil)
	}

	var client *storage.Client
	var err error
	if config.CredentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(config.CredentialsPath))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create GCS client", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "backups/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &GCSStore{
		client: client,
		bucket: config.Bucket,
		prefix: prefix,
	}, nil
}

// Write uploads an object. GCS object writes commit on Close, so a failed
// upload leaves no partial object behind.
func (g *GCSStore) Write(ctx context.Context, name string, data []byte) error {
	object := g.client.Bucket(g.bucket).Object(g.prefix + name)
	writer := object.NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return apperrors.NewStorageError(fmt.Sprintf("failed to write object %s to GCS", name), err)
	}
	if err := writer.Close(); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to upload object %s to GCS", name), err)
	}
	return nil
}

// Read downloads an object by name
func (g *GCSStore) Read(ctx context.Context, name string) ([]byte, error) {
	object := g.client.Bucket(g.bucket).Object(g.prefix + name)

	reader, err := object.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to download object %s from GCS", name), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read object body", err)
	}
	return data, nil
}

// List returns every object under the store prefix
func (g *GCSStore) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.NewStorageError("failed to list objects in GCS", err)
		}

		objects = append(objects, ObjectInfo{
			Name:      strings.TrimPrefix(attrs.Name, g.prefix),
			Size:      attrs.Size,
			UpdatedAt: attrs.Updated,
		})
	}

	return objects, nil
}

// Delete removes an object by name
func (g *GCSStore) Delete(ctx context.Context, name string) error {
	object := g.client.Bucket(g.bucket).Object(g.prefix + name)

	if err := object.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrObjectNotFound
		}
		return apperrors.NewStorageError(fmt.Sprintf("failed to delete object %s from GCS", name), err)
	}
	return nil
}

// Stat returns size information for an object
func (g *GCSStore) Stat(ctx context.Context, name string) (ObjectInfo, error) {
	attrs, err := g.client.Bucket(g.bucket).Object(g.prefix + name).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, apperrors.NewStorageError(fmt.Sprintf("failed to stat object %s in GCS", name), err)
	}

	return ObjectInfo{Name: name, Size: attrs.Size, UpdatedAt: attrs.Updated}, nil
}

// Close releases the underlying GCS client
func (g *GCSStore) Close() error {
	return g.client.Close()
}
