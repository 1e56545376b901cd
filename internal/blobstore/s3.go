package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	apperrors "snapvault/internal/errors"
)

// S3Store implements Store for Amazon S3
type S3Store struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3Store creates a new S3-backed blob store
func NewS3Store(config *S3Config) (*S3Store, error) {
	if config == nil {
		return nil, apperrors.NewValidationError("S3 storage configuration is required", nil)
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"", // token
		)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create AWS session", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "backups/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &S3Store{
		client: s3.New(sess),
		bucket: config.Bucket,
		prefix: prefix,
	}, nil
}

// Write uploads an object. S3 object writes are atomic: a partially
// uploaded object is never visible.
func (s *S3Store) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to upload object %s to S3", name), err)
	}
	return nil
}

// Read downloads an object by name
func (s *S3Store) Read(ctx context.Context, name string) ([]byte, error) {
	result, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to download object %s from S3", name), err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read object body", err)
	}
	return data, nil
}

// List returns every object under the store prefix
func (s *S3Store) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, object := range page.Contents {
			objects = append(objects, ObjectInfo{
				Name:      strings.TrimPrefix(aws.StringValue(object.Key), s.prefix),
				Size:      aws.Int64Value(object.Size),
				UpdatedAt: aws.TimeValue(object.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list objects in S3", err)
	}

	return objects, nil
}

// Delete removes an object by name
func (s *S3Store) Delete(ctx context.Context, name string) error {
	// DeleteObject succeeds on missing keys, so existence is checked first
	// to honor the not-found contract.
	if _, err := s.Stat(ctx, name); err != nil {
		return err
	}

	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to delete object %s from S3", name), err)
	}
	return nil
}

// Stat returns size information for an object
func (s *S3Store) Stat(ctx context.Context, name string) (ObjectInfo, error) {
	result, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		if isS3NotFound(err) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, apperrors.NewStorageError(fmt.Sprintf("failed to stat object %s in S3", name), err)
	}

	return ObjectInfo{
		Name:      name,
		Size:      aws.Int64Value(result.ContentLength),
		UpdatedAt: aws.TimeValue(result.LastModified),
	}, nil
}

func isS3NotFound(err error) bool {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
