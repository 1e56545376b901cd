package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "snapvault/internal/errors"
)

// LocalStore implements Store on the local file system. The base directory
// is created lazily on first write. Writes go to a temporary name in the
// same directory and are renamed into place, so a partially written object
// is never visible to List or Read.
type LocalStore struct {
	basePath    string
	permissions os.FileMode
}

// NewLocalStore creates a local file system blob store
func NewLocalStore(config *LocalConfig) (*LocalStore, error) {
	if config == nil || config.BasePath == "" {
		return nil, apperrors.NewValidationError("base path is required for local storage", nil)
	}

	permissions := config.Permissions
	if permissions == 0 {
		permissions = 0o755
	}

	return &LocalStore{
		basePath:    config.BasePath,
		permissions: permissions,
	}, nil
}

// Write stores an object atomically under the base directory
func (ls *LocalStore) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateObjectName(name); err != nil {
		return err
	}

	if err := os.MkdirAll(ls.basePath, ls.permissions); err != nil {
		return apperrors.NewStorageError("failed to create storage directory", err)
	}

	tmp, err := os.CreateTemp(ls.basePath, "."+name+".tmp-*")
	if err != nil {
		return apperrors.NewStorageError("failed to create temporary file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.NewStorageError("failed to write object data", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError("failed to close temporary file", err)
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError("failed to set object permissions", err)
	}

	if err := os.Rename(tmpName, filepath.Join(ls.basePath, name)); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError("failed to move object into place", err)
	}

	return nil
}

// Read loads an object by name
func (ls *LocalStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateObjectName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(ls.basePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to read object %s", name), err)
	}

	return data, nil
}

// List returns every stored object. Temporary files from in-flight writes
// are hidden.
func (ls *LocalStore) List(ctx context.Context) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ls.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []ObjectInfo{}, nil // Directory not created yet: nothing stored
		}
		return nil, apperrors.NewStorageError("failed to list storage directory", err)
	}

	objects := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		objects = append(objects, ObjectInfo{
			Name:      entry.Name(),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}

	return objects, nil
}

// Delete removes an object by name
func (ls *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateObjectName(name); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(ls.basePath, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return apperrors.NewStorageError(fmt.Sprintf("failed to delete object %s", name), err)
	}

	return nil
}

// Stat returns size information for an object
func (ls *LocalStore) Stat(ctx context.Context, name string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	if err := validateObjectName(name); err != nil {
		return ObjectInfo{}, err
	}

	info, err := os.Stat(filepath.Join(ls.basePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, apperrors.NewStorageError(fmt.Sprintf("failed to stat object %s", name), err)
	}

	return ObjectInfo{Name: name, Size: info.Size(), UpdatedAt: info.ModTime()}, nil
}

// validateObjectName rejects names that could escape the base directory
func validateObjectName(name string) error {
	if name == "" {
		return apperrors.NewValidationError("object name cannot be empty", nil)
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return apperrors.NewValidationError(fmt.Sprintf("invalid object name %q", name), nil)
	}
	return nil
}
