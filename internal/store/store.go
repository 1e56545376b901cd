package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"snapvault/internal/archive"
	"snapvault/internal/blobstore"
	apperrors "snapvault/internal/errors"
	"snapvault/internal/logging"
)

// DefaultMaxArchiveBytes is the serialized-size ceiling applied when no
// limit is configured: 500 MiB.
const DefaultMaxArchiveBytes = 500 * 1024 * 1024

// Options configures an ArchiveStore
type Options struct {
	// MaxArchiveBytes caps the serialized archive size before compression.
	// Zero selects DefaultMaxArchiveBytes; negative disables the ceiling.
	MaxArchiveBytes int64
	// Compression selects the at-rest codec. Empty means CodecNone.
	Compression Codec
	// CompressionLevel tunes the codec. Zero selects the codec default.
	CompressionLevel int
	// Encryption enables AES-256-GCM encryption at rest
	Encryption *EncryptionConfig
}

// Summary describes one stored archive without its table data
type Summary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	SizeBytes    int64     `json:"size_bytes"`
	TableCount   int       `json:"table_count"`
	TotalRecords int       `json:"total_records"`
}

// ArchiveStore persists archives to a blob store. The serialized size
// ceiling is checked before any byte reaches storage, so an oversized
// snapshot never leaves a partial or orphaned object behind.
type ArchiveStore struct {
	blobs     blobstore.Store
	maxBytes  int64
	codec     Codec
	level     int
	encryptor *Encryptor
	logger    *logging.Logger
}

// New creates an archive store over the given blob store
func New(blobs blobstore.Store, options Options, logger *logging.Logger) (*ArchiveStore, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	codec := options.Compression
	if codec == "" {
		codec = CodecNone
	}
	if !codec.Valid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported compression codec: %s", codec), nil)
	}

	maxBytes := options.MaxArchiveBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxArchiveBytes
	}

	encryptor, err := NewEncryptor(options.Encryption)
	if err != nil {
		return nil, err
	}

	return &ArchiveStore{
		blobs:     blobs,
		maxBytes:  maxBytes,
		codec:     codec,
		level:     options.CompressionLevel,
		encryptor: encryptor,
		logger:    logger,
	}, nil
}

// objectName returns the blob name this store writes for an archive ID
func (s *ArchiveStore) objectName(id string) string {
	name := id + s.codec.Extension()
	if s.encryptor != nil {
		name += encryptedExtension
	}
	return name
}

// Save serializes and persists an archive, returning the serialized size.
// The size ceiling applies to the serialized JSON, before compression or
// encryption, and is checked before anything is written.
func (s *ArchiveStore) Save(ctx context.Context, a *archive.Archive) (int64, error) {
	if a == nil || a.Metadata == nil {
		return 0, apperrors.NewInvalidArchiveError("archive is missing metadata", nil)
	}

	data, err := a.ToJSON()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to serialize archive", err)
	}
	size := int64(len(data))

	if s.maxBytes > 0 && size > s.maxBytes {
		return 0, apperrors.NewSizeLimitError(
			fmt.Sprintf("archive size %d bytes exceeds the %d byte limit", size, s.maxBytes), nil).
			WithContext("archive_id", a.Metadata.ID).
			WithContext("size_bytes", size).
			WithContext("limit_bytes", s.maxBytes)
	}

	encoded, err := compress(data, s.codec, s.level)
	if err != nil {
		return 0, err
	}
	if s.encryptor != nil {
		if encoded, err = s.encryptor.Encrypt(encoded); err != nil {
			return 0, err
		}
	}

	if err := s.blobs.Write(ctx, s.objectName(a.Metadata.ID), encoded); err != nil {
		return 0, err
	}
	return size, nil
}

// Load retrieves an archive by ID. Objects written under a different
// compression or encryption setting are still found by trying the other
// known name variants.
func (s *ArchiveStore) Load(ctx context.Context, id string) (*archive.Archive, error) {
	name, data, err := s.readVariant(ctx, id)
	if err != nil {
		return nil, err
	}

	decoded, err := s.decode(name, data)
	if err != nil {
		return nil, err
	}

	a, err := archive.FromJSON(decoded)
	if err != nil {
		return nil, apperrors.NewInvalidArchiveError(
			fmt.Sprintf("archive %s is not a valid archive document", id), err)
	}
	return a, nil
}

// Delete removes an archive by ID
func (s *ArchiveStore) Delete(ctx context.Context, id string) error {
	name, err := s.findVariant(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, name); err != nil {
		if errors.Is(err, blobstore.ErrObjectNotFound) {
			return notFound(id)
		}
		return err
	}
	return nil
}

// List returns a summary of every stored archive, newest first. Objects
// that cannot be decoded are skipped with a warning rather than failing
// the whole listing.
func (s *ArchiveStore) List(ctx context.Context) ([]Summary, error) {
	objects, err := s.blobs.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(objects))
	for _, object := range objects {
		id, ok := archiveIDFromObjectName(object.Name)
		if !ok || !archive.IsValidID(id) {
			continue // Not an archive object
		}

		data, err := s.blobs.Read(ctx, object.Name)
		if err != nil {
			s.logger.Warnf("Skipping unreadable archive object %s: %v", object.Name, err)
			continue
		}

		decoded, err := s.decode(object.Name, data)
		if err != nil {
			s.logger.Warnf("Skipping undecodable archive object %s: %v", object.Name, err)
			continue
		}

		summary, err := scanSummary(decoded)
		if err != nil {
			s.logger.Warnf("Skipping malformed archive object %s: %v", object.Name, err)
			continue
		}
		summary.SizeBytes = object.Size

		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// readVariant reads the stored object for an ID, trying the configured
// name first and the other known suffixes after
func (s *ArchiveStore) readVariant(ctx context.Context, id string) (string, []byte, error) {
	for _, name := range s.candidateNames(id) {
		data, err := s.blobs.Read(ctx, name)
		if err == nil {
			return name, data, nil
		}
		if !errors.Is(err, blobstore.ErrObjectNotFound) {
			return "", nil, err
		}
	}
	return "", nil, notFound(id)
}

// findVariant resolves the stored object name for an ID
func (s *ArchiveStore) findVariant(ctx context.Context, id string) (string, error) {
	for _, name := range s.candidateNames(id) {
		if _, err := s.blobs.Stat(ctx, name); err == nil {
			return name, nil
		} else if !errors.Is(err, blobstore.ErrObjectNotFound) {
			return "", err
		}
	}
	return "", notFound(id)
}

func (s *ArchiveStore) candidateNames(id string) []string {
	configured := s.objectName(id)
	names := []string{configured}
	for _, codec := range []Codec{CodecNone, CodecGzip, CodecLZ4, CodecZstd} {
		for _, suffix := range []string{"", encryptedExtension} {
			name := id + codec.Extension() + suffix
			if name != configured {
				names = append(names, name)
			}
		}
	}
	return names
}

// decode reverses encryption and compression based on the object name
func (s *ArchiveStore) decode(name string, data []byte) ([]byte, error) {
	if strings.HasSuffix(name, encryptedExtension) {
		if s.encryptor == nil {
			return nil, apperrors.NewInvalidArchiveError(
				fmt.Sprintf("object %s is encrypted but encryption is not configured", name), nil)
		}
		decrypted, err := s.encryptor.Decrypt(data)
		if err != nil {
			return nil, err
		}
		data = decrypted
		name = strings.TrimSuffix(name, encryptedExtension)
	}

	codec, ok := codecForExtension(name)
	if !ok {
		return nil, apperrors.NewInvalidArchiveError(
			fmt.Sprintf("object %s has an unrecognized extension", name), nil)
	}
	return decompress(data, codec)
}

// archiveIDFromObjectName strips the known storage suffixes from an object
// name. Returns false for names that do not look like archive objects.
func archiveIDFromObjectName(name string) (string, bool) {
	name = strings.TrimSuffix(name, encryptedExtension)
	for _, ext := range []string{".json.gz", ".json.lz4", ".json.zst", ".json"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}

func notFound(id string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("backup %s not found", id), nil).
		WithContext("archive_id", id)
}

// scanSummary extracts metadata and record counts from a serialized archive
// without materializing the table values
func scanSummary(data []byte) (Summary, error) {
	var summary Summary

	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(decoder, '{'); err != nil {
		return summary, err
	}

	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return summary, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return summary, fmt.Errorf("unexpected token %v in archive document", keyToken)
		}

		switch key {
		case "metadata":
			var metadata archive.Metadata
			if err := decoder.Decode(&metadata); err != nil {
				return summary, err
			}
			summary.ID = metadata.ID
			summary.Name = metadata.Name
			summary.Description = metadata.Description
			summary.CreatedBy = metadata.CreatedBy
			summary.CreatedAt = metadata.CreatedAt

		case "data":
			if err := expectDelim(decoder, '{'); err != nil {
				return summary, err
			}
			for decoder.More() {
				if _, err := decoder.Token(); err != nil { // table name
					return summary, err
				}
				count, err := countArrayElements(decoder)
				if err != nil {
					return summary, err
				}
				summary.TableCount++
				summary.TotalRecords += count
			}
			if _, err := decoder.Token(); err != nil { // closing '}'
				return summary, err
			}

		default:
			var skipped json.RawMessage
			if err := decoder.Decode(&skipped); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

func countArrayElements(decoder *json.Decoder) (int, error) {
	if err := expectDelim(decoder, '['); err != nil {
		return 0, err
	}
	count := 0
	for decoder.More() {
		var element json.RawMessage
		if err := decoder.Decode(&element); err != nil {
			return 0, err
		}
		count++
	}
	if _, err := decoder.Token(); err != nil { // closing ']'
		return 0, err
	}
	return count, nil
}

func expectDelim(decoder *json.Decoder, want json.Delim) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q in archive document, got %v", want, token)
	}
	return nil
}
