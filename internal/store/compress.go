package store

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	apperrors "snapvault/internal/errors"
)

// Codec selects the compression applied to serialized archives at rest
type Codec string

const (
	// CodecNone stores archives as plain JSON
	CodecNone Codec = "none"
	// CodecGzip compresses archives with gzip
	CodecGzip Codec = "gzip"
	// CodecLZ4 compresses archives with LZ4
	CodecLZ4 Codec = "lz4"
	// CodecZstd compresses archives with Zstandard
	CodecZstd Codec = "zstd"
)

// codecExtensions maps each codec to the object name suffix it produces
var codecExtensions = map[Codec]string{
	CodecNone: ".json",
	CodecGzip: ".json.gz",
	CodecLZ4:  ".json.lz4",
	CodecZstd: ".json.zst",
}

// Valid reports whether the codec names a supported algorithm
func (c Codec) Valid() bool {
	_, ok := codecExtensions[c]
	return ok
}

// Extension returns the object name suffix for the codec
func (c Codec) Extension() string {
	return codecExtensions[c]
}

// codecForExtension recovers the codec from a stored object name
func codecForExtension(name string) (Codec, bool) {
	for codec, ext := range codecExtensions {
		if hasSuffix(name, ext) {
			return codec, true
		}
	}
	return "", false
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// compress encodes data with the given codec
func compress(data []byte, codec Codec, level int) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecGzip:
		if level < gzip.BestSpeed || level > gzip.BestCompression {
			level = gzip.DefaultCompression
		}
		var buf bytes.Buffer
		writer, err := gzip.NewWriterLevel(&buf, level)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to create gzip writer", err)
		}
		if _, err := writer.Write(data); err != nil {
			writer.Close()
			return nil, apperrors.NewStorageError("failed to compress archive with gzip", err)
		}
		if err := writer.Close(); err != nil {
			return nil, apperrors.NewStorageError("failed to finalize gzip stream", err)
		}
		return buf.Bytes(), nil

	case CodecLZ4:
		var buf bytes.Buffer
		writer := lz4.NewWriter(&buf)
		if level > 6 {
			if err := writer.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
				return nil, apperrors.NewStorageError("failed to configure LZ4 writer", err)
			}
		}
		if _, err := writer.Write(data); err != nil {
			writer.Close()
			return nil, apperrors.NewStorageError("failed to compress archive with LZ4", err)
		}
		if err := writer.Close(); err != nil {
			return nil, apperrors.NewStorageError("failed to finalize LZ4 stream", err)
		}
		return buf.Bytes(), nil

	case CodecZstd:
		encoderLevel := zstd.SpeedDefault
		switch {
		case level <= 1:
			encoderLevel = zstd.SpeedFastest
		case level <= 3:
			encoderLevel = zstd.SpeedDefault
		case level <= 6:
			encoderLevel = zstd.SpeedBetterCompression
		default:
			encoderLevel = zstd.SpeedBestCompression
		}
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel))
		if err != nil {
			return nil, apperrors.NewStorageError("failed to create zstd encoder", err)
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, make([]byte, 0, len(data))), nil

	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported compression codec: %s", codec), nil)
	}
}

// decompress decodes data with the given codec
func decompress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, apperrors.NewStorageError("failed to read gzip stream", err)
		}
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to decompress gzip archive", err)
		}
		return decompressed, nil

	case CodecLZ4:
		decompressed, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, apperrors.NewStorageError("failed to decompress LZ4 archive", err)
		}
		return decompressed, nil

	case CodecZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to create zstd decoder", err)
		}
		defer decoder.Close()
		decompressed, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to decompress zstd archive", err)
		}
		return decompressed, nil

	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported compression codec: %s", codec), nil)
	}
}
