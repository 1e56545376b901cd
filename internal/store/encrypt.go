package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"

	apperrors "snapvault/internal/errors"
)

const (
	encryptedExtension = ".enc"
	saltSize           = 16
	pbkdf2Iterations   = 100000
	keySize            = 32
)

// EncryptionConfig controls archive encryption at rest. Exactly one key
// source should be set; Passphrase wins when several are present.
type EncryptionConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Passphrase string `yaml:"passphrase" mapstructure:"passphrase"`
	KeyFile    string `yaml:"key_file" mapstructure:"key_file"`
	KeyEnvVar  string `yaml:"key_env_var" mapstructure:"key_env_var"`
}

// Encryptor seals and opens archive bytes with AES-256-GCM. In passphrase
// mode the key is derived per object with PBKDF2 and the random salt is
// stored in front of the ciphertext, so the same plaintext never produces
// the same stored bytes twice.
type Encryptor struct {
	passphrase string
	key        []byte
}

// NewEncryptor builds an encryptor from configuration. Returns nil when
// encryption is disabled.
func NewEncryptor(config *EncryptionConfig) (*Encryptor, error) {
	if config == nil || !config.Enabled {
		return nil, nil
	}

	if config.Passphrase != "" {
		return &Encryptor{passphrase: config.Passphrase}, nil
	}

	if config.KeyFile != "" {
		key, err := os.ReadFile(config.KeyFile)
		if err != nil {
			return nil, apperrors.NewValidationError("failed to read encryption key file", err)
		}
		if len(key) != keySize {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("encryption key file must contain %d bytes", keySize), nil)
		}
		return &Encryptor{key: key}, nil
	}

	if config.KeyEnvVar != "" {
		hexKey := os.Getenv(config.KeyEnvVar)
		if hexKey == "" {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("environment variable %s is not set", config.KeyEnvVar), nil)
		}
		key, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, apperrors.NewValidationError("failed to decode hex encryption key", err)
		}
		if len(key) != keySize {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("encryption key must be %d bytes", keySize), nil)
		}
		return &Encryptor{key: key}, nil
	}

	return nil, apperrors.NewValidationError(
		"encryption is enabled but no passphrase, key file or key env var is configured", nil)
}

// Encrypt seals plaintext. Passphrase mode output is salt||nonce||ciphertext;
// raw key mode omits the salt.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	key := e.key
	var salt []byte
	if e.passphrase != "" {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, apperrors.NewStorageError("failed to generate encryption salt", err)
		}
		key = pbkdf2.Key([]byte(e.passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, apperrors.NewStorageError("failed to generate encryption nonce", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return append(salt, sealed...), nil
}

// Decrypt opens a sealed payload produced by Encrypt
func (e *Encryptor) Decrypt(sealed []byte) ([]byte, error) {
	key := e.key
	if e.passphrase != "" {
		if len(sealed) < saltSize {
			return nil, apperrors.NewInvalidArchiveError("encrypted archive is too short", nil)
		}
		key = pbkdf2.Key([]byte(e.passphrase), sealed[:saltSize], pbkdf2Iterations, keySize, sha256.New)
		sealed = sealed[saltSize:]
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, apperrors.NewInvalidArchiveError("encrypted archive is too short", nil)
	}

	plaintext, err := gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, apperrors.NewInvalidArchiveError("failed to decrypt archive", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create GCM cipher", err)
	}
	return gcm, nil
}
