package store

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "snapvault/internal/errors"
)

func TestNewEncryptor_Disabled(t *testing.T) {
	encryptor, err := NewEncryptor(nil)
	require.NoError(t, err)
	assert.Nil(t, encryptor)

	encryptor, err = NewEncryptor(&EncryptionConfig{Enabled: false, Passphrase: "ignored"})
	require.NoError(t, err)
	assert.Nil(t, encryptor)
}

func TestNewEncryptor_NoKeySource(t *testing.T) {
	_, err := NewEncryptor(&EncryptionConfig{Enabled: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestEncryptor_PassphraseRoundTrip(t *testing.T) {
	encryptor, err := NewEncryptor(&EncryptionConfig{Enabled: true, Passphrase: "correct horse"})
	require.NoError(t, err)

	plaintext := []byte(`{"metadata":{"id":"bk-1"}}`)
	sealed, err := encryptor.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "bk-1")

	opened, err := encryptor.Decrypt(sealed)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(plaintext, opened))
}

func TestEncryptor_PassphraseSaltsPerObject(t *testing.T) {
	encryptor, err := NewEncryptor(&EncryptionConfig{Enabled: true, Passphrase: "correct horse"})
	require.NoError(t, err)

	plaintext := []byte("same plaintext")
	first, err := encryptor.Encrypt(plaintext)
	require.NoError(t, err)
	second, err := encryptor.Encrypt(plaintext)
	require.NoError(t, err)

	assert.False(t, bytes.Equal(first, second),
		"per-object salts must make identical plaintexts encrypt differently")
}

func TestEncryptor_WrongPassphraseFails(t *testing.T) {
	right, err := NewEncryptor(&EncryptionConfig{Enabled: true, Passphrase: "right"})
	require.NoError(t, err)
	wrong, err := NewEncryptor(&EncryptionConfig{Enabled: true, Passphrase: "wrong"})
	require.NoError(t, err)

	sealed, err := right.Encrypt([]byte("payload"))
	require.NoError(t, err)

	_, err = wrong.Decrypt(sealed)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidArchive))
}

func TestEncryptor_KeyFileRoundTrip(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "backup.key")
	key := bytes.Repeat([]byte{0x42}, keySize)
	require.NoError(t, os.WriteFile(keyPath, key, 0o600))

	encryptor, err := NewEncryptor(&EncryptionConfig{Enabled: true, KeyFile: keyPath})
	require.NoError(t, err)

	sealed, err := encryptor.Encrypt([]byte("payload"))
	require.NoError(t, err)
	opened, err := encryptor.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), opened)
}

func TestEncryptor_KeyFileWrongSize(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "short.key")
	require.NoError(t, os.WriteFile(keyPath, []byte("too short"), 0o600))

	_, err := NewEncryptor(&EncryptionConfig{Enabled: true, KeyFile: keyPath})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestEncryptor_KeyEnvVar(t *testing.T) {
	key := bytes.Repeat([]byte{0x17}, keySize)
	t.Setenv("SNAPVAULT_TEST_KEY", hex.EncodeToString(key))

	encryptor, err := NewEncryptor(&EncryptionConfig{Enabled: true, KeyEnvVar: "SNAPVAULT_TEST_KEY"})
	require.NoError(t, err)

	sealed, err := encryptor.Encrypt([]byte("payload"))
	require.NoError(t, err)
	opened, err := encryptor.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), opened)

	t.Run("unset variable", func(t *testing.T) {
		_, err := NewEncryptor(&EncryptionConfig{Enabled: true, KeyEnvVar: "SNAPVAULT_MISSING_KEY"})
		assert.Error(t, err)
	})

	t.Run("not hex", func(t *testing.T) {
		t.Setenv("SNAPVAULT_BAD_KEY", "zzzz")
		_, err := NewEncryptor(&EncryptionConfig{Enabled: true, KeyEnvVar: "SNAPVAULT_BAD_KEY"})
		assert.Error(t, err)
	})
}

func TestEncryptor_TruncatedPayload(t *testing.T) {
	encryptor, err := NewEncryptor(&EncryptionConfig{Enabled: true, Passphrase: "p"})
	require.NoError(t, err)

	_, err = encryptor.Decrypt([]byte("short"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidArchive))
}
