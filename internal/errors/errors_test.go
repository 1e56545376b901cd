package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	plain := NewValidationError("backup name is required", nil)
	assert.Equal(t, "validation: backup name is required", plain.Error())

	cause := errors.New("disk full")
	wrapped := NewStorageError("failed to write object", cause)
	assert.Equal(t, "storage: failed to write object (caused by: disk full)", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewSizeLimitError("archive too large", nil).
		WithContext("size_bytes", int64(600)).
		WithContext("limit_bytes", int64(500))

	assert.Equal(t, int64(600), err.Context["size_bytes"])
	assert.Equal(t, int64(500), err.Context["limit_bytes"])
}

func TestNewRateLimitedError(t *testing.T) {
	err := NewRateLimitedError("backup creation allowed again in 17s", 17*time.Second)

	assert.True(t, err.IsRecoverable())
	assert.Equal(t, 17*time.Second, err.RetryAfter)
	assert.Equal(t, 18, err.Context["retry_after_seconds"],
		"the advertised wait is rounded up so a retry at that moment succeeds")
}

func TestIsType(t *testing.T) {
	err := NewNotFoundError("backup bk-1 not found", nil)

	assert.True(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(err, ErrorTypeValidation))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeNotFound))
	assert.False(t, IsType(nil, ErrorTypeNotFound))

	// Wrapping must not hide the type.
	wrapped := fmt.Errorf("while deleting: %w", err)
	assert.True(t, IsType(wrapped, ErrorTypeNotFound))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeDataRetrieval, GetErrorType(NewDataRetrievalError("read failed", nil)))
	assert.Equal(t, ErrorTypeInternal, GetErrorType(errors.New("plain")))
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t, "", FormatUserError(nil))
	assert.Equal(t, "backup not found", FormatUserError(NewNotFoundError("backup not found", nil)))

	custom := NewInternalError("nil pointer in assembler", nil)
	custom.UserMessage = "Something went wrong creating the backup."
	assert.Equal(t, "Something went wrong creating the backup.", FormatUserError(custom))

	assert.Contains(t, FormatUserError(errors.New("plain")), "unexpected error")
}

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeInvalidArchive, http.StatusBadRequest},
		{ErrorTypeRateLimited, http.StatusTooManyRequests},
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeSizeLimit, http.StatusRequestEntityTooLarge},
		{ErrorTypeStorage, http.StatusInternalServerError},
		{ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			err := NewAppError(tt.errorType, "m", nil)
			assert.Equal(t, tt.want, err.HTTPStatus())
		})
	}
}

func TestClassifyDataError(t *testing.T) {
	assert.Nil(t, ClassifyDataError("users", nil))

	t.Run("mysql error numbers", func(t *testing.T) {
		tests := []struct {
			number uint16
			want   string
		}{
			{1045, "access denied reading table users"},
			{1146, "table users does not exist"},
			{1054, "unknown column while reading table users"},
			{2006, "lost database connection reading table users"},
			{9999, "failed to read table users"},
		}

		for _, tt := range tests {
			err := ClassifyDataError("users", &mysql.MySQLError{Number: tt.number, Message: "m"})
			require.NotNil(t, err)
			assert.Equal(t, ErrorTypeDataRetrieval, err.Type)
			assert.Contains(t, err.Message, tt.want)
			assert.Equal(t, tt.number, err.Context["mysql_error_code"])
		}
	})

	t.Run("context errors", func(t *testing.T) {
		err := ClassifyDataError("decks", context.Canceled)
		assert.Contains(t, err.Message, "canceled")

		err = ClassifyDataError("decks", context.DeadlineExceeded)
		assert.Contains(t, err.Message, "timed out")
	})

	t.Run("app error passes through with table context", func(t *testing.T) {
		inner := NewStorageError("blob store down", nil)
		err := ClassifyDataError("cards", inner)
		assert.Equal(t, ErrorTypeStorage, err.Type)
		assert.Equal(t, "cards", err.Context["table"])
	})
}
