package apperrors_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskforge/attachment-service/internal/domain/apperrors"
)

func TestAppError(t *testing.T) {
	cause := apperrors.New("connection refused")
	err := apperrors.NewAppError(apperrors.ErrStore, "failed to store attachment bytes", cause)

	assert.Equal(t, "failed to store attachment bytes: connection refused", err.Error())
	assert.Equal(t, apperrors.ErrStore, err.Code())
	assert.False(t, err.Retryable())
	assert.ErrorIs(t, err, cause)
}

func TestAppError_WithoutCause(t *testing.T) {
	err := apperrors.NewAppError(apperrors.ErrValidation, "File name is required", nil)

	assert.Equal(t, "File name is required", err.Error())
	assert.Nil(t, apperrors.Unwrap(err))
}

func TestNewRetryable(t *testing.T) {
	err := apperrors.NewRetryable(apperrors.ErrStore, "failed to store attachment bytes", nil)

	assert.True(t, apperrors.IsRetryable(err))
	assert.False(t, apperrors.IsRetryable(apperrors.New("plain")))
}

func TestWrap(t *testing.T) {
	t.Run("keeps the inner code", func(t *testing.T) {
		inner := apperrors.NewAppError(apperrors.ErrNotFound, "attachment not found", nil)
		wrapped := apperrors.Wrap(inner, "while serving download")

		assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(wrapped))
		assert.ErrorIs(t, wrapped, inner)
	})

	t.Run("foreign errors become internal", func(t *testing.T) {
		wrapped := apperrors.Wrap(apperrors.New("boom"), "while serving download")

		assert.Equal(t, apperrors.ErrInternal, apperrors.CodeOf(wrapped))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, apperrors.Wrap(nil, "no-op"))
	})
}

func TestMessage(t *testing.T) {
	err := apperrors.NewAppError(apperrors.ErrValidation, "File name is required", apperrors.New("internal detail"))

	assert.Equal(t, "File name is required", apperrors.Message(err))
	// Foreign errors never leak their detail.
	assert.Equal(t, "internal server error", apperrors.Message(apperrors.New("sql: connection reset")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{apperrors.ErrDecode, http.StatusBadRequest},
		{apperrors.ErrRequestTooLarge, http.StatusRequestEntityTooLarge},
		{apperrors.ErrValidation, http.StatusUnprocessableEntity},
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.ErrStore, http.StatusInternalServerError},
		{apperrors.ErrMetadata, http.StatusInternalServerError},
		{apperrors.ErrInternal, http.StatusInternalServerError},
		{"UNKNOWN", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, apperrors.ToHTTPStatus(tt.code), "code %s", tt.code)
	}
}
