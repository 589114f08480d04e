package apperrors

import (
	"errors"
	"fmt"
)

// Re-export the standard library helpers so callers need a single import.
var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// AppError carries a closed error code, a human-readable message and an
// optional wrapped cause.
type AppError struct {
	code      string
	message   string
	retryable bool
	err       error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

// Code returns the error code.
func (e *AppError) Code() string {
	return e.code
}

// Retryable reports whether retrying the same operation may succeed.
func (e *AppError) Retryable() bool {
	return e.retryable
}

func (e *AppError) Unwrap() error {
	return e.err
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

// NewRetryable creates an application error whose operation may be retried,
// such as a storage-name collision.
func NewRetryable(code string, message string, err error) *AppError {
	return &AppError{
		code:      code,
		message:   message,
		retryable: true,
		err:       err,
	}
}

// Wrap wraps an error keeping an existing code, defaulting to ErrInternal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return &AppError{
			code:      appErr.code,
			message:   message,
			retryable: appErr.retryable,
			err:       err,
		}
	}

	return NewAppError(ErrInternal, message, err)
}

// CodeOf returns the error code of err, or ErrInternal for foreign errors.
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}

// IsRetryable reports whether err is a retryable application error.
func IsRetryable(err error) bool {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Retryable()
	}
	return false
}

// Message returns the user-facing message of err. For foreign errors it
// returns a generic message so internal detail never leaks to callers.
func Message(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.message
	}
	return "internal server error"
}
