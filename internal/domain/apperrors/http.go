package apperrors

import "net/http"

// ToHTTPStatus maps an error code to its HTTP status. Decode and validation
// failures carry their reasons to the caller; store and metadata failures are
// deliberately collapsed into 500 so internal detail stays server-side.
func ToHTTPStatus(code string) int {
	switch code {
	case ErrDecode:
		return http.StatusBadRequest
	case ErrRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrValidation:
		return http.StatusUnprocessableEntity
	case ErrNotFound:
		return http.StatusNotFound
	case ErrStore, ErrMetadata, ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
