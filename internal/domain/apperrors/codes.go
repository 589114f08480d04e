package apperrors

// Error codes for the upload pipeline. The set is closed: every failure the
// service can surface belongs to exactly one of these.
const (
	// ErrDecode covers malformed multipart streams.
	ErrDecode = "DECODE"
	// ErrRequestTooLarge is a decode failure caused by the per-request byte ceiling.
	ErrRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrValidation covers rejected filenames, extensions and sizes. The caller
	// can correct the input and retry.
	ErrValidation = "VALIDATION"
	// ErrStore covers disk, permission and name-collision failures while
	// committing bytes.
	ErrStore = "STORE"
	// ErrMetadata covers persistence failures after bytes are already durable.
	// The bytes become an orphan for the reconciler, never a dangling reference.
	ErrMetadata = "METADATA"
	// ErrNotFound covers missing records and mis-owned lookups. Ownership
	// mismatches map here on purpose so existence is never confirmed.
	ErrNotFound = "NOT_FOUND"
	// ErrInternal is the fallback for everything else.
	ErrInternal = "INTERNAL"
)
