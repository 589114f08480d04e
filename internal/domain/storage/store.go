package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when no blob exists under the given name.
	ErrNotFound = errors.New("blob not found")
	// ErrExists is returned when a commit would overwrite an existing blob.
	// Commits fail closed; the caller retries with a freshly generated name.
	ErrExists = errors.New("blob already exists")
	// ErrInvalidName is returned for storage names that could escape the
	// storage root or shadow internal temp files.
	ErrInvalidName = errors.New("invalid storage name")
)

// BlobStore is the port for durable byte storage. Implementations must make
// Commit atomic as observed externally: the destination is either fully
// absent or fully present with complete content, and an existing destination
// is never overwritten.
type BlobStore interface {
	// Commit moves the bytes spooled at scratchPath into durable storage
	// under storageName and returns the committed size. On any failure no
	// partial blob is visible under storageName. The scratch file is left in
	// place; the caller owns its cleanup.
	Commit(ctx context.Context, scratchPath string, storageName string) (int64, error)

	// Open returns a reader over the blob stored under storageName.
	Open(ctx context.Context, storageName string) (io.ReadCloser, error)

	// Remove deletes the blob stored under storageName.
	Remove(ctx context.Context, storageName string) error

	// List returns the storage names of all committed blobs.
	List(ctx context.Context) ([]string, error)
}
