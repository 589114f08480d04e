package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskforge/attachment-service/internal/domain/model"
)

// AttachmentRepository defines the interface for attachment metadata
// persistence. Records are written strictly after the bytes they describe
// are durable, so no record ever references nonexistent bytes.
type AttachmentRepository interface {
	// Create persists a new attachment record.
	Create(ctx context.Context, attachment *model.Attachment) error

	// FindByTaskAndID retrieves an attachment scoped to its owning task.
	// A mismatch between task and attachment behaves exactly like absence.
	FindByTaskAndID(ctx context.Context, taskID string, id uuid.UUID) (*model.Attachment, error)

	// ListByTask retrieves all attachments owned by the given task.
	ListByTask(ctx context.Context, taskID string) ([]model.Attachment, error)

	// Delete removes an attachment record. It returns the number of rows
	// deleted so callers can distinguish a repeat delete from a failure.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)

	// FilterKnownStorageNames returns the subset of names that belong to a
	// persisted attachment. Used by the reconciliation sweep.
	FilterKnownStorageNames(ctx context.Context, names []string) (map[string]struct{}, error)
}
