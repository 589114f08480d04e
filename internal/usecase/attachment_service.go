package usecase

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/taskforge/attachment-service/internal/domain/apperrors"
	"github.com/taskforge/attachment-service/internal/domain/model"
	"github.com/taskforge/attachment-service/internal/domain/repository"
	"github.com/taskforge/attachment-service/internal/domain/storage"
	"go.uber.org/zap"
)

// AttachmentService serves and reclaims committed attachments. All lookups
// are scoped to the owning task; a mismatch is indistinguishable from
// absence so existence under another owner is never confirmed.
type AttachmentService struct {
	validator   *Validator
	store       storage.BlobStore
	attachments repository.AttachmentRepository
	logger      *zap.Logger
}

// NewAttachmentService creates a new attachment service.
func NewAttachmentService(
	validator *Validator,
	store storage.BlobStore,
	attachments repository.AttachmentRepository,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		validator:   validator,
		store:       store,
		attachments: attachments,
		logger:      logger,
	}
}

// Download resolves an attachment scoped to its task and opens its bytes.
// The returned content type derives from the stored extension's allowlist
// mapping only; the caller owns closing the reader.
//
// A record whose bytes were just removed by a concurrent delete reports
// not-found rather than faulting.
func (s *AttachmentService) Download(ctx context.Context, taskID string, id uuid.UUID) (*model.Attachment, string, io.ReadCloser, error) {
	attachment, err := s.find(ctx, taskID, id)
	if err != nil {
		return nil, "", nil, err
	}

	body, err := s.store.Open(ctx, attachment.StorageName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", nil, apperrors.NewAppError(apperrors.ErrNotFound, "attachment not found", err)
		}
		return nil, "", nil, apperrors.NewAppError(apperrors.ErrStore, "failed to open attachment bytes", err)
	}

	contentType := s.validator.ContentTypeFor(Extension(attachment.StorageName))
	return attachment, contentType, body, nil
}

// List returns all attachments owned by the given task.
func (s *AttachmentService) List(ctx context.Context, taskID string) ([]model.Attachment, error) {
	attachments, err := s.attachments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrMetadata, "failed to list attachments", err)
	}
	return attachments, nil
}

// Delete removes an attachment: the metadata row first, then the bytes.
// Metadata is authoritative; a blob that refuses to go is logged and left as
// a reclaimable leak for the reconciler, not surfaced as a failure.
func (s *AttachmentService) Delete(ctx context.Context, taskID string, id uuid.UUID) error {
	attachment, err := s.find(ctx, taskID, id)
	if err != nil {
		return err
	}

	deleted, err := s.attachments.Delete(ctx, attachment.ID)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrMetadata, "failed to delete attachment", err)
	}
	if deleted == 0 {
		// Lost the race against another delete.
		return apperrors.NewAppError(apperrors.ErrNotFound, "attachment not found", nil)
	}

	s.removeBlob(ctx, attachment.StorageName)

	s.logger.Info("Attachment deleted",
		zap.String("task_id", taskID),
		zap.String("attachment_id", id.String()))
	return nil
}

// DeleteAllForTask reclaims every attachment owned by taskID. The owning
// service calls this before dropping the task row; the foreign key cascade
// then clears any metadata rows this pass raced against.
func (s *AttachmentService) DeleteAllForTask(ctx context.Context, taskID string) error {
	attachments, err := s.attachments.ListByTask(ctx, taskID)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrMetadata, "failed to enumerate attachments", err)
	}

	for i := range attachments {
		attachment := &attachments[i]
		if _, err := s.attachments.Delete(ctx, attachment.ID); err != nil {
			return apperrors.NewAppError(apperrors.ErrMetadata, "failed to delete attachment", err)
		}
		s.removeBlob(ctx, attachment.StorageName)
	}

	if len(attachments) > 0 {
		s.logger.Info("Task attachments reclaimed",
			zap.String("task_id", taskID),
			zap.Int("count", len(attachments)))
	}
	return nil
}

func (s *AttachmentService) removeBlob(ctx context.Context, storageName string) {
	if err := s.store.Remove(ctx, storageName); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("Failed to remove attachment bytes, leaving for reconciliation",
			zap.String("storage_name", storageName),
			zap.Error(err))
	}
}

func (s *AttachmentService) find(ctx context.Context, taskID string, id uuid.UUID) (*model.Attachment, error) {
	attachment, err := s.attachments.FindByTaskAndID(ctx, taskID, id)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrMetadata, "failed to look up attachment", err)
	}
	if attachment == nil {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "attachment not found", nil)
	}
	return attachment, nil
}
