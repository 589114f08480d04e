package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskforge/attachment-service/internal/adapter/multipart"
	"github.com/taskforge/attachment-service/internal/domain/apperrors"
	"github.com/taskforge/attachment-service/internal/domain/model"
	"github.com/taskforge/attachment-service/internal/domain/repository"
	"github.com/taskforge/attachment-service/internal/domain/storage"
	"go.uber.org/zap"
)

// nameCollisionRetries bounds how often a commit is retried with a freshly
// generated name before the upload fails.
const nameCollisionRetries = 3

// UploadService runs the ingestion pipeline for one decoded file part:
// validate, generate an opaque name, commit the bytes, then record metadata.
// Bytes-before-metadata ordering is strict, so no record ever references
// nonexistent bytes; the inverse failure (bytes without a record) is a
// harmless orphan picked up by the reconciler.
type UploadService struct {
	validator   *Validator
	names       *NameGenerator
	store       storage.BlobStore
	attachments repository.AttachmentRepository
	tasks       repository.TaskRepository
	logger      *zap.Logger
}

// NewUploadService creates a new upload service.
func NewUploadService(
	validator *Validator,
	names *NameGenerator,
	store storage.BlobStore,
	attachments repository.AttachmentRepository,
	tasks repository.TaskRepository,
	logger *zap.Logger,
) *UploadService {
	return &UploadService{
		validator:   validator,
		names:       names,
		store:       store,
		attachments: attachments,
		tasks:       tasks,
		logger:      logger,
	}
}

// Upload takes a file part already spooled to scratch storage and turns it
// into a committed attachment owned by taskID. The returned record exists in
// the metadata store and its bytes are durable; anything less is an error.
func (s *UploadService) Upload(ctx context.Context, taskID string, part *multipart.FilePart) (*model.Attachment, error) {
	exists, err := s.tasks.Exists(ctx, taskID)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrMetadata, "failed to look up task", err)
	}
	if !exists {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "task not found", nil)
	}

	ext, err := s.validator.Validate(part.Filename, part.Size)
	if err != nil {
		s.logger.Info("Upload rejected by validation",
			zap.String("task_id", taskID),
			zap.String("filename", part.Filename),
			zap.Int64("size_bytes", part.Size),
			zap.Error(err))
		return nil, err
	}

	storageName, size, err := s.commitWithRetry(ctx, part.ScratchPath, ext)
	if err != nil {
		return nil, err
	}

	attachment := &model.Attachment{
		ID:          uuid.New(),
		TaskID:      taskID,
		DisplayName: SanitizeDisplayName(part.Filename),
		StorageName: storageName,
		SizeBytes:   size,
	}

	if err := s.attachments.Create(ctx, attachment); err != nil {
		// The bytes are durable but unrecorded: an orphan file, not a
		// dangling reference. Leave it for the reconciliation sweep.
		s.logger.Error("Attachment metadata write failed after commit, orphan flagged for reconciliation",
			zap.String("task_id", taskID),
			zap.String("storage_name", storageName),
			zap.Error(err))
		return nil, apperrors.NewAppError(apperrors.ErrMetadata, "failed to record attachment", err)
	}

	s.logger.Info("Attachment stored",
		zap.String("task_id", taskID),
		zap.String("attachment_id", attachment.ID.String()),
		zap.String("storage_name", storageName),
		zap.Int64("size_bytes", size))

	return attachment, nil
}

// commitWithRetry commits the scratch bytes under a fresh opaque name,
// regenerating the name on a collision. The store fails closed on an
// existing destination, so a retry can never overwrite anything.
func (s *UploadService) commitWithRetry(ctx context.Context, scratchPath, ext string) (string, int64, error) {
	for attempt := 0; attempt <= nameCollisionRetries; attempt++ {
		storageName, err := s.names.Generate(ext)
		if err != nil {
			return "", 0, apperrors.NewAppError(apperrors.ErrStore, "failed to generate storage name", err)
		}

		size, err := s.store.Commit(ctx, scratchPath, storageName)
		if err == nil {
			return storageName, size, nil
		}
		if errors.Is(err, storage.ErrExists) {
			s.logger.Warn("Storage name collision, regenerating",
				zap.String("storage_name", storageName),
				zap.Int("attempt", attempt+1))
			continue
		}
		return "", 0, apperrors.NewAppError(apperrors.ErrStore, "failed to store attachment bytes", err)
	}
	return "", 0, apperrors.NewRetryable(apperrors.ErrStore, "failed to store attachment bytes", storage.ErrExists)
}
