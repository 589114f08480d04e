package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskforge/attachment-service/internal/domain/model"
	domainRepo "github.com/taskforge/attachment-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// attachmentRepository implements the AttachmentRepository interface
type attachmentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAttachmentRepository creates a new attachment repository instance
func NewAttachmentRepository(db *gorm.DB, logger *zap.Logger) domainRepo.AttachmentRepository {
	return &attachmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new attachment record.
func (r *attachmentRepository) Create(ctx context.Context, attachment *model.Attachment) error {
	if err := r.db.WithContext(ctx).Create(attachment).Error; err != nil {
		r.logger.Error("Failed to create attachment record",
			zap.String("task_id", attachment.TaskID),
			zap.String("attachment_id", attachment.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create attachment record: %w", err)
	}
	return nil
}

// FindByTaskAndID retrieves an attachment scoped to its owning task. A row
// under a different task is reported as absent, never as forbidden.
func (r *attachmentRepository) FindByTaskAndID(ctx context.Context, taskID string, id uuid.UUID) (*model.Attachment, error) {
	var attachment model.Attachment
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND id = ?", taskID, id).
		First(&attachment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find attachment",
			zap.String("task_id", taskID),
			zap.String("attachment_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find attachment: %w", err)
	}

	return &attachment, nil
}

// ListByTask retrieves all attachments owned by the given task.
func (r *attachmentRepository) ListByTask(ctx context.Context, taskID string) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments for task %s: %w", taskID, err)
	}
	return attachments, nil
}

// Delete removes an attachment record and reports how many rows went.
func (r *attachmentRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&model.Attachment{}, "id = ?", id)
	if result.Error != nil {
		r.logger.Error("Failed to delete attachment record",
			zap.String("attachment_id", id.String()),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to delete attachment record: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// FilterKnownStorageNames returns the subset of names with a persisted record.
func (r *attachmentRepository) FilterKnownStorageNames(ctx context.Context, names []string) (map[string]struct{}, error) {
	known := make(map[string]struct{}, len(names))
	if len(names) == 0 {
		return known, nil
	}

	var found []string
	err := r.db.WithContext(ctx).
		Model(&model.Attachment{}).
		Where("storage_name IN ?", names).
		Pluck("storage_name", &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to filter storage names: %w", err)
	}

	for _, name := range found {
		known[name] = struct{}{}
	}
	return known, nil
}
