package repository

import (
	"context"
	"fmt"

	"github.com/taskforge/attachment-service/internal/domain/model"
	domainRepo "github.com/taskforge/attachment-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// taskRepository implements the TaskRepository interface
type taskRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository instance
func NewTaskRepository(db *gorm.DB, logger *zap.Logger) domainRepo.TaskRepository {
	return &taskRepository{
		db:     db,
		logger: logger,
	}
}

// Exists reports whether a task with the given id is present.
func (r *taskRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to check task existence",
			zap.String("task_id", id),
			zap.Error(err))
		return false, fmt.Errorf("failed to check task existence: %w", err)
	}
	return count > 0, nil
}
