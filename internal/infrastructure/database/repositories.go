package database

import (
	"github.com/taskforge/attachment-service/internal/adapter/repository"
	domainRepo "github.com/taskforge/attachment-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories bundles the metadata store implementations for injection.
type Repositories struct {
	Attachment domainRepo.AttachmentRepository
	Task       domainRepo.TaskRepository
}

// NewRepositories creates all repository instances over one connection.
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Attachment: repository.NewAttachmentRepository(db, logger),
		Task:       repository.NewTaskRepository(db, logger),
	}
}
