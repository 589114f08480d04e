package model

import (
	"time"

	"github.com/google/uuid"
)

// Attachment represents one stored file bound to a task. Records are created
// only after the bytes are durable and are never mutated afterwards.
//
// DisplayName is the sanitized, user-originated name; it is shown to users
// and used as the download filename but never to build a filesystem path.
// StorageName is the opaque, server-generated name under which the bytes
// physically live; it never leaves the server.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID      string    `gorm:"type:varchar(21);not null;index" json:"task_id"`
	DisplayName string    `gorm:"type:varchar(255);not null" json:"display_name"`
	StorageName string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	CreatedAt   time.Time `gorm:"default:now()" json:"created_at"`

	// Relations
	Task *Task `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Attachment) TableName() string {
	return "attachments"
}
