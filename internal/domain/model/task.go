package model

import "time"

// Task is the entity that owns attachments. Task lifecycle management lives
// in its own service; this model exists so attachments can reference a live
// owner and so the cascade has a foreign key to hang off.
type Task struct {
	ID        string    `gorm:"type:varchar(21);primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}
