package repository

import "context"

// TaskRepository exposes the slice of the task domain the attachment pipeline
// needs: uploads must reference a live owner, and the cascade needs to know
// the owner exists before enumerating its attachments.
type TaskRepository interface {
	// Exists reports whether a task with the given id is present.
	Exists(ctx context.Context, id string) (bool, error)
}
