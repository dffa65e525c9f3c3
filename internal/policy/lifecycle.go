package policy

import (
	"time"

	"github.com/cleantrack-dev/cleantrack/internal/models"
)

type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskCompleted TaskState = "completed"
)

// StateOf derives the lifecycle state from the completion pair.
func StateOf(task models.Task) TaskState {
	if task.CompletedAt == nil && task.CompletedByID == nil {
		return TaskPending
	}
	return TaskCompleted
}

// Complete moves a pending task to completed. A task that is already completed
// is left untouched and AlreadyCompleted is returned. Whether userID may
// complete the task is decided by the caller.
func Complete(task *models.Task, userID uint, now time.Time) error {
	if StateOf(*task) != TaskPending {
		return AlreadyCompleted()
	}

	completedBy := userID
	completedAt := now

	task.CompletedByID = &completedBy
	task.CompletedAt = &completedAt

	return nil
}
