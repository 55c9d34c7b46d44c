package ports

import (
	"context"

	"github.com/taskhub/platform/internal/core/domain"
)

// TaskRepository defines persistence operations for tasks. Every read and
// write is filtered by the owning user ID.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id, userID int64) (*domain.Task, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) (*domain.Task, error)
	Delete(ctx context.Context, id, userID int64) error
}

// IdempotencyStore remembers which task a user created under a given
// Idempotency-Key. A key is reserved before the task is written, so only one
// of several concurrent requests carrying it creates anything.
type IdempotencyStore interface {
	// Reserve claims key. When it is already held, reserved is false and
	// taskID is the completed task, or 0 while the holder is still running.
	Reserve(ctx context.Context, userID int64, key string) (taskID int64, reserved bool, err error)
	// Complete records the task created under a reserved key.
	Complete(ctx context.Context, userID int64, key string, taskID int64) error
	// Release drops a reservation whose create failed.
	Release(ctx context.Context, userID int64, key string) error
}
