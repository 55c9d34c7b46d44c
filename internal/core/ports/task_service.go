package ports

import (
	"context"

	"github.com/taskhub/platform/internal/core/domain"
)

// TaskInput is the DTO passed from the transport layer to TaskService.
// It carries no owner; ownership comes from the Principal.
type TaskInput struct {
	Title       string
	Description string
	Completed   bool
}

// CreateTaskResult is returned by TaskService.Create.
type CreateTaskResult struct {
	Task *domain.Task
	// Replayed is true when the Idempotency-Key matched an earlier create.
	Replayed bool
}

// TaskService performs task operations on behalf of a resolved principal.
type TaskService interface {
	List(ctx context.Context, p domain.Principal) ([]*domain.Task, error)
	Get(ctx context.Context, p domain.Principal, id int64) (*domain.Task, error)
	Create(ctx context.Context, p domain.Principal, in TaskInput, idempotencyKey string) (*CreateTaskResult, error)
	Update(ctx context.Context, p domain.Principal, id int64, in TaskInput) (*domain.Task, error)
	Delete(ctx context.Context, p domain.Principal, id int64) error
}
