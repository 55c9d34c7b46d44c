package ports

import (
	"context"

	"github.com/taskhub/platform/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	// Login returns a signed credential whose subject is username.
	Login(ctx context.Context, username, password string) (string, error)
}

// UserService exposes identity records to authenticated callers.
type UserService interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
