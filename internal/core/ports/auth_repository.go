package ports

import (
	"context"

	"github.com/taskhub/platform/internal/core/domain"
)

// AuthRepository defines the interface for identity persistence.
type AuthRepository interface {
	// Create stores user, assigning its numeric ID. Returns
	// domain.ErrUserExists when the username is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
