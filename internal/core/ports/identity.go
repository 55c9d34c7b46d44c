package ports

import (
	"context"

	"github.com/taskhub/platform/internal/core/domain"
)

// IdentityLookup queries the identity service for a user by username.
// authorization is the caller's Authorization header, forwarded as-is.
//
// Implementations return domain.ErrUserNotFound when the identity service
// reports no such user; any other error is treated as an infrastructure
// fault.
type IdentityLookup interface {
	FindByUsername(ctx context.Context, username, authorization string) (*domain.User, error)
}

// IdentityResolver maps an Authorization header to a resolved Principal.
type IdentityResolver interface {
	Resolve(ctx context.Context, authorization string) (domain.Principal, error)
}
