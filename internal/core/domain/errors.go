package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTaskNotFound       = errors.New("task not found")

	// ErrIdempotencyInProgress: an earlier request with the same
	// Idempotency-Key has not finished creating its task.
	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is still in progress")
)

// ErrUnauthenticated is the single externally visible class for every
// failure on the verification and resolution path. Callers render it as a
// bare 401 regardless of which specific error below caused it.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	// ErrMalformedHeader: Authorization header missing or not "Bearer <token>".
	ErrMalformedHeader = fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	// ErrVerification: bad signature, expired or structurally invalid token.
	ErrVerification = fmt.Errorf("%w: token verification failed", ErrUnauthenticated)
	// ErrInvalidCredential: the resolver could not extract a subject.
	ErrInvalidCredential = fmt.Errorf("%w: invalid credential", ErrUnauthenticated)
	// ErrIdentityNotFound: verified subject has no identity record.
	ErrIdentityNotFound = fmt.Errorf("%w: identity not found", ErrUnauthenticated)
	// ErrIdentityUnavailable: the identity service timed out or failed.
	ErrIdentityUnavailable = fmt.Errorf("%w: identity service unavailable", ErrUnauthenticated)
)
