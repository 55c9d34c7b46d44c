package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhub/platform/internal/pkg/metrics"
	"github.com/taskhub/platform/internal/core/domain"
	"github.com/taskhub/platform/internal/core/ports"
	"github.com/taskhub/platform/internal/core/token"
)

// DefaultLookupTimeout bounds the call to the identity service when no
// explicit timeout is configured.
const DefaultLookupTimeout = 2 * time.Second

// TokenDecoder verifies credentials. Implemented by *token.Codec.
type TokenDecoder interface {
	Decode(raw string, now time.Time) (token.Claims, error)
}

// IdentityResolver re-verifies the caller's credential and maps its subject
// to a numeric user ID through the identity service.
//
// Every failure is reported as a domain.ErrUnauthenticated variant so
// handlers can answer with a single 401; the log line carries the
// distinction between rejected credentials, unknown users and
// infrastructure faults. No retries are attempted.
type IdentityResolver struct {
	decoder TokenDecoder
	lookup  ports.IdentityLookup
	timeout time.Duration
	clock   func() time.Time
	log     zerolog.Logger
}

// NewIdentityResolver returns a resolver. A non-positive timeout falls back to
// DefaultLookupTimeout.
func NewIdentityResolver(decoder TokenDecoder, lookup ports.IdentityLookup, timeout time.Duration, log zerolog.Logger) *IdentityResolver {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &IdentityResolver{
		decoder: decoder,
		lookup:  lookup,
		timeout: timeout,
		clock:   time.Now,
		log:     log,
	}
}

// Resolve implements ports.IdentityResolver.
func (r *IdentityResolver) Resolve(ctx context.Context, authorization string) (domain.Principal, error) {
	raw, ok := token.BearerToken(authorization)
	if !ok {
		metrics.ResolutionsTotal.WithLabelValues("invalid_credential").Inc()
		r.log.Warn().Str("reason", "header").Msg("identity resolution rejected credential")
		return domain.Principal{}, fmt.Errorf("resolve: %w", domain.ErrInvalidCredential)
	}

	claims, err := r.decoder.Decode(raw, r.clock())
	if err != nil {
		reason := "unknown"
		var ve *token.VerificationError
		if errors.As(err, &ve) {
			reason = string(ve.Reason)
		}
		metrics.ResolutionsTotal.WithLabelValues("invalid_credential").Inc()
		r.log.Warn().Str("reason", reason).Msg("identity resolution rejected credential")
		return domain.Principal{}, fmt.Errorf("resolve: %w", domain.ErrInvalidCredential)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	user, err := r.lookup.FindByUsername(lookupCtx, claims.Subject, authorization)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil && user != nil && user.ID > 0:
		metrics.IdentityLookupDuration.WithLabelValues("ok").Observe(elapsed)
		metrics.ResolutionsTotal.WithLabelValues("ok").Inc()
		return domain.Principal{Subject: claims.Subject, UserID: user.ID}, nil

	case errors.Is(err, domain.ErrUserNotFound):
		metrics.IdentityLookupDuration.WithLabelValues("not_found").Observe(elapsed)
		metrics.ResolutionsTotal.WithLabelValues("not_found").Inc()
		r.log.Warn().Str("subject", claims.Subject).Msg("verified subject has no identity record")
		return domain.Principal{}, fmt.Errorf("resolve: %w", domain.ErrIdentityNotFound)
	}

	metrics.IdentityLookupDuration.WithLabelValues("unavailable").Observe(elapsed)
	metrics.ResolutionsTotal.WithLabelValues("unavailable").Inc()

	if err == nil {
		err = errors.New("identity service returned no usable id")
	}
	if ctx.Err() != nil {
		// The caller went away; not an infrastructure fault.
		r.log.Debug().Err(err).Str("subject", claims.Subject).Msg("identity lookup cancelled")
	} else {
		r.log.Error().Err(err).
			Str("subject", claims.Subject).
			Bool("timeout", errors.Is(err, context.DeadlineExceeded)).
			Dur("timeout_after", r.timeout).
			Msg("identity service lookup failed")
	}
	return domain.Principal{}, fmt.Errorf("resolve: %w", domain.ErrIdentityUnavailable)
}
