// Package token issues and verifies the bearer credentials shared by the
// gateway, the identity service and the task service.
//
// Credentials are HS512-signed JWTs carrying a subject (username) and an
// expiry. Nothing about a credential is stored server side: every service
// holding the shared secret verifies it from scratch on each request.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskhub/platform/internal/core/domain"
)

// TTL is the fixed validity window of an issued credential.
const TTL = 24 * time.Hour

var signingMethod = jwt.SigningMethodHS512

// ErrEmptySecret is returned by NewCodec when no signing secret is configured.
var ErrEmptySecret = errors.New("token: signing secret is empty")

// Reason classifies a verification failure. It is meant for operator logs
// only and must never reach a client response.
type Reason string

const (
	ReasonMalformed Reason = "malformed"
	ReasonSignature Reason = "signature"
	ReasonExpired   Reason = "expired"
	ReasonClaims    Reason = "claims"
)

// VerificationError is returned by Decode for every rejected token. Its
// message is the same whatever the cause; Reason and the wrapped error carry
// the detail.
type VerificationError struct {
	Reason Reason
	Err    error
}

func (e *VerificationError) Error() string {
	return domain.ErrVerification.Error()
}

func (e *VerificationError) Unwrap() []error {
	return []error{domain.ErrVerification, e.Err}
}

// Claims is the decoded content of a valid credential.
type Claims struct {
	Subject string
	Expiry  time.Time
}

// Codec signs and verifies credentials with a single symmetric secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec returns a Codec that uses secret as raw HMAC key bytes.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Codec{secret: []byte(secret), ttl: TTL}, nil
}

// Encode issues a credential for subject valid from now until now+TTL.
// JWT timestamps have one-second precision, so now is truncated to the
// second; identical inputs yield identical tokens.
func (c *Codec) Encode(subject string, now time.Time) (string, error) {
	now = now.UTC().Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
}

// Decode verifies raw as of now and returns its claims. A token is valid only
// if its HS512 signature matches and now is strictly before its expiry.
func (c *Codec) Decode(raw string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var rc jwt.RegisteredClaims
	tkn, err := parser.ParseWithClaims(raw, &rc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, &VerificationError{Reason: classify(err), Err: err}
	}
	if !tkn.Valid || rc.Subject == "" || rc.ExpiresAt == nil {
		return Claims{}, &VerificationError{Reason: ReasonClaims, Err: jwt.ErrTokenInvalidClaims}
	}

	return Claims{Subject: rc.Subject, Expiry: rc.ExpiresAt.Time}, nil
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	default:
		return ReasonClaims
	}
}
