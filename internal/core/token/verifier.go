package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskhub/platform/internal/core/domain"
)

// BearerPrefix is the only accepted Authorization scheme, matched exactly.
const BearerPrefix = "Bearer "

// BearerToken extracts the token from an Authorization header value of the
// exact form "Bearer <token>".
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	raw := header[len(BearerPrefix):]
	if raw == "" {
		return "", false
	}
	return raw, true
}

// Verifier turns an Authorization header value into a Principal.
type Verifier struct {
	codec *Codec
	clock func() time.Time
}

// NewVerifier returns a Verifier backed by codec. A nil clock means time.Now.
func NewVerifier(codec *Codec, clock func() time.Time) *Verifier {
	if clock == nil {
		clock = time.Now
	}
	return &Verifier{codec: codec, clock: clock}
}

// Verify accepts header only when it carries a valid bearer credential.
// Every rejection matches domain.ErrUnauthenticated; a missing or
// non-Bearer header additionally matches domain.ErrMalformedHeader and a
// rejected token matches domain.ErrVerification.
func (v *Verifier) Verify(header string) (domain.Principal, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return domain.Principal{}, domain.ErrMalformedHeader
	}

	claims, err := v.codec.Decode(raw, v.clock())
	if err != nil {
		return domain.Principal{}, fmt.Errorf("verify: %w", err)
	}
	return domain.Principal{Subject: claims.Subject}, nil
}
