package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskhub/platform/internal/core/domain"
)

var issuedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mustCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	c, err := NewCodec(secret)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestNewCodec_EmptySecret(t *testing.T) {
	if _, err := NewCodec(""); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestCodec_RoundTripWithinWindow(t *testing.T) {
	c := mustCodec(t, "s1")
	raw, err := c.Encode("alice", issuedAt)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	for _, at := range []time.Time{
		issuedAt,
		issuedAt.Add(time.Hour),
		issuedAt.Add(TTL - time.Second),
		issuedAt.Add(TTL - time.Nanosecond),
	} {
		claims, err := c.Decode(raw, at)
		if err != nil {
			t.Fatalf("Decode at %s: %v", at, err)
		}
		if claims.Subject != "alice" {
			t.Fatalf("expected subject alice, got %q", claims.Subject)
		}
		if !claims.Expiry.Equal(issuedAt.Add(TTL)) {
			t.Fatalf("unexpected expiry %s", claims.Expiry)
		}
	}
}

func TestCodec_ExpiryBoundaryIsExact(t *testing.T) {
	c := mustCodec(t, "s1")
	raw, _ := c.Encode("alice", issuedAt)

	for _, at := range []time.Time{issuedAt.Add(TTL), issuedAt.Add(TTL + time.Minute)} {
		_, err := c.Decode(raw, at)
		var ve *VerificationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected VerificationError at %s, got %v", at, err)
		}
		if ve.Reason != ReasonExpired {
			t.Fatalf("expected reason expired, got %s", ve.Reason)
		}
		if !errors.Is(err, domain.ErrVerification) || !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("expected verification class, got %v", err)
		}
	}
}

// Expiry is carried at second precision, so a sub-second issue time loses
// its fraction and the credential expires up to a second early, never late.
func TestCodec_SubSecondIssueTimeTruncates(t *testing.T) {
	c := mustCodec(t, "s1")
	now := issuedAt.Add(500 * time.Millisecond)
	raw, err := c.Encode("alice", now)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	claims, err := c.Decode(raw, now)
	if err != nil {
		t.Fatalf("Decode at issue time: %v", err)
	}
	if !claims.Expiry.Equal(issuedAt.Add(TTL)) {
		t.Fatalf("expected expiry truncated to %s, got %s", issuedAt.Add(TTL), claims.Expiry)
	}
	if _, err := c.Decode(raw, issuedAt.Add(TTL-time.Nanosecond)); err != nil {
		t.Fatalf("Decode just before truncated expiry: %v", err)
	}

	for _, at := range []time.Time{issuedAt.Add(TTL), now.Add(TTL - time.Nanosecond), now.Add(TTL)} {
		_, err := c.Decode(raw, at)
		var ve *VerificationError
		if !errors.As(err, &ve) || ve.Reason != ReasonExpired {
			t.Fatalf("expected expired at %s, got %v", at, err)
		}
	}
}

func TestCodec_Deterministic(t *testing.T) {
	c := mustCodec(t, "s1")
	a, _ := c.Encode("alice", issuedAt)
	b, _ := c.Encode("alice", issuedAt.Add(300*time.Millisecond))
	if a != b {
		t.Fatalf("expected identical tokens for identical inputs within the same second")
	}
}

func TestCodec_CrossSecretRejected(t *testing.T) {
	raw, _ := mustCodec(t, "s2").Encode("alice", issuedAt)

	_, err := mustCodec(t, "s1").Decode(raw, issuedAt)
	var ve *VerificationError
	if !errors.As(err, &ve) || ve.Reason != ReasonSignature {
		t.Fatalf("expected signature failure, got %v", err)
	}
}

func TestCodec_TamperedAndMalformed(t *testing.T) {
	c := mustCodec(t, "s1")
	raw, _ := c.Encode("alice", issuedAt)

	cases := map[string]string{
		"tampered":  raw + "x",
		"truncated": raw[:strings.LastIndex(raw, ".")],
		"garbage":   "not-a-token",
		"empty":     "",
		"two_dots":  "..",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Decode(in, issuedAt); !errors.Is(err, domain.ErrVerification) {
				t.Fatalf("expected ErrVerification, got %v", err)
			}
		})
	}
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s1"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := mustCodec(t, "s1").Decode(raw, issuedAt); !errors.Is(err, domain.ErrVerification) {
		t.Fatalf("expected HS256 token to be rejected, got %v", err)
	}
}

func TestCodec_RequiresExpiryAndSubject(t *testing.T) {
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "alice"}).SignedString([]byte("s1"))
	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}).SignedString([]byte("s1"))

	c := mustCodec(t, "s1")
	for name, raw := range map[string]string{"no_exp": noExp, "no_sub": noSub} {
		if _, err := c.Decode(raw, issuedAt); !errors.Is(err, domain.ErrVerification) {
			t.Fatalf("%s: expected ErrVerification, got %v", name, err)
		}
	}
}

func TestVerificationError_MessageIsUniform(t *testing.T) {
	c := mustCodec(t, "s1")
	raw, _ := c.Encode("alice", issuedAt)

	_, expired := c.Decode(raw, issuedAt.Add(TTL))
	_, forged := mustCodec(t, "other").Decode(raw, issuedAt)
	_, garbage := c.Decode("garbage", issuedAt)

	if expired.Error() != forged.Error() || forged.Error() != garbage.Error() {
		t.Fatalf("messages differ: %q / %q / %q", expired, forged, garbage)
	}
}
