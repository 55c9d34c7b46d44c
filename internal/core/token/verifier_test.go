package token

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/taskhub/platform/internal/core/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestVerifier_AcceptsBearerToken(t *testing.T) {
	c := mustCodec(t, "s1")
	raw, _ := c.Encode("alice", issuedAt)
	v := NewVerifier(c, fixedClock(issuedAt.Add(time.Minute)))

	p, err := v.Verify("Bearer " + raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if p.Subject != "alice" {
		t.Fatalf("expected subject alice, got %q", p.Subject)
	}
	if p.Resolved() {
		t.Fatalf("verifier must not set a numeric identity")
	}
}

func TestVerifier_RejectsWithoutPanicking(t *testing.T) {
	c := mustCodec(t, "s1")
	raw, _ := c.Encode("alice", issuedAt)
	v := NewVerifier(c, fixedClock(issuedAt))

	cases := []struct {
		name   string
		header string
		want   error
	}{
		{"empty", "", domain.ErrMalformedHeader},
		{"basic", "Basic xyz", domain.ErrMalformedHeader},
		{"lowercase_scheme", "bearer " + raw, domain.ErrMalformedHeader},
		{"no_space", "Bearer" + raw, domain.ErrMalformedHeader},
		{"scheme_only", "Bearer ", domain.ErrMalformedHeader},
		{"tampered", "Bearer " + raw + "x", domain.ErrVerification},
		{"double_space", "Bearer  " + raw, domain.ErrVerification},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.header)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated class, got %v", err)
			}
		})
	}
}

func TestVerifier_RejectsExpired(t *testing.T) {
	c := mustCodec(t, "s1")
	raw, _ := c.Encode("alice", issuedAt)
	v := NewVerifier(c, fixedClock(issuedAt.Add(TTL)))

	if _, err := v.Verify("Bearer " + raw); !errors.Is(err, domain.ErrVerification) {
		t.Fatalf("expected ErrVerification, got %v", err)
	}
}

func TestVerifier_ConcurrentUse(t *testing.T) {
	c := mustCodec(t, "s1")
	v := NewVerifier(c, fixedClock(issuedAt))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := string(rune('a' + i%26))
			raw, err := c.Encode(subject, issuedAt)
			if err != nil {
				t.Errorf("Encode: %v", err)
				return
			}
			p, err := v.Verify("Bearer " + raw)
			if err != nil || p.Subject != subject {
				t.Errorf("Verify(%s): %+v %v", subject, p, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestBearerToken(t *testing.T) {
	if tok, ok := BearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("expected abc, got %q %v", tok, ok)
	}
	if _, ok := BearerToken("Token abc"); ok {
		t.Fatalf("expected non-bearer scheme to be rejected")
	}
}
