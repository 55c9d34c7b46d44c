package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhub/platform/internal/core/domain"
	"github.com/taskhub/platform/internal/core/token"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubLookup struct {
	users   map[string]int64
	err     error
	block   bool
	calls   int
	gotAuth string
}

func (l *stubLookup) FindByUsername(ctx context.Context, username, authorization string) (*domain.User, error) {
	l.calls++
	l.gotAuth = authorization
	if l.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if l.err != nil {
		return nil, l.err
	}
	id, ok := l.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{ID: id, Username: username}, nil
}

func newTestResolver(t *testing.T, lookup *stubLookup, timeout time.Duration) (*IdentityResolver, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec("secret")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	r := NewIdentityResolver(codec, lookup, timeout, zerolog.Nop())
	r.clock = func() time.Time { return testNow.Add(time.Minute) }
	return r, codec
}

func bearer(t *testing.T, codec *token.Codec, subject string) string {
	t.Helper()
	raw, err := codec.Encode(subject, testNow)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return "Bearer " + raw
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestIdentityResolver_Resolve_HappyPath(t *testing.T) {
	lookup := &stubLookup{users: map[string]int64{"alice": 42}}
	r, codec := newTestResolver(t, lookup, time.Second)
	header := bearer(t, codec, "alice")

	p, err := r.Resolve(context.Background(), header)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.UserID != 42 || p.Subject != "alice" {
		t.Fatalf("unexpected principal %+v", p)
	}
	if lookup.gotAuth != header {
		t.Fatalf("expected authorization to be forwarded to the identity service")
	}
}

func TestIdentityResolver_Resolve_InvalidCredential(t *testing.T) {
	lookup := &stubLookup{users: map[string]int64{"alice": 42}}
	r, codec := newTestResolver(t, lookup, time.Second)

	other, _ := token.NewCodec("other-secret")
	forged, _ := other.Encode("alice", testNow)

	for name, header := range map[string]string{
		"missing":   "",
		"basic":     "Basic xyz",
		"tampered":  bearer(t, codec, "alice") + "x",
		"forged":    "Bearer " + forged,
		"no_bearer": forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), header)
			if !errors.Is(err, domain.ErrInvalidCredential) {
				t.Fatalf("expected ErrInvalidCredential, got %v", err)
			}
		})
	}
	if lookup.calls != 0 {
		t.Fatalf("identity service must not be called for invalid credentials, got %d calls", lookup.calls)
	}
}

func TestIdentityResolver_Resolve_Expired(t *testing.T) {
	lookup := &stubLookup{users: map[string]int64{"alice": 42}}
	r, codec := newTestResolver(t, lookup, time.Second)
	r.clock = func() time.Time { return testNow.Add(token.TTL) }

	if _, err := r.Resolve(context.Background(), bearer(t, codec, "alice")); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestIdentityResolver_Resolve_NotFoundIsSameClassAsBadSignature(t *testing.T) {
	lookup := &stubLookup{users: map[string]int64{}}
	r, codec := newTestResolver(t, lookup, time.Second)

	_, notFound := r.Resolve(context.Background(), bearer(t, codec, "ghost"))
	_, badSig := r.Resolve(context.Background(), bearer(t, codec, "ghost")+"x")

	if !errors.Is(notFound, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", notFound)
	}
	if !errors.Is(notFound, domain.ErrUnauthenticated) || !errors.Is(badSig, domain.ErrUnauthenticated) {
		t.Fatalf("both failures must share the unauthenticated class: %v / %v", notFound, badSig)
	}
}

func TestIdentityResolver_Resolve_LookupFailure(t *testing.T) {
	lookup := &stubLookup{err: errors.New("connection refused")}
	r, codec := newTestResolver(t, lookup, time.Second)

	_, err := r.Resolve(context.Background(), bearer(t, codec, "alice"))
	if !errors.Is(err, domain.ErrIdentityUnavailable) || !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
	if lookup.calls != 1 {
		t.Fatalf("expected exactly one lookup (no retries), got %d", lookup.calls)
	}
}

func TestIdentityResolver_Resolve_Timeout(t *testing.T) {
	lookup := &stubLookup{block: true}
	r, codec := newTestResolver(t, lookup, 20*time.Millisecond)

	start := time.Now()
	_, err := r.Resolve(context.Background(), bearer(t, codec, "alice"))
	if !errors.Is(err, domain.ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("lookup was not bounded by the timeout")
	}
}

func TestIdentityResolver_Resolve_CallerCancellation(t *testing.T) {
	lookup := &stubLookup{block: true}
	r, codec := newTestResolver(t, lookup, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := r.Resolve(ctx, bearer(t, codec, "alice")); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated on cancellation, got %v", err)
	}
}

func TestIdentityResolver_Resolve_ZeroIDIsUnusable(t *testing.T) {
	lookup := &stubLookup{users: map[string]int64{"alice": 0}}
	r, codec := newTestResolver(t, lookup, time.Second)

	if _, err := r.Resolve(context.Background(), bearer(t, codec, "alice")); !errors.Is(err, domain.ErrIdentityUnavailable) {
		t.Fatalf("expected ErrIdentityUnavailable, got %v", err)
	}
}

func TestNewIdentityResolver_DefaultTimeout(t *testing.T) {
	r := NewIdentityResolver(nil, nil, 0, zerolog.Nop())
	if r.timeout != DefaultLookupTimeout {
		t.Fatalf("expected default timeout, got %s", r.timeout)
	}
}
