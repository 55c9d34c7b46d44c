package middleware

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhub/platform/internal/core/domain"
	"github.com/taskhub/platform/internal/pkg/metrics"
)

// CredentialVerifier is satisfied by *token.Verifier.
type CredentialVerifier interface {
	Verify(header string) (domain.Principal, error)
}

// Decision is the terminal state of the edge filter for one request.
type Decision int

const (
	// Allowlisted requests bypass verification entirely.
	Allowlisted Decision = iota
	// Forward requests carried a valid credential.
	Forward
	// Reject requests end with an empty 401.
	Reject
)

func (d Decision) String() string {
	switch d {
	case Allowlisted:
		return "allowlisted"
	case Forward:
		return "forward"
	default:
		return "reject"
	}
}

// Allowlist is a fixed set of path prefixes exempt from verification. A
// prefix matches itself and anything below it ("/actuator" matches
// "/actuator" and "/actuator/health", not "/actuatorx").
type Allowlist []string

// Matches reports whether urlPath, after cleaning, falls under a prefix.
func (a Allowlist) Matches(urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	for _, prefix := range a {
		if clean == prefix || strings.HasPrefix(clean, prefix+"/") {
			return true
		}
	}
	return false
}

// Permits reports whether r may bypass verification. Both the decoded path
// and the path the router dispatches on must fall under a prefix, and the
// request path must be canonical: no dot segments, no encoded separators.
func (a Allowlist) Permits(r *http.Request) bool {
	routed := echo.GetPath(r)
	if !canonical(r.URL.Path, routed) {
		return false
	}
	return a.Matches(r.URL.Path) && a.Matches(routed)
}

func canonical(decoded, routed string) bool {
	lower := strings.ToLower(routed)
	if strings.Contains(lower, "%2f") || strings.Contains(lower, "%5c") || strings.ContainsRune(decoded, '\\') {
		return false
	}
	for _, seg := range strings.Split(decoded, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// EdgeFilter gates every request on a valid bearer credential unless its
// path is allow-listed. It forwards the request untouched on success, so
// downstream services can verify the same credential independently.
type EdgeFilter struct {
	service  string
	verifier CredentialVerifier
	allow    Allowlist
	log      zerolog.Logger
}

func NewEdgeFilter(service string, verifier CredentialVerifier, allow Allowlist, log zerolog.Logger) *EdgeFilter {
	return &EdgeFilter{service: service, verifier: verifier, allow: allow, log: log}
}

// Decide runs INIT -> (ALLOWLISTED | CHECK_AUTH) -> (FORWARD | REJECT) for r.
func (f *EdgeFilter) Decide(r *http.Request) (Decision, error) {
	if f.allow.Permits(r) {
		return Allowlisted, nil
	}
	if _, err := f.verifier.Verify(r.Header.Get(echo.HeaderAuthorization)); err != nil {
		return Reject, err
	}
	return Forward, nil
}

// Middleware applies the filter in front of next.
func (f *EdgeFilter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, err := f.Decide(c.Request())
			metrics.AuthDecisionsTotal.WithLabelValues(f.service, decision.String()).Inc()

			if decision == Reject {
				reason := "verification"
				if errors.Is(err, domain.ErrMalformedHeader) {
					reason = "header"
				}
				f.log.Debug().
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Str("reason", reason).
					Msg("request rejected at edge")
				return c.NoContent(http.StatusUnauthorized)
			}
			return next(c)
		}
	}
}
