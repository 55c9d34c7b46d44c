package api

import (
	"net/url"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/taskhub/platform/internal/api/handler"
	"github.com/taskhub/platform/internal/api/middleware"
)

// GatewayDeps wires the edge gateway.
type GatewayDeps struct {
	Verifier     middleware.CredentialVerifier
	IdentityURLs []*url.URL
	TaskURLs     []*url.URL
	Log          zerolog.Logger
	Registerer   prometheus.Registerer
}

// NewGatewayRouter builds the public entry point. Requests pass the edge
// filter first and are then proxied, Authorization header included, to:
//
//	/api/auth/*   -> identity  /api/auth/*
//	/api/users*   -> identity  /users*
//	/api/tasks*   -> tasks     /tasks*
func NewGatewayRouter(d GatewayDeps) *echo.Echo {
	e := newServer("gateway", d.Log, d.Registerer)
	e.Use(middleware.NewEdgeFilter("gateway", d.Verifier, GatewayAllowlist, d.Log).Middleware())
	mountActuator(e, handler.NewHealthHandler())

	mountProxy(e, "/api/auth", newProxy(d.IdentityURLs, nil))
	mountProxy(e, "/api/users", newProxy(d.IdentityURLs, map[string]string{
		"/api/users":   "/users",
		"/api/users/*": "/users/$1",
	}))
	mountProxy(e, "/api/tasks", newProxy(d.TaskURLs, map[string]string{
		"/api/tasks":   "/tasks",
		"/api/tasks/*": "/tasks/$1",
	}))

	return e
}

func newProxy(targets []*url.URL, rewrite map[string]string) echo.MiddlewareFunc {
	pts := make([]*echomiddleware.ProxyTarget, 0, len(targets))
	for _, u := range targets {
		pts = append(pts, &echomiddleware.ProxyTarget{Name: u.Host, URL: u})
	}
	return echomiddleware.ProxyWithConfig(echomiddleware.ProxyConfig{
		Balancer: echomiddleware.NewRoundRobinBalancer(pts),
		Rewrite:  rewrite,
	})
}

// mountProxy routes prefix and everything below it through proxy. The
// proxy middleware never calls the route handler.
func mountProxy(e *echo.Echo, prefix string, proxy echo.MiddlewareFunc) {
	e.Any(prefix, echo.NotFoundHandler, proxy)
	e.Any(prefix+"/*", echo.NotFoundHandler, proxy)
}
