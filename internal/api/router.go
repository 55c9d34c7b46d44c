package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskhub/platform/docs"
	"github.com/taskhub/platform/internal/api/handler"
	"github.com/taskhub/platform/internal/api/middleware"
	"github.com/taskhub/platform/internal/core/ports"
)

// Allow-lists per binary. Everything else requires a valid bearer credential.
var (
	GatewayAllowlist  = middleware.Allowlist{"/api/auth", "/actuator"}
	IdentityAllowlist = middleware.Allowlist{"/auth", "/api/auth", "/actuator", "/swagger"}
	TaskAllowlist     = middleware.Allowlist{"/actuator", "/swagger"}
)

// IdentityDeps wires the identity service router.
type IdentityDeps struct {
	Verifier middleware.CredentialVerifier
	Auth     ports.AuthService
	Users    ports.UserService
	Health   []handler.Pinger
	Log      zerolog.Logger
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
}

// NewIdentityRouter builds the identity service: register/login, user
// lookup for peer services, and actuator endpoints.
func NewIdentityRouter(d IdentityDeps) *echo.Echo {
	e := newServer("identity", d.Log, d.Registerer)
	e.Use(middleware.NewEdgeFilter("identity", d.Verifier, IdentityAllowlist, d.Log).Middleware())
	mountActuator(e, handler.NewHealthHandler(d.Health...))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authHandler := handler.NewAuthHandler(d.Auth)
	for _, prefix := range []string{"/auth", "/api/auth"} {
		g := e.Group(prefix)
		g.POST("/register", authHandler.Register)
		g.POST("/login", authHandler.Login)
	}

	userHandler := handler.NewUserHandler(d.Users)
	e.GET("/users", userHandler.List)
	e.GET("/users/:username", userHandler.GetByUsername)
	e.DELETE("/users/:id", userHandler.Delete)

	return e
}

// TaskDeps wires the task service router.
type TaskDeps struct {
	Verifier   middleware.CredentialVerifier
	Tasks      ports.TaskService
	Resolver   ports.IdentityResolver
	Health     []handler.Pinger
	Log        zerolog.Logger
	Registerer prometheus.Registerer
}

// NewTaskRouter builds the task service. The edge filter rejects bad
// credentials early; handlers still resolve the caller's numeric id per
// request.
func NewTaskRouter(d TaskDeps) *echo.Echo {
	e := newServer("tasks", d.Log, d.Registerer)
	e.Use(middleware.NewEdgeFilter("tasks", d.Verifier, TaskAllowlist, d.Log).Middleware())
	mountActuator(e, handler.NewHealthHandler(d.Health...))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	h := handler.NewTaskHandler(d.Tasks, d.Resolver)
	g := e.Group("/tasks")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	return e
}

// newServer returns an echo instance with the middleware every binary shares.
func newServer(service string, log zerolog.Logger, reg prometheus.Registerer) *echo.Echo {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "taskhub",
		Subsystem:  service,
		Registerer: reg,
	}))

	return e
}

func mountActuator(e *echo.Echo, health *handler.HealthHandler) {
	g := e.Group("/actuator")
	g.GET("/health", health.Liveness)
	g.GET("/health/ready", health.Readiness)
	g.GET("/prometheus", echoprometheus.NewHandler())
}

// requestLogger emits one zerolog line per request. Headers are never
// logged, so credentials stay out of the logs.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
