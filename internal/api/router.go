package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/freelancehq/freelance-manager/docs"
	"github.com/freelancehq/freelance-manager/internal/api/handler"
	"github.com/freelancehq/freelance-manager/internal/api/middleware"
)

// Deps is everything the router mounts. Probes, when set, registers the
// health endpoints.
type Deps struct {
	Auth      *handler.AuthHandler
	Projects  *handler.ProjectHandler
	Employees *handler.EmployeeHandler
	Revenue   *handler.RevenueHandler
	Dashboard *handler.DashboardHandler
	Streams   *handler.StreamHandler

	Verifier    middleware.TokenVerifier
	AuthLimiter *middleware.RateLimiter
	Probes      func(e *echo.Echo)
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("freelance"))

	// --- Operational endpoints (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if d.Probes != nil {
		d.Probes(e)
	}

	requireSession := middleware.Auth(d.Verifier)
	streamSession := middleware.Auth(d.Verifier, middleware.AllowQueryToken())

	// --- Auth routes ---
	auth := e.Group("/auth")
	if d.AuthLimiter != nil {
		auth.Use(d.AuthLimiter.Middleware())
	}
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login)
	auth.GET("/federated/url", d.Auth.FederatedURL)
	auth.GET("/federated/callback", d.Auth.FederatedCallback)
	auth.POST("/logout", d.Auth.Logout, requireSession)

	// --- Records (bearer token required) ---
	v1 := e.Group("/v1", requireSession)

	v1.GET("/projects", d.Projects.List)
	v1.POST("/projects", d.Projects.Create)
	v1.PATCH("/projects/:id", d.Projects.Update)
	v1.DELETE("/projects/:id", d.Projects.Delete)

	v1.GET("/employees", d.Employees.List)
	v1.POST("/employees", d.Employees.Create)
	v1.PATCH("/employees/:id", d.Employees.Update)
	v1.DELETE("/employees/:id", d.Employees.Delete)

	v1.GET("/revenue", d.Revenue.List)
	v1.POST("/revenue", d.Revenue.Create)

	v1.GET("/dashboard", d.Dashboard.Get)

	// --- Streams (EventSource may pass the token as access_token) ---
	streams := e.Group("/v1", streamSession)
	streams.GET("/dashboard/stream", d.Dashboard.Stream)
	streams.GET("/events", d.Streams.Events)

	return e
}

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
