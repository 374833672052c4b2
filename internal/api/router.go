package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/hirelane/portal/docs"
	"github.com/hirelane/portal/internal/api/handler"
	"github.com/hirelane/portal/internal/api/middleware"
	"github.com/hirelane/portal/internal/core/domain"
	"github.com/hirelane/portal/internal/core/ports"
)

// RouterDeps is what the portal router needs from main.
type RouterDeps struct {
	Sessions ports.SessionSource
	Session  middleware.SessionConfig
	// Readiness lists the dependencies pinged by /health/ready.
	Readiness map[string]handler.Pinger
	Log       zerolog.Logger
	// Metrics receives the HTTP metrics; nil uses the default registry.
	Metrics *prometheus.Registry
}

// NewRouter builds the portal's Echo instance with every route registered.
//
// @title        Hirelane portal
// @version      1.0
// @description  Session and routing endpoints of the recruitment portal.
// @BasePath     /
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	if deps.Metrics != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "portal",
			Registerer: deps.Metrics,
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Metrics}))
	} else {
		e.Use(echoprometheus.NewMiddleware("portal"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Operational endpoints (no session) ---
	health := handler.NewHealthHandler(deps.Readiness)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	withSession := middleware.Session(deps.Sessions, deps.Session)
	public := middleware.PublicRoute()
	pages := handler.NewPageHandler()
	auth := handler.NewAuthHandler(deps.Log)

	// --- Public surfaces: signed-in users are sent home ---
	e.GET("/", pages.Page("landing"), withSession, public)
	e.GET(middleware.LoginPath, pages.Page("login"), withSession, public)
	e.GET(handler.RegisterPath, pages.Page("register"), withSession, public)

	// --- Auth endpoints ---
	e.POST("/auth/login", auth.Login, withSession)
	e.POST("/auth/register", auth.Register, withSession)
	e.POST("/auth/logout", auth.Logout, withSession)
	e.GET("/auth/session", auth.Session, withSession)

	// --- Role dashboards ---
	for _, role := range []domain.Role{domain.RoleCandidate, domain.RoleRecruiter, domain.RoleClient} {
		prefix := "/" + role.String()
		g := e.Group(prefix, withSession, middleware.ProtectedRoute([]domain.Role{role}, true))
		g.GET("", pages.Page(role.String()))
		g.GET("/*", pages.Page(role.String()))
	}

	return e
}
