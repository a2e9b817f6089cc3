package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/courierdesk/ops-dashboard/internal/api/handler"
	"github.com/courierdesk/ops-dashboard/internal/api/middleware"
	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

// Dependencies are the services and probes the router wires into handlers.
type Dependencies struct {
	Auth       ports.AuthService
	Deliveries ports.DeliveryService
	AuditQuery ports.AuditQueryService
	Users      ports.UserDirectory
	Recorder   ports.AuditRecorder
	Probes     map[string]handler.PingFunc
	Cookie     handler.CookieConfig
	Location   *time.Location
	Log        zerolog.Logger

	// IPExtractor derives the client address. Nil means the socket peer.
	IPExtractor echo.IPExtractor
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.IPExtractor = deps.IPExtractor
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "opsdesk",
		Registerer: registerer,
	}))
	e.Use(middleware.Session(deps.Auth, deps.Cookie.Name))

	authenticated := middleware.Require(domain.AnyAuthenticated())
	adminOnly := middleware.Require(domain.MinimumRole(domain.RoleAdmin))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Cookie)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authenticated)
	e.GET("/auth/me", authHandler.Me, authenticated)

	v1 := e.Group("/v1")

	// --- Deliveries ---
	deliveryHandler := handler.NewDeliveryHandler(deps.Deliveries, deps.Location)
	deliveries := v1.Group("/deliveries", authenticated)
	deliveries.POST("", deliveryHandler.Create)
	deliveries.GET("/unassigned", deliveryHandler.ListUnassigned)
	deliveries.GET("/export/:period", deliveryHandler.Export)
	deliveries.GET("/:display_id", deliveryHandler.Get)
	deliveries.PATCH("/:display_id/status", deliveryHandler.UpdateStatus, middleware.Require(domain.StaffOrAdmin))
	deliveries.DELETE("/:display_id", deliveryHandler.Delete, adminOnly)

	// --- Audit browser (admin only) ---
	auditHandler := handler.NewAuditHandler(deps.AuditQuery, deps.Recorder, deps.Location)
	audit := v1.Group("/audit", adminOnly)
	audit.GET("", auditHandler.List)
	audit.GET("/export", auditHandler.Export)

	// --- User management (admin only) ---
	userHandler := handler.NewUserHandler(deps.Users)
	v1.GET("/users", userHandler.List, adminOnly)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Probes)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
