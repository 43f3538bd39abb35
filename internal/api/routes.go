package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig holds the settings the HTTP layer needs
type ServerConfig struct {
	AllowedOrigins []string
}

// New builds the echo instance with middleware and all routes registered.
func New(cfg ServerConfig, h *Handler, verifier TokenVerifier, reg *prometheus.Registry, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(NewMetrics(reg).Middleware())
	e.Use(RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	Route(e, h, verifier)
	return e
}

// Route registers all available routes
func Route(e *echo.Echo, h *Handler, verifier TokenVerifier) {
	e.GET("/", h.Root)
	e.GET("/healthz", h.Health)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	// Every item route requires a bearer token
	items := api.Group("/items", RequireToken(verifier))
	items.GET("", h.GetTasks)
	items.GET("/:id", h.GetTask)
	items.POST("", h.CreateTask)
	items.PUT("/:id", h.UpdateTask)
	items.DELETE("/:id", h.DeleteTask)
}
