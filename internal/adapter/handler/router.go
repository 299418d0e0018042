package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/mai-recap/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/metrics"
	"github.com/johnquangdev/mai-recap/pkg/config"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	authHandler    *Auth
	meetingHandler *Meeting
	toolsHandler   *Tools
	sessions       middleware.SessionValidator
	metrics        *metrics.Metrics
	checks         map[string]HealthCheck
}

// RouterDeps groups what the router mounts
type RouterDeps struct {
	Auth     *Auth
	Meetings *Meeting
	Tools    *Tools
	Sessions middleware.SessionValidator
	Metrics  *metrics.Metrics
	Checks   map[string]HealthCheck
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, deps RouterDeps) *Router {
	return &Router{
		cfg:            cfg,
		authHandler:    deps.Auth,
		meetingHandler: deps.Meetings,
		toolsHandler:   deps.Tools,
		sessions:       deps.Sessions,
		metrics:        deps.Metrics,
		checks:         deps.Checks,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	if rt.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(rt.metrics.Handler()))
	}

	v1 := e.Group("/v1")
	requireSession := middleware.EchoAuth(rt.sessions)

	rt.setupAuthRoutes(v1, requireSession)
	rt.setupMeetingRoutes(v1.Group("/meetings", requireSession))
	rt.setupToolRoutes(v1, requireSession)
}

// setupAuthRoutes configures authentication routes
func (rt *Router) setupAuthRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	authGroup := g.Group("/auth")

	if rt.authHandler == nil {
		authGroup.Any("/*", rt.notImplemented)
		return
	}
	authGroup.POST("/login", rt.authHandler.Login)
	authGroup.POST("/logout", rt.authHandler.Logout)
	authGroup.GET("/me", rt.authHandler.Me, requireSession)
}

// setupMeetingRoutes configures the meeting workflow routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	h := rt.meetingHandler
	if h == nil {
		g.Any("*", rt.notImplemented)
		return
	}

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)

	g.POST("/:id/audio", h.UploadAudio)
	g.POST("/:id/transcribe", h.Transcribe)
	g.PUT("/:id/transcript", h.UpdateTranscript)

	g.GET("/:id/speakers", h.Speakers)
	g.POST("/:id/speakers/rename", h.RenameSpeakers)

	g.POST("/:id/summarise", h.Summarise)
	g.GET("/:id/minutes", h.Minutes)
	g.GET("/:id/export", h.Export)

	g.POST("/:id/chat", h.Ask)
	g.GET("/:id/chat", h.ChatHistory)
}

// setupToolRoutes configures the stateless renderer and normalizer routes
func (rt *Router) setupToolRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	h := rt.toolsHandler
	if h == nil {
		return
	}
	g.POST("/minutes/render", h.RenderMinutes, requireSession)
	g.POST("/speakers/detect", h.DetectSpeakers, requireSession)
	g.POST("/speakers/rename", h.RenameSpeakers, requireSession)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not yet implemented",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck reports the status of every registered dependency
func (rt *Router) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(rt.checks))
	for name, check := range rt.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	env := ""
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(status, map[string]interface{}{
		"status":       overall,
		"environment":  env,
		"dependencies": deps,
	})
}
