// Package http provides the HTTP API for designd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/designd/internal/chatlog"
	"github.com/fyrsmithlabs/designd/internal/orchestrator"
	"github.com/fyrsmithlabs/designd/internal/registry"
	"github.com/fyrsmithlabs/designd/internal/toolset"
)

const (
	// SessionCookie identifies a caller across requests so their chat
	// log accumulates under one session.
	SessionCookie = "designd_session"

	sessionContextKey = "designd.session_id"
)

// Runner executes one orchestration run. Satisfied by orchestrator.Engine.
type Runner interface {
	Run(ctx context.Context, input string, maxIterations int) (*orchestrator.Result, error)
}

// Server provides HTTP endpoints for designd.
type Server struct {
	echo    *echo.Echo
	runner  Runner
	roles   *registry.Registry
	chatLog *chatlog.Store
	logSink *chatlog.FileSink
	logger  *zap.Logger
	config  *Config

	// MaxIterations is the improvement budget applied when a run request
	// does not carry its own.
	maxIterations int
}

// Config holds HTTP server configuration.
type Config struct {
	Host          string
	Port          int
	MaxIterations int

	// Toolset is the optional external tool endpoint, reported by the
	// health check when configured.
	Toolset *toolset.Toolset
}

// NewServer creates a new HTTP server.
func NewServer(runner Runner, roles *registry.Registry, store *chatlog.Store, sink *chatlog.FileSink, logger *zap.Logger, cfg *Config) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if roles == nil {
		return nil, fmt.Errorf("role registry cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("chat log store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:          "localhost",
			Port:          8080,
			MaxIterations: 1,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(sessionMiddleware)
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:          e,
		runner:        runner,
		roles:         roles,
		chatLog:       store,
		logSink:       sink,
		logger:        logger,
		config:        cfg,
		maxIterations: cfg.MaxIterations,
	}

	s.registerRoutes()

	return s, nil
}

// sessionMiddleware assigns a session cookie on first contact and makes
// the session ID available to handlers.
func sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			cookie = &http.Cookie{
				Name:     SessionCookie,
				Value:    uuid.NewString(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			}
			c.SetCookie(cookie)
		}
		c.Set(sessionContextKey, cookie.Value)
		return next(c)
	}
}

// sessionID returns the session assigned by sessionMiddleware.
func sessionID(c echo.Context) string {
	if id, ok := c.Get(sessionContextKey).(string); ok {
		return id
	}
	return ""
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/runs", s.handleRun)
	v1.GET("/roles", s.handleRoles)
	v1.GET("/sessions/:id/log", s.handleSessionLog)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if s.config.Toolset != nil {
		resp.Toolset = s.config.Toolset.URL()
	}
	return c.JSON(http.StatusOK, resp)
}

// handleRun executes one orchestration run and records the exchange in
// the caller's session chat log.
func (s *Server) handleRun(c echo.Context) error {
	var req RunRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid run request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Input == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "input field is required")
	}

	maxIterations := s.maxIterations
	if req.MaxIterations != nil {
		maxIterations = *req.MaxIterations
	}
	if maxIterations < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "max_iterations must not be negative")
	}

	session := sessionID(c)
	s.record(session, "user", req.Input)

	result, err := s.runner.Run(c.Request().Context(), req.Input, maxIterations)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return echo.NewHTTPError(http.StatusRequestTimeout, "run cancelled")
		}
		s.logger.Error("run failed", zap.Error(err), zap.String("session_id", session))
		return echo.NewHTTPError(http.StatusInternalServerError, "run failed")
	}

	// Record the final draft of each stage in pipeline order, then the
	// evaluator's raw output.
	for _, name := range s.roles.Pipeline() {
		if output, ok := result.State[name]; ok {
			s.record(session, name, output)
		}
	}
	evaluator := s.roles.Evaluator()
	if raw, ok := result.State[evaluator]; ok {
		s.record(session, evaluator, raw)
	}

	return c.JSON(http.StatusOK, RunResponse{
		SessionID:  session,
		State:      result.State,
		Verdict:    result.Verdict,
		Iterations: result.Iterations,
	})
}

// handleRoles lists the configured roles and pipeline layout.
func (s *Server) handleRoles(c echo.Context) error {
	return c.JSON(http.StatusOK, RolesResponse{
		Pipeline:        s.roles.Pipeline(),
		ImprovementFlow: s.roles.ImprovementFlow(),
		Evaluator:       s.roles.Evaluator(),
		Roles:           s.roles.Roles(),
	})
}

// handleSessionLog returns a session's chat log: the live window plus
// any entries already spilled to disk. Only the session bound to the
// caller's cookie can be read, so logs are not enumerable by guessing
// IDs. A mismatch answers 404 rather than 403 to avoid confirming that
// a session exists.
func (s *Server) handleSessionLog(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}
	if err := chatlog.ValidateSessionID(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	if id != sessionID(c) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	resp := SessionLogResponse{
		SessionID: id,
		Entries:   s.chatLog.Entries(id),
	}

	if s.logSink != nil {
		archived, err := s.logSink.Read(id)
		if err != nil {
			s.logger.Error("reading archived chat log failed", zap.Error(err), zap.String("session_id", id))
			return echo.NewHTTPError(http.StatusInternalServerError, "reading archived log failed")
		}
		resp.Archived = archived
	}

	if len(resp.Entries) == 0 && resp.Archived == "" {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) record(session, sender, text string) {
	if err := s.chatLog.Append(session, sender, text); err != nil {
		s.logger.Warn("recording chat entry failed",
			zap.String("session_id", session),
			zap.String("sender", sender),
			zap.Error(err))
	}
}

// Echo exposes the underlying router, used to mount extra handlers such
// as the Prometheus metrics endpoint.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
