// Package api provides the thin HTTP adaptation layer over the combat
// engine: request field validation, auto-target convenience defaults, and
// error-code to status mapping. It contains no combat rules.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// HealthCheck reports the readiness of one dependency.
type HealthCheck func(ctx context.Context) error

// Server wires the combat engine into a Fiber application.
type Server struct {
	app    *fiber.App
	engine *combat.Engine
	logger *zap.Logger
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check HealthCheck
}

// NewServer creates the HTTP server and registers all routes.
//
// Precondition: engine and logger must be non-nil.
func NewServer(engine *combat.Engine, logger *zap.Logger, readTimeout, writeTimeout time.Duration) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		DisableStartupMessage: true,
	})
	s := &Server{app: app, engine: engine, logger: logger}

	app.Get("/healthz", s.handleHealth)
	v1 := app.Group("/v1")
	v1.Post("/combat", s.handleStartCombat)
	v1.Get("/combat/:id", s.handleGetSession)
	v1.Post("/combat/:id/actions", s.handleAction)
	v1.Post("/combat/:id/flee", s.handleFlee)

	return s
}

// App returns the underlying Fiber application, used by tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

// AddHealthCheck registers a dependency probe run by the health endpoint.
// Checks must be registered before Listen is called.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks = append(s.checks, namedCheck{name: name, check: check})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	for _, nc := range s.checks {
		if err := nc.check(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("dependency", nc.name), zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"failed": nc.name,
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorBody is the wire shape of every failure response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps engine errors to HTTP statuses. Expected rejections
// (invalid action, insufficient resources) are client errors; only store
// failures become 5xx.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, combat.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(errorBody{
			Code:    "NOT_FOUND",
			Message: "session not found",
		})
	}

	var domainErr *combat.Error
	if !errors.As(err, &domainErr) {
		s.logger.Error("unclassified engine error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
			Code:    "INTERNAL",
			Message: "internal error",
		})
	}

	status := fiber.StatusBadRequest
	switch domainErr.Code {
	case combat.CodeInsufficientResources, combat.CodeAlreadyInCombat:
		status = fiber.StatusConflict
	case combat.CodeCombatTimeout:
		status = fiber.StatusGone
	case combat.CodeStoreUnavailable:
		status = fiber.StatusServiceUnavailable
		s.logger.Error("store unavailable", zap.Error(domainErr))
	}
	return c.Status(status).JSON(errorBody{
		Code:    string(domainErr.Code),
		Message: domainErr.Message,
	})
}
