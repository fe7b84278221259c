package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/blocpool/payoutd/internal/config"
	"github.com/blocpool/payoutd/internal/payout"
)

// Deps are the payout components the ops endpoints report on and control.
type Deps struct {
	Cfg        config.Config
	Breaker    *payout.Breaker
	Serializer *payout.Serializer
	Watermark  *payout.Watermark
	Logger     *slog.Logger
}

// Server wraps the Fiber application exposing the operator surface.
type Server struct {
	app  *fiber.App
	deps Deps
}

// New instantiates the ops HTTP server and wires its routes.
func New(deps Deps) *Server {
	app := fiber.New(fiber.Config{
		AppName:      deps.Cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	s := &Server{app: app, deps: deps}

	app.Get("/healthz", s.health)
	app.Get("/payout/status", s.status)
	app.Post("/payout/breaker/reset", s.resetBreaker)

	return s
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// status reports the breaker state, the payment lane depth, and the last
// completed payment cycle.
func (s *Server) status(c *fiber.Ctx) error {
	var lastCycle int64
	if s.deps.Watermark != nil {
		ts, err := s.deps.Watermark.LastCycle(c.Context())
		if err != nil {
			s.deps.Logger.Warn("last cycle lookup failed", "error", err)
		} else {
			lastCycle = ts
		}
	}
	return c.JSON(fiber.Map{
		"stopped":     s.deps.Breaker.Stopped(),
		"stop_reason": s.deps.Breaker.Reason(),
		"queue_depth": s.deps.Serializer.Depth(),
		"last_cycle":  lastCycle,
	})
}

// resetBreaker re-arms a tripped breaker. Queued work discarded while stopped
// is not replayed; the next payout round re-plans from the ledger.
func (s *Server) resetBreaker(c *fiber.Ctx) error {
	if !s.deps.Breaker.Stopped() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "breaker is not tripped"})
	}
	reason := s.deps.Breaker.Reason()
	s.deps.Breaker.Reset()
	s.deps.Logger.Warn("breaker reset by operator", "previous_reason", reason)
	return c.JSON(fiber.Map{"status": "armed"})
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.deps.Cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
