package server

import (
	"log"

	"rag-chat-orchestrator/internal/bootstrap"
	"rag-chat-orchestrator/internal/config"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
)

// Server exposes the operational HTTP surface. The worker itself speaks only
// the broker; HTTP carries liveness and readiness probes.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: cfg.App.Environment == "production",
	})

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Health server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/readyz", func(ctx *fiber.Ctx) error {
		// Subscriptions are registered before the server starts, so a live
		// process is a ready process.
		return ctx.JSON(fiber.Map{"status": "ready"})
	})
}
