package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Runs   *handlers.RunsHandler
	Visits *handlers.VisitsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	run := app.Group("/run")
	run.Post("/close-ticket", cfg.Runs.CloseTicket)
	run.Post("/close-tickets/batch", cfg.Runs.CloseBatch)
	run.Post("/visit", cfg.Visits.Create)
}
