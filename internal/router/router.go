package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ideascope-api/internal/config"
	"github.com/noah-isme/ideascope-api/internal/handler"
	"github.com/noah-isme/ideascope-api/internal/middleware"
	"github.com/noah-isme/ideascope-api/internal/observability"
	"github.com/noah-isme/ideascope-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.EvaluationHandler
	EvaluationService service.EvaluationService
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.EvaluationService != nil {
		api.Get("/health/backend", handler.BackendHealthCheck(deps.EvaluationService))
	}

	if deps.EvaluationHandler != nil {
		limit := middleware.RateLimit("evaluations", cfg.RateLimit, cfg.RateWindow)

		deps.EvaluationHandler.Register(api.Group("/evaluations", limit))

		// Path served by the first frontend release.
		deps.EvaluationHandler.RegisterLegacy(app, limit)
	}
}
