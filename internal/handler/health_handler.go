package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ideascope-api/internal/config"
	"github.com/noah-isme/ideascope-api/internal/service"
	"github.com/noah-isme/ideascope-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Provider    string    `json:"provider"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Provider:    cfg.AIProvider,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

// BackendHealthCheck probes the generation backend and answers 503 when it is down.
func BackendHealthCheck(evaluations service.EvaluationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := evaluations.BackendStatus(c.UserContext())
		if !status.Available {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Data:    status,
				Message: "evaluation backend unavailable",
			})
		}

		return utils.SendSuccess(c, "evaluation backend available", status)
	}
}
