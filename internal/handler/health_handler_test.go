package handler_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideascope-api/internal/config"
	"github.com/noah-isme/ideascope-api/internal/dto"
	"github.com/noah-isme/ideascope-api/internal/handler"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{
		AppName:    "IdeaScope API",
		AppEnv:     "test",
		AIProvider: "openai",
	}

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("failed to execute request: %v", err)
	}

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	err = json.NewDecoder(resp.Body).Decode(&payload)
	assert.NoError(t, err)
	assert.True(t, payload.Success)
	assert.Equal(t, "ok", payload.Data.Status)
	assert.Equal(t, cfg.AppName, payload.Data.Service)
	assert.Equal(t, cfg.AppEnv, payload.Data.Environment)
	assert.Equal(t, "openai", payload.Data.Provider)
	assert.WithinDuration(t, time.Now().UTC(), payload.Data.Timestamp, 2*time.Second)
}

func TestBackendHealthCheck(t *testing.T) {
	cases := map[string]struct {
		status   dto.BackendStatusResponse
		expected int
	}{
		"available":   {status: dto.BackendStatusResponse{Available: true, Provider: "openai"}, expected: fiber.StatusOK},
		"unavailable": {status: dto.BackendStatusResponse{Provider: "openai", Error: "connection refused"}, expected: fiber.StatusServiceUnavailable},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/api/v1/health/backend", handler.BackendHealthCheck(&stubEvaluationService{status: tc.status}))

			resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/health/backend", nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.expected, resp.StatusCode)

			var payload struct {
				Success bool                      `json:"success"`
				Data    dto.BackendStatusResponse `json:"data"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			require.Equal(t, tc.status.Available, payload.Success)
			require.Equal(t, tc.status, payload.Data)
		})
	}
}
