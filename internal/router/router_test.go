package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ideascope-api/internal/config"
	"github.com/noah-isme/ideascope-api/internal/dto"
	"github.com/noah-isme/ideascope-api/internal/handler"
	"github.com/noah-isme/ideascope-api/internal/router"
	"github.com/noah-isme/ideascope-api/pkg/ai"
)

type stubEvaluationService struct{}

func (stubEvaluationService) Evaluate(context.Context, dto.StartupIdeaRequest) (dto.EvaluationResponse, error) {
	return dto.EvaluationResponse{Evaluation: ai.FallbackEvaluation(), Strategy: string(ai.StrategyDirect)}, nil
}

func (stubEvaluationService) BackendStatus(context.Context) dto.BackendStatusResponse {
	return dto.BackendStatusResponse{Available: true, Provider: "openai"}
}

func newRouterApp(rateLimit int) *fiber.App {
	cfg := config.Config{AppName: "IdeaScope API", RateLimit: rateLimit, RateWindow: time.Minute}
	svc := stubEvaluationService{}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: handler.NewEvaluationHandler(svc, zerolog.Nop()),
		EvaluationService: svc,
	})
	return app
}

func TestRouterRegistersRoutes(t *testing.T) {
	app := newRouterApp(10)

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/health", ""},
		{http.MethodGet, "/api/v1/health/backend", ""},
		{http.MethodGet, "/metrics", ""},
		{http.MethodPost, "/api/v1/evaluations", `{"title":"a","problem":"b","solution":"c","audience":"d","businessModel":"e"}`},
		{http.MethodPost, "/validate", `{"title":"a","problem":"b","solution":"c","audience":"d","businessModel":"e"}`},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, tc.path)
	}
}

func TestRouterLimitsEvaluationRoutes(t *testing.T) {
	app := newRouterApp(1)
	body := `{"title":"a","problem":"b","solution":"c","audience":"d","businessModel":"e"}`

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusOK, send("/validate"))
	require.Equal(t, fiber.StatusTooManyRequests, send("/validate"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
