package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultProbeTimeout   = 5 * time.Second
	defaultRequestTimeout = 60 * time.Second
)

// OpenAIConfig defines configuration options for an OpenAI-compatible backend
// such as Groq, Ollama's /v1 API or OpenAI itself.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float32
	JSONMode       bool
	ProbeTimeout   time.Duration
	RequestTimeout time.Duration
}

// OpenAIGateway implements Gateway against the chat completion API.
type OpenAIGateway struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
}

// NewOpenAIGateway builds a new gateway using the provided configuration.
func NewOpenAIGateway(cfg OpenAIConfig) (*OpenAIGateway, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIGateway{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/ideascope-api/pkg/ai/openai"),
	}, nil
}

// Provider implements Gateway.
func (g *OpenAIGateway) Provider() string {
	return "openai"
}

// Probe lists the backend's models with a short timeout.
func (g *OpenAIGateway) Probe(parent context.Context) error {
	ctx, span := g.tracer.Start(parent, "openai.probe")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	_, err := g.client.ListModels(ctx)
	backendDuration.WithLabelValues(g.Provider(), "probe").Observe(time.Since(start).Seconds())
	if err != nil {
		return g.fail(span, "probe", err)
	}
	return nil
}

// Generate sends the prompt as a single user message and returns the reply text.
func (g *OpenAIGateway) Generate(parent context.Context, prompt string) (string, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	if g.cfg.JSONMode {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	backendDuration.WithLabelValues(g.Provider(), "generate").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", g.fail(span, "generate", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", g.fail(span, "generate", nil)
	}

	span.SetAttributes(attribute.Int("usage.total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGateway) fail(span trace.Span, operation string, err error) error {
	var gwErr *GatewayError
	if err == nil {
		gwErr = &GatewayError{Provider: g.Provider(), Operation: operation, Kind: GatewayErrorEmpty}
	} else {
		gwErr = classifyGatewayError(g.Provider(), operation, err, openAIStatus)
	}
	observeBackendFailure(gwErr)
	span.RecordError(gwErr)
	span.SetStatus(codes.Error, gwErr.Error())
	return gwErr
}

func openAIStatus(err error) (int, string, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, apiErr.Message, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, reqErr.HTTPStatus, true
	}
	return 0, "", false
}
