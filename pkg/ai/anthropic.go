package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AnthropicConfig holds Anthropic backend configuration.
type AnthropicConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	ProbeTimeout   time.Duration
	RequestTimeout time.Duration
}

// AnthropicMessager is the subset of the messages API used for generation.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicModelLister is the subset of the models API used for probing.
type AnthropicModelLister interface {
	List(ctx context.Context, params anthropic.ModelListParams, opts ...option.RequestOption) (*pagination.Page[anthropic.ModelInfo], error)
}

// AnthropicGateway implements Gateway against the Anthropic messages API.
type AnthropicGateway struct {
	messages AnthropicMessager
	models   AnthropicModelLister
	cfg      AnthropicConfig
	tracer   trace.Tracer
}

// NewAnthropicGateway constructs a gateway backed by the Anthropic SDK client.
func NewAnthropicGateway(cfg AnthropicConfig) (*AnthropicGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return NewAnthropicGatewayWithClients(cfg, &client.Messages, &client.Models), nil
}

// NewAnthropicGatewayWithClients wires explicit API clients, mainly for tests.
func NewAnthropicGatewayWithClients(cfg AnthropicConfig, messages AnthropicMessager, models AnthropicModelLister) *AnthropicGateway {
	if cfg.Model == "" {
		cfg.Model = string(anthropic.ModelClaudeSonnet4_20250514)
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

	return &AnthropicGateway{
		messages: messages,
		models:   models,
		cfg:      cfg,
		tracer:   otel.Tracer("github.com/noah-isme/ideascope-api/pkg/ai/anthropic"),
	}
}

// Provider implements Gateway.
func (g *AnthropicGateway) Provider() string {
	return "anthropic"
}

// Probe lists available models with a short timeout.
func (g *AnthropicGateway) Probe(parent context.Context) error {
	ctx, span := g.tracer.Start(parent, "anthropic.probe")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	_, err := g.models.List(ctx, anthropic.ModelListParams{})
	backendDuration.WithLabelValues(g.Provider(), "probe").Observe(time.Since(start).Seconds())
	if err != nil {
		return g.fail(span, "probe", err)
	}
	return nil
}

// Generate sends the prompt and concatenates the text blocks of the reply.
func (g *AnthropicGateway) Generate(parent context.Context, prompt string) (string, error) {
	ctx, span := g.tracer.Start(parent, "anthropic.generate", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.cfg.Model),
		MaxTokens: int64(g.cfg.MaxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	backendDuration.WithLabelValues(g.Provider(), "generate").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", g.fail(span, "generate", err)
	}

	var sb strings.Builder
	if resp != nil {
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", g.fail(span, "generate", nil)
	}
	return sb.String(), nil
}

func (g *AnthropicGateway) fail(span trace.Span, operation string, err error) error {
	var gwErr *GatewayError
	if err == nil {
		gwErr = &GatewayError{Provider: g.Provider(), Operation: operation, Kind: GatewayErrorEmpty}
	} else {
		gwErr = classifyGatewayError(g.Provider(), operation, err, anthropicStatus)
	}
	observeBackendFailure(gwErr)
	span.RecordError(gwErr)
	span.SetStatus(codes.Error, gwErr.Error())
	return gwErr
}

func anthropicStatus(err error) (int, string, bool) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Error(), true
	}
	return 0, "", false
}
