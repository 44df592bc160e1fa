package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FallbackPolicy controls whether backend failures are masked by the fallback document.
type FallbackPolicy string

const (
	// FallbackSilent substitutes the fallback document for every failure.
	FallbackSilent FallbackPolicy = "silent"
	// FallbackStrict surfaces backend unavailability and generation failures as errors.
	FallbackStrict FallbackPolicy = "strict"
)

// ParseFallbackPolicy validates a configured policy name.
func ParseFallbackPolicy(value string) (FallbackPolicy, error) {
	switch FallbackPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case FallbackSilent, "":
		return FallbackSilent, nil
	case FallbackStrict:
		return FallbackStrict, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q", value)
	}
}

// State is a step of the evaluation state machine.
type State string

const (
	StateProbing    State = "probing"
	StateGenerating State = "generating"
	StateExtracting State = "extracting"
	StateValidating State = "validating"
	StateDone       State = "done"
	StateFallback   State = "fallback"
)

// FallbackReason explains why the fallback document was returned.
type FallbackReason string

const (
	ReasonNone                FallbackReason = ""
	ReasonBackendUnavailable  FallbackReason = "backend_unavailable"
	ReasonGenerationFailed    FallbackReason = "generation_failed"
	ReasonExtractionExhausted FallbackReason = "extraction_exhausted"
)

// Outcome is the result of one evaluation run.
type Outcome struct {
	Payload  map[string]interface{}
	Strategy Strategy
	Fallback bool
	Reason   FallbackReason
	States   []State
	Duration time.Duration
}

// PipelineConfig wires the pipeline collaborators.
type PipelineConfig struct {
	Gateway   Gateway
	Validator *SchemaValidator
	Prompts   *PromptBuilder
	Policy    FallbackPolicy
	Logger    zerolog.Logger
}

// Pipeline runs probe, generation, extraction and fallback for one idea at a time.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	gateway   Gateway
	validator *SchemaValidator
	extractor *Extractor
	prompts   *PromptBuilder
	policy    FallbackPolicy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewPipeline constructs the evaluation pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("pipeline gateway is required")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("pipeline schema validator is required")
	}
	if !cfg.Validator.Validate(FallbackEvaluation()) {
		return nil, fmt.Errorf("fallback evaluation does not carry required fields %v", cfg.Validator.Fields())
	}
	if cfg.Prompts == nil {
		cfg.Prompts = NewPromptBuilder()
	}
	policy, err := ParseFallbackPolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		gateway:   cfg.Gateway,
		validator: cfg.Validator,
		extractor: NewExtractor(cfg.Validator),
		prompts:   cfg.Prompts,
		policy:    policy,
		tracer:    otel.Tracer("github.com/noah-isme/ideascope-api/pkg/ai/pipeline"),
		logger:    cfg.Logger.With().Str("component", "evaluation_pipeline").Str("provider", cfg.Gateway.Provider()).Logger(),
	}, nil
}

// Ready probes the backend.
func (p *Pipeline) Ready(ctx context.Context) error {
	if err := p.gateway.Probe(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return nil
}

// Evaluate returns a schema-valid evaluation document for the idea. Under the
// strict policy it returns ErrBackendUnavailable or ErrGenerationFailed instead
// of the fallback document.
func (p *Pipeline) Evaluate(parent context.Context, idea StartupIdea) (Outcome, error) {
	ctx, span := p.tracer.Start(parent, "pipeline.evaluate")
	defer span.End()

	run := evaluationRun{start: time.Now()}

	run.enter(StateProbing)
	if err := p.gateway.Probe(ctx); err != nil {
		return p.fail(span, &run, ReasonBackendUnavailable, fmt.Errorf("%w: %w", ErrBackendUnavailable, err))
	}

	run.enter(StateGenerating)
	raw, err := p.gateway.Generate(ctx, p.prompts.Build(idea))
	if err != nil {
		return p.fail(span, &run, ReasonGenerationFailed, fmt.Errorf("%w: %w", ErrGenerationFailed, err))
	}

	run.enter(StateExtracting)
	extraction, ok := p.extractor.Extract(raw)
	if !ok {
		return p.fail(span, &run, ReasonExtractionExhausted, fmt.Errorf("%w after %d strategies", ErrExtractionExhausted, len(extraction.Attempts)))
	}

	// The extractor only returns validator-passing candidates.
	run.enter(StateValidating)
	run.enter(StateDone)

	evaluationOutcomes.WithLabelValues("extracted", string(extraction.Strategy)).Inc()
	span.SetAttributes(attribute.String("strategy", string(extraction.Strategy)))
	p.logger.Debug().Str("strategy", string(extraction.Strategy)).Msg("evaluation extracted")

	return Outcome{
		Payload:  extraction.Payload,
		Strategy: extraction.Strategy,
		States:   run.states,
		Duration: time.Since(run.start),
	}, nil
}

func (p *Pipeline) fail(span trace.Span, run *evaluationRun, reason FallbackReason, err error) (Outcome, error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("fallback_reason", string(reason)))

	if p.policy == FallbackStrict && reason != ReasonExtractionExhausted {
		span.SetStatus(codes.Error, err.Error())
		evaluationOutcomes.WithLabelValues("error", string(reason)).Inc()
		p.logger.Error().Err(err).Str("reason", string(reason)).Msg("evaluation failed")
		return Outcome{Reason: reason, States: run.states, Duration: time.Since(run.start)}, err
	}

	run.enter(StateFallback)
	evaluationOutcomes.WithLabelValues("fallback", string(reason)).Inc()
	p.logger.Warn().Err(err).Str("reason", string(reason)).Msg("returning fallback evaluation")

	return Outcome{
		Payload:  FallbackEvaluation(),
		Fallback: true,
		Reason:   reason,
		States:   run.states,
		Duration: time.Since(run.start),
	}, nil
}

type evaluationRun struct {
	start  time.Time
	states []State
}

func (r *evaluationRun) enter(state State) {
	r.states = append(r.states, state)
}
