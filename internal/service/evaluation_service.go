package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ideascope-api/internal/dto"
	"github.com/noah-isme/ideascope-api/internal/middleware"
	"github.com/noah-isme/ideascope-api/internal/observability"
	"github.com/noah-isme/ideascope-api/pkg/ai"
)

// EvaluationService exposes startup idea evaluation.
type EvaluationService interface {
	Evaluate(ctx context.Context, payload dto.StartupIdeaRequest) (dto.EvaluationResponse, error)
	BackendStatus(ctx context.Context) dto.BackendStatusResponse
}

// EvaluationConfig tunes caching and labelling of evaluations.
type EvaluationConfig struct {
	Provider     string
	SchemaFields []string
	CacheTTL     time.Duration
	CachePrefix  string
}

type evaluationService struct {
	evaluator ai.Evaluator
	cache     *redis.Client
	events    EvaluationPublisher
	validator *validator.Validate
	config    EvaluationConfig
	logger    zerolog.Logger
}

// NewEvaluationService constructs the evaluation service. cache and events may be nil.
func NewEvaluationService(evaluator ai.Evaluator, cache *redis.Client, events EvaluationPublisher, validate *validator.Validate, cfg EvaluationConfig, logger zerolog.Logger) EvaluationService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "ideascope:evaluation"
	}

	return &evaluationService{
		evaluator: evaluator,
		cache:     cache,
		events:    events,
		validator: validate,
		config:    cfg,
		logger:    logger.With().Str("component", "evaluation_service").Logger(),
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, payload dto.StartupIdeaRequest) (dto.EvaluationResponse, error) {
	payload = payload.Normalize()
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	start := time.Now()
	key := s.cacheKey(payload)
	if cached, ok := s.fetchCache(ctx, key); ok {
		response := dto.EvaluationResponse{
			Evaluation: cached,
			Cached:     true,
			DurationMs: time.Since(start).Milliseconds(),
		}
		s.publish(ctx, EvaluationEvent{Outcome: EventOutcomeCached, Cached: true, DurationMs: response.DurationMs})
		return response, nil
	}

	outcome, err := s.evaluator.Evaluate(ctx, payload.ToIdea())
	if err != nil {
		s.publish(ctx, EvaluationEvent{
			Outcome:        EventOutcomeError,
			FallbackReason: string(outcome.Reason),
			DurationMs:     outcome.Duration.Milliseconds(),
		})
		return dto.EvaluationResponse{}, err
	}

	response := dto.EvaluationResponse{
		Evaluation:     outcome.Payload,
		Strategy:       string(outcome.Strategy),
		Fallback:       outcome.Fallback,
		FallbackReason: string(outcome.Reason),
		DurationMs:     outcome.Duration.Milliseconds(),
	}

	event := EvaluationEvent{
		Outcome:        EventOutcomeExtracted,
		Strategy:       response.Strategy,
		FallbackReason: response.FallbackReason,
		DurationMs:     response.DurationMs,
	}
	if outcome.Fallback {
		event.Outcome = EventOutcomeFallback
	} else {
		s.writeCache(ctx, key, outcome.Payload)
	}
	s.publish(ctx, event)

	return response, nil
}

func (s *evaluationService) BackendStatus(ctx context.Context) dto.BackendStatusResponse {
	status := dto.BackendStatusResponse{Available: true, Provider: s.config.Provider}
	if err := s.evaluator.Ready(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("evaluation backend probe failed")
		status.Available = false
		status.Error = err.Error()
	}
	return status
}

func (s *evaluationService) publish(ctx context.Context, event EvaluationEvent) {
	if s.events == nil {
		return
	}
	event.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	event.Provider = s.config.Provider
	s.events.Publish(ctx, event)
}

func (s *evaluationService) fetchCache(ctx context.Context, key string) (map[string]interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	lookups := observability.EvaluationCache()

	payload, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read evaluation cache")
		}
		lookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var evaluation map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &evaluation); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode evaluation cache")
		lookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	lookups.WithLabelValues("hit").Inc()
	return evaluation, true
}

func (s *evaluationService) writeCache(ctx context.Context, key string, evaluation map[string]interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(evaluation)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode evaluation cache")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write evaluation cache")
	}
}

// cacheKey covers the idea and the active field set so a schema change never
// serves documents validated against another variant.
func (s *evaluationService) cacheKey(payload dto.StartupIdeaRequest) string {
	hash := sha256.New()
	encoded, _ := json.Marshal(payload)
	hash.Write(encoded)
	hash.Write([]byte("|" + strings.Join(s.config.SchemaFields, ",")))
	return s.config.CachePrefix + ":" + hex.EncodeToString(hash.Sum(nil))
}
