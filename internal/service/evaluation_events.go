package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Evaluation event outcomes.
const (
	EventOutcomeExtracted = "extracted"
	EventOutcomeFallback  = "fallback"
	EventOutcomeCached    = "cached"
	EventOutcomeError     = "error"
)

// EvaluationEvent is broadcast after every evaluation request.
type EvaluationEvent struct {
	CorrelationID  string    `json:"correlationId,omitempty"`
	Outcome        string    `json:"outcome"`
	Strategy       string    `json:"strategy,omitempty"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
	Provider       string    `json:"provider,omitempty"`
	Cached         bool      `json:"cached"`
	DurationMs     int64     `json:"durationMs"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// EvaluationPublisher fans evaluation events out to interested consumers.
type EvaluationPublisher interface {
	Publish(ctx context.Context, event EvaluationEvent)
}

type evaluationPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
}

const defaultEventChannel = "ideascope:evaluations"

// NewEvaluationPublisher publishes events to the NATS subject and to a Redis
// channel named after it. Either transport may be nil; an empty subject only
// disables NATS.
func NewEvaluationPublisher(redisClient *redis.Client, natsConn *nats.Conn, subject string, logger zerolog.Logger) EvaluationPublisher {
	subject = strings.TrimSpace(subject)
	channel := defaultEventChannel
	if subject != "" {
		channel = strings.ReplaceAll(subject, ".", ":")
	}
	return &evaluationPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "evaluation_publisher").Logger(),
	}
}

func (p *evaluationPublisher) Publish(ctx context.Context, event EvaluationEvent) {
	publishNATS := p.nats != nil && p.natsSubject != ""
	if p.redis == nil && !publishNATS {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode evaluation event")
		return
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("channel", p.redisChannel).Msg("failed to publish evaluation event to redis")
		}
	}

	if publishNATS {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			p.logger.Warn().Err(err).Str("subject", p.natsSubject).Msg("failed to publish evaluation event to nats")
		}
	}
}
