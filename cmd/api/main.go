package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ideascope-api/internal/config"
	"github.com/noah-isme/ideascope-api/internal/database"
	"github.com/noah-isme/ideascope-api/internal/handler"
	"github.com/noah-isme/ideascope-api/internal/middleware"
	"github.com/noah-isme/ideascope-api/internal/observability"
	"github.com/noah-isme/ideascope-api/internal/router"
	"github.com/noah-isme/ideascope-api/internal/service"
	"github.com/noah-isme/ideascope-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.AppName, cfg.TracesEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	gateway, err := newGateway(cfg)
	if err != nil {
		log.Fatalf("failed to create ai gateway: %v", err)
	}

	schemaValidator, err := ai.NewSchemaValidator(cfg.RequiredFields)
	if err != nil {
		log.Fatalf("failed to build evaluation schema: %v", err)
	}

	pipeline, err := ai.NewPipeline(ai.PipelineConfig{
		Gateway:   gateway,
		Validator: schemaValidator,
		Policy:    cfg.FallbackPolicy,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("failed to create evaluation pipeline: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	events := service.NewEvaluationPublisher(redisClient, natsConn, cfg.NATSSubject, logger)
	evaluationService := service.NewEvaluationService(pipeline, redisClient, events, validate, service.EvaluationConfig{
		Provider:     gateway.Provider(),
		SchemaFields: schemaValidator.Fields(),
		CacheTTL:     cfg.CacheTTL,
	}, logger)

	evaluationHandler := handler.NewEvaluationHandler(evaluationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  cfg.AIRequestTimeout + 10*time.Second,
		WriteTimeout: cfg.AIRequestTimeout + 10*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, CORSOrigin: cfg.CORSOrigin})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: evaluationHandler,
		EvaluationService: evaluationService,
	})

	logger.Info().
		Str("provider", gateway.Provider()).
		Str("schema_variant", string(cfg.SchemaVariant)).
		Str("fallback_policy", string(cfg.FallbackPolicy)).
		Bool("cache_enabled", redisClient != nil).
		Bool("events_enabled", natsConn != nil || redisClient != nil).
		Msg("starting evaluation api")

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func newGateway(cfg config.Config) (ai.Gateway, error) {
	switch cfg.AIProvider {
	case "openai":
		return ai.NewOpenAIGateway(ai.OpenAIConfig{
			APIKey:         cfg.AIAPIKey,
			BaseURL:        cfg.AIBaseURL,
			Model:          cfg.AIModel,
			MaxTokens:      cfg.AIMaxTokens,
			JSONMode:       cfg.AIJSONMode,
			ProbeTimeout:   cfg.AIProbeTimeout,
			RequestTimeout: cfg.AIRequestTimeout,
		})
	case "anthropic":
		return ai.NewAnthropicGateway(ai.AnthropicConfig{
			APIKey:         cfg.AIAPIKey,
			BaseURL:        cfg.AIBaseURL,
			Model:          cfg.AIModel,
			MaxTokens:      cfg.AIMaxTokens,
			ProbeTimeout:   cfg.AIProbeTimeout,
			RequestTimeout: cfg.AIRequestTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
