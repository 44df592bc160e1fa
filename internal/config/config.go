package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/ideascope-api/pkg/ai"
)

const (
	defaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	defaultOpenAIModel   = "meta-llama/llama-4-scout-17b-16e-instruct"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	CORSOrigin       string
	AIProvider       string
	AIBaseURL        string
	AIAPIKey         string
	AIModel          string
	AIMaxTokens      int
	AIJSONMode       bool
	AIRequestTimeout time.Duration
	AIProbeTimeout   time.Duration
	SchemaVariant    ai.SchemaVariant
	RequiredFields   []string
	FallbackPolicy   ai.FallbackPolicy
	RateLimit        int
	RateWindow       time.Duration
	RedisURL         string
	CacheTTL         time.Duration
	NATSURL          string
	NATSSubject      string
	TracesEndpoint   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("IDEASCOPE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Names used by the first deployment still work.
	_ = v.BindEnv("ai.api_key", "IDEASCOPE_AI_API_KEY", "GROQ_API_KEY")
	_ = v.BindEnv("cors.origin", "IDEASCOPE_CORS_ORIGIN", "FRONTEND_URL")
	_ = v.BindEnv("otel.traces_endpoint", "IDEASCOPE_OTEL_TRACES_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")

	v.SetDefault("app.name", "IdeaScope API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8000")
	v.SetDefault("cors.origin", "http://localhost:3000")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.json_mode", false)
	v.SetDefault("ai.request_timeout", "60s")
	v.SetDefault("ai.probe_timeout", "5s")
	v.SetDefault("evaluation.schema_variant", string(ai.SchemaV2))
	v.SetDefault("evaluation.fallback_policy", string(ai.FallbackSilent))
	v.SetDefault("evaluation.rate_limit", 30)
	v.SetDefault("evaluation.rate_window", "1m")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("nats.subject", "ideascope.evaluations")

	requestTimeout, err := parseDuration(v, "ai.request_timeout")
	if err != nil {
		return Config{}, err
	}
	probeTimeout, err := parseDuration(v, "ai.probe_timeout")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "evaluation.rate_window")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "cache.ttl")
	if err != nil {
		return Config{}, err
	}

	variant := ai.SchemaVariant(strings.ToLower(strings.TrimSpace(v.GetString("evaluation.schema_variant"))))
	fields, err := ai.RequiredFields(variant)
	if err != nil {
		return Config{}, fmt.Errorf("invalid schema variant: %w", err)
	}
	if override := splitAndTrim(v.GetString("evaluation.required_fields")); len(override) > 0 {
		fields = override
	}
	schemaValidator, err := ai.NewSchemaValidator(fields)
	if err != nil {
		return Config{}, fmt.Errorf("invalid required fields: %w", err)
	}
	if !schemaValidator.Validate(ai.FallbackEvaluation()) {
		return Config{}, fmt.Errorf("invalid required fields: fallback evaluation lacks one of %v", fields)
	}

	policy, err := ai.ParseFallbackPolicy(v.GetString("evaluation.fallback_policy"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid fallback policy: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		CORSOrigin:       v.GetString("cors.origin"),
		AIProvider:       strings.ToLower(v.GetString("ai.provider")),
		AIBaseURL:        v.GetString("ai.base_url"),
		AIAPIKey:         v.GetString("ai.api_key"),
		AIModel:          v.GetString("ai.model"),
		AIMaxTokens:      v.GetInt("ai.max_tokens"),
		AIJSONMode:       v.GetBool("ai.json_mode"),
		AIRequestTimeout: requestTimeout,
		AIProbeTimeout:   probeTimeout,
		SchemaVariant:    variant,
		RequiredFields:   fields,
		FallbackPolicy:   policy,
		RateLimit:        v.GetInt("evaluation.rate_limit"),
		RateWindow:       rateWindow,
		RedisURL:         v.GetString("redis.url"),
		CacheTTL:         cacheTTL,
		NATSURL:          v.GetString("nats.url"),
		NATSSubject:      v.GetString("nats.subject"),
		TracesEndpoint:   v.GetString("otel.traces_endpoint"),
	}

	switch cfg.AIProvider {
	case "openai":
		if cfg.AIBaseURL == "" {
			cfg.AIBaseURL = defaultOpenAIBaseURL
		}
		if cfg.AIModel == "" {
			cfg.AIModel = defaultOpenAIModel
		}
	case "anthropic":
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.AIRequestTimeout <= 0 || cfg.AIProbeTimeout <= 0 {
		return Config{}, fmt.Errorf("ai timeouts must be positive")
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 30
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
