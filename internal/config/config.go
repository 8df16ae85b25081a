package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Port     int
	LogLevel string

	DatabaseURL string
	RedisURL    string
	NatsURL     string
	NatsToken   string

	LLMProvider     string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIModel     string

	ChatModel           string
	EntityModel         string
	PatternModel        string
	RecommendationModel string

	EntityMinConfidence         float64
	PatternMinConfidence        float64
	RecommendationMinConfidence float64

	RateLimitBackend  string
	RateLimitRequests int
	RateLimitWindow   int // seconds

	SessionCookie string
}

const (
	defaultPort              = 8780
	defaultRateLimitRequests = 10
	defaultRateLimitWindow   = 60

	defaultEntityMinConfidence         = 0.7
	defaultPatternMinConfidence        = 0.6
	defaultRecommendationMinConfidence = 0.5
)

// bindings maps config keys to the environment variables that set them.
// The same keys are accepted in a YAML config file.
var bindings = map[string]string{
	"port":                          "WEAVE_PORT",
	"log_level":                     "LOG_LEVEL",
	"database_url":                  "DATABASE_URL",
	"redis_url":                     "REDIS_URL",
	"nats_url":                      "NATS_URL",
	"nats_token":                    "NATS_TOKEN",
	"llm_provider":                  "LLM_PROVIDER",
	"anthropic_api_key":             "ANTHROPIC_API_KEY",
	"openai_api_key":                "OPENAI_API_KEY",
	"openai_model":                  "OPENAI_MODEL",
	"chat_model":                    "WEAVE_CHAT_MODEL",
	"entity_model":                  "WEAVE_ENTITY_MODEL",
	"pattern_model":                 "WEAVE_PATTERN_MODEL",
	"recommendation_model":          "WEAVE_RECOMMENDATION_MODEL",
	"entity_min_confidence":         "WEAVE_ENTITY_MIN_CONFIDENCE",
	"pattern_min_confidence":        "WEAVE_PATTERN_MIN_CONFIDENCE",
	"recommendation_min_confidence": "WEAVE_RECOMMENDATION_MIN_CONFIDENCE",
	"rate_limit_backend":            "RATE_LIMIT_BACKEND",
	"rate_limit_requests":           "RATE_LIMIT_REQUESTS",
	"rate_limit_window":             "RATE_LIMIT_WINDOW_SECONDS",
	"session_cookie":                "WEAVE_SESSION_COOKIE",
}

// Load reads configuration from the environment and, when path is not empty,
// from a YAML config file. Environment variables win over the file.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("nats_url", "")
	v.SetDefault("llm_provider", "anthropic")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("chat_model", "claude-sonnet-4-20250514")
	v.SetDefault("entity_model", "claude-3-5-haiku-20241022")
	v.SetDefault("pattern_model", "claude-sonnet-4-20250514")
	v.SetDefault("recommendation_model", "claude-3-5-haiku-20241022")
	v.SetDefault("entity_min_confidence", defaultEntityMinConfidence)
	v.SetDefault("pattern_min_confidence", defaultPatternMinConfidence)
	v.SetDefault("recommendation_min_confidence", defaultRecommendationMinConfidence)
	v.SetDefault("rate_limit_backend", "memory")
	v.SetDefault("rate_limit_requests", defaultRateLimitRequests)
	v.SetDefault("rate_limit_window", defaultRateLimitWindow)
	v.SetDefault("session_cookie", "weave_session")

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:                        v.GetInt("port"),
		LogLevel:                    v.GetString("log_level"),
		DatabaseURL:                 v.GetString("database_url"),
		RedisURL:                    v.GetString("redis_url"),
		NatsURL:                     v.GetString("nats_url"),
		NatsToken:                   v.GetString("nats_token"),
		LLMProvider:                 v.GetString("llm_provider"),
		AnthropicAPIKey:             v.GetString("anthropic_api_key"),
		OpenAIAPIKey:                v.GetString("openai_api_key"),
		OpenAIModel:                 v.GetString("openai_model"),
		ChatModel:                   v.GetString("chat_model"),
		EntityModel:                 v.GetString("entity_model"),
		PatternModel:                v.GetString("pattern_model"),
		RecommendationModel:         v.GetString("recommendation_model"),
		EntityMinConfidence:         confidence(v, "entity_min_confidence", defaultEntityMinConfidence),
		PatternMinConfidence:        confidence(v, "pattern_min_confidence", defaultPatternMinConfidence),
		RecommendationMinConfidence: confidence(v, "recommendation_min_confidence", defaultRecommendationMinConfidence),
		RateLimitBackend:            v.GetString("rate_limit_backend"),
		RateLimitRequests:           v.GetInt("rate_limit_requests"),
		RateLimitWindow:             v.GetInt("rate_limit_window"),
		SessionCookie:               v.GetString("session_cookie"),
	}

	// Unparseable numbers come back as zero from viper.
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = defaultRateLimitRequests
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = defaultRateLimitWindow
	}

	return cfg, nil
}

// confidence reads a threshold, falling back to def when the value does not
// parse or lies outside [0, 1].
func confidence(v *viper.Viper, key string, def float64) float64 {
	f, err := strconv.ParseFloat(v.GetString(key), 64)
	if err != nil || !(f >= 0 && f <= 1) {
		return def
	}
	return f
}
