package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/weave/internal/anthropic"
	"github.com/MikeSquared-Agency/weave/internal/config"
	"github.com/MikeSquared-Agency/weave/internal/extractor"
	"github.com/MikeSquared-Agency/weave/internal/llm"
	"github.com/MikeSquared-Agency/weave/internal/openai"
	"github.com/MikeSquared-Agency/weave/internal/printer"
)

// newGateway builds the LLM client for the configured provider.
func newGateway(cfg config.Config) (llm.Gateway, error) {
	switch cfg.LLMProvider {
	case "", "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, printer.Error("ANTHROPIC_API_KEY is required", "The anthropic provider needs an API key.", []string{
				"Set ANTHROPIC_API_KEY",
				"Or set LLM_PROVIDER=openai and OPENAI_API_KEY",
			})
		}
		slog.Info("anthropic client ready", "chat_model", cfg.ChatModel)
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.ChatModel), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, printer.Error("OPENAI_API_KEY is required", "The openai provider needs an API key.", []string{
				"Set OPENAI_API_KEY",
			})
		}
		slog.Info("openai client ready", "model", cfg.OpenAIModel)
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		return nil, printer.Error("Unknown LLM provider", fmt.Sprintf("LLM_PROVIDER=%q is not supported.", cfg.LLMProvider), []string{
			"Use anthropic or openai",
		})
	}
}

func newExtractor(cfg config.Config, gw llm.Gateway) *extractor.Extractor {
	return extractor.New(gw, extractor.Models{
		Entity:         cfg.EntityModel,
		Pattern:        cfg.PatternModel,
		Recommendation: cfg.RecommendationModel,
	}, slog.Default())
}

// newRedis connects to REDIS_URL and checks the connection.
func newRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, printer.Error("REDIS_URL is required", "Sessions are stored in Redis.", []string{
			"Set REDIS_URL, e.g. redis://localhost:6379/0",
		})
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
