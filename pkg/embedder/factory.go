package embedder

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/surveylens/pkg/config"
)

// Provider identifiers accepted by NewFromConfig.
const (
	ProviderOpenAI          = "openai"
	ProviderEmbedEverything = "embedeverything"
)

// NewFromConfig builds the provider named in cfg and wraps it with retry,
// an optional circuit breaker and an optional on-disk cache, in that order.
func NewFromConfig(cfg config.EmbeddingConfig, retry config.RetryConfig, breaker config.CircuitBreakerConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base := Config{
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		BatchSize:  cfg.BatchSize,
		Dimensions: cfg.Dimensions,
	}

	var client Client
	switch cfg.Provider {
	case ProviderOpenAI, "":
		client = NewOpenAIEmbedder(cfg.APIKey, base)
	case ProviderEmbedEverything:
		ee, err := NewEmbedEverythingClient(&EmbedEverythingConfig{Config: &base})
		if err != nil {
			return nil, err
		}
		client = ee
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: openai, embedeverything)", cfg.Provider)
	}

	client = NewRetryEmbedder(client, &RetryConfig{
		MaxRetries:        retry.MaxRetries,
		InitialDelay:      time.Duration(retry.InitialDelayMS) * time.Millisecond,
		MaxDelay:          time.Duration(retry.MaxDelayMS) * time.Millisecond,
		BackoffMultiplier: retry.BackoffMultiplier,
	}, logger)

	if breaker.Enabled {
		client = NewCircuitBreakerEmbedder(client, breaker, "embedding-"+cfg.Provider, logger)
	}

	if cfg.CacheDir != "" {
		cached, err := NewCachedEmbedder(client, cfg.CacheDir, cfg.Provider+"/"+cfg.Model)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		client = cached
	}

	logger.Debug("Embedding client ready", "provider", cfg.Provider, "model", cfg.Model, "cache", cfg.CacheDir != "")
	return client, nil
}
