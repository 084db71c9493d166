package embedder

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/surveylens/pkg/config"
)

// CircuitBreakerEmbedder wraps a Client with circuit breaking logic
type CircuitBreakerEmbedder struct {
	client Client
	cb     *gobreaker.CircuitBreaker
	name   string
}

// NewCircuitBreakerEmbedder creates a new circuit breaker client
func NewCircuitBreakerEmbedder(client Client, cfg config.CircuitBreakerConfig, name string, logger *slog.Logger) *CircuitBreakerEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	ratio := cfg.ReadyToTripRatio
	if ratio <= 0 {
		ratio = 0.6
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= ratio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Error("Embedding circuit breaker opened", "name", name, "from", from.String(), "to", to.String())
				return
			}
			logger.Info("Embedding circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreakerEmbedder{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
		name:   name,
	}
}

// Embed implements Encoder
func (c *CircuitBreakerEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return resp.([][]float32), nil
}

// EmbedSingle implements Client
func (c *CircuitBreakerEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, c, text)
}

// State reports the breaker state (closed, half-open, open).
func (c *CircuitBreakerEmbedder) State() gobreaker.State {
	return c.cb.State()
}

// Dimensions implements Client
func (c *CircuitBreakerEmbedder) Dimensions() int {
	return c.client.Dimensions()
}

// Close implements Client
func (c *CircuitBreakerEmbedder) Close() error {
	return c.client.Close()
}
