package embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/soundprediction/surveylens/pkg/utils"
)

// ErrEmptyResponse indicates the provider returned fewer vectors than texts.
var ErrEmptyResponse = errors.New("embedding provider returned no vectors")

// Encoder maps texts to unit-normalized vectors of a fixed dimension.
// The returned slice is positional: vectors[i] embeds texts[i].
type Encoder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Client is a full embedding provider.
type Client interface {
	Encoder

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the number of dimensions in the embeddings,
	// or 0 when the provider decides.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds common provider settings.
type Config struct {
	Model      string `json:"model"`
	BaseURL    string `json:"base_url,omitempty"`
	BatchSize  int    `json:"batch_size,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// embedSingle is shared by providers that only implement batch embedding.
func embedSingle(ctx context.Context, enc Encoder, text string) ([]float32, error) {
	embeddings, err := enc.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, ErrEmptyResponse
	}
	return embeddings[0], nil
}

// normalizeAll unit-normalizes every vector and rejects zero vectors.
func normalizeAll(vectors [][]float32) ([][]float32, error) {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		n := utils.Normalize(v)
		if n == nil {
			return nil, fmt.Errorf("embedding %d has zero magnitude", i)
		}
		out[i] = n
	}
	return out, nil
}

// checkCount verifies the provider answered every text.
func checkCount(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrEmptyResponse, len(vectors), len(texts))
	}
	return nil
}
