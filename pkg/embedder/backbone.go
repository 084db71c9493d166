package embedder

import (
	"context"
	"fmt"
	"strings"
)

// BackboneTagger reduces a question to its semantic backbone by removing
// grammatical shells ("How often do you ...", "To what extent ..."). The
// implementation (typically backed by a dependency parser) lives outside
// this module.
type BackboneTagger interface {
	TagBackbone(ctx context.Context, text string) (string, error)
}

// BackboneTaggerFunc adapts a plain function to BackboneTagger.
type BackboneTaggerFunc func(ctx context.Context, text string) (string, error)

// TagBackbone implements BackboneTagger.
func (f BackboneTaggerFunc) TagBackbone(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// BackboneEncoder cleans every text through a tagger before encoding it.
// Texts whose backbone comes back empty are encoded as-is.
type BackboneEncoder struct {
	encoder Encoder
	tagger  BackboneTagger
}

// NewBackboneEncoder creates an encoder that embeds cleaned text.
func NewBackboneEncoder(encoder Encoder, tagger BackboneTagger) *BackboneEncoder {
	return &BackboneEncoder{encoder: encoder, tagger: tagger}
}

// Embed implements Encoder
func (b *BackboneEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := make([]string, len(texts))
	for i, text := range texts {
		backbone, err := b.tagger.TagBackbone(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to extract backbone for text %d: %w", i, err)
		}
		if strings.TrimSpace(backbone) == "" {
			backbone = text
		}
		cleaned[i] = backbone
	}
	return b.encoder.Embed(ctx, cleaned)
}
