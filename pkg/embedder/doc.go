// Package embedder provides text embedding clients for vector representations.
//
// The clustering core depends only on the narrow Encoder interface; everything
// else in this package is a swappable provider or a decorator around one.
//
// # Supported Providers
//
//   - OpenAI and OpenAI-compatible services (text-embedding-3-small, ...)
//   - EmbedEverything: local models such as all-MiniLM-L6-v2
//
// # Decorators
//
//   - RetryEmbedder: exponential backoff on transient provider errors
//   - CircuitBreakerEmbedder: stops calling a provider that keeps failing
//   - CachedEmbedder: badger-backed vector cache keyed by model and text
//   - BackboneEncoder: strips question shells through a BackboneTagger
//     before the texts reach the provider
//
// # Usage
//
//	client, err := embedder.NewFromConfig(cfg.Embedding, cfg.Retry, cfg.CircuitBreaker, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	vectors, err := client.Embed(ctx, []string{"How often do you exercise?"})
//
// Every provider returns unit-normalized vectors.
package embedder
