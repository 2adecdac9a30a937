package codebase

import "context"

// Embedder is the abstraction over the embedding endpoint. Concrete
// adapters target the configured transport; an unknown transport is a
// ConfigError raised by the caller assembling the adapter.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is an optional capability an Embedder may additionally
// implement. Callers type-assert for it and fall back to one Embed call
// per text when it is absent.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedAll embeds every text in texts, preferring a single EmbedBatch call
// when the embedder supports it and falling back to sequential Embed
// calls otherwise.
func EmbedAll(ctx context.Context, embedder Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if batch, ok := embedder.(BatchEmbedder); ok {
		return batch.EmbedBatch(ctx, texts)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
