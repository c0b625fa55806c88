package embedding

import (
	"context"
	"fmt"
)

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// ProgressFunc is called after each text is embedded.
type ProgressFunc func(done, total int)

// EmbedAll embeds texts in order, one request at a time. The first failure
// stops the run.
func EmbedAll(ctx context.Context, p Provider, texts []string, progress ProgressFunc) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := p.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding document %d: %w", i, err)
		}
		out[i] = emb.Float64()
		if progress != nil {
			progress(i+1, len(texts))
		}
	}
	return out, nil
}
