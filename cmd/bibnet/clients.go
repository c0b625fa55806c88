package main

import (
	"time"

	"github.com/genai-ethics/bibnet/internal/crossref"
	"github.com/genai-ethics/bibnet/internal/embedding"
	"github.com/spf13/cobra"
)

// addDelayFlag registers --delay on commands that call Crossref.
func addDelayFlag(cmd *cobra.Command, dst *time.Duration) {
	cmd.Flags().DurationVar(dst, "delay", 0, "Pause between Crossref requests (default from config, 1s)")
}

// newCrossrefClient builds a client from the loaded config. A --delay flag
// set on cmd overrides request_delay.
func newCrossrefClient(cmd *cobra.Command, delay time.Duration) *crossref.Client {
	d := cfg.RequestDelay
	if cmd.Flags().Changed("delay") {
		d = delay
	}
	return crossref.NewClient(
		crossref.WithBaseURL(cfg.CrossrefURL),
		crossref.WithMailto(cfg.Mailto),
		crossref.WithDelay(d),
	)
}

// newOllama builds the Ollama provider from the loaded config.
func newOllama() *embedding.OllamaProvider {
	return embedding.NewOllamaProvider(embedding.OllamaConfig{
		URL:        cfg.OllamaURL,
		Model:      cfg.EmbedModel,
		Dimensions: cfg.EmbedDimensions,
	})
}

// newEmbedder opens the embedding cache and wraps p with it. The caller
// must save the returned cache.
func newEmbedder(p embedding.Provider) (*embedding.CachedProvider, *embedding.Cache, error) {
	cache, err := embedding.OpenCache(cfg.CachePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug().
		Str("model", p.ModelName()).
		Str("cache", cfg.CachePath).
		Int("cached", cache.Len()).
		Msg("embedding provider ready")
	return embedding.NewCachedProvider(p, cache), cache, nil
}

// saveCache persists the embedding cache and logs hit statistics.
func saveCache(p *embedding.CachedProvider, cache *embedding.Cache) {
	hits, misses := p.Stats()
	if err := cache.Save(); err != nil {
		logger.Warn().Err(err).Str("cache", cfg.CachePath).Msg("saving embedding cache")
		return
	}
	logger.Debug().Int("hits", hits).Int("misses", misses).Msg("embedding cache saved")
}
