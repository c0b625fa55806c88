package citation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// ReferenceSource returns the DOIs cited by a work.
type ReferenceSource interface {
	References(ctx context.Context, doi string) ([]string, error)
}

// WalkStats summarises a walk.
type WalkStats struct {
	Seeds   int `json:"seeds"`
	Edges   int `json:"edges"`
	Unknown int `json:"unknown"`
	Skipped int `json:"skipped"`
}

// ProgressFunc is called after each seed is processed.
type ProgressFunc func(current, total int, seed string)

// Walker turns seed DOIs into citation edges, one remote lookup per seed.
type Walker struct {
	source   ReferenceSource
	logger   zerolog.Logger
	progress ProgressFunc
}

// NewWalker creates a walker backed by src.
func NewWalker(src ReferenceSource, logger zerolog.Logger) *Walker {
	return &Walker{source: src, logger: logger}
}

// SetProgress registers a callback invoked after every seed.
func (w *Walker) SetProgress(fn ProgressFunc) {
	w.progress = fn
}

// Walk fetches the reference list of every seed in order and emits one edge
// per cited DOI. A seed with no references, or whose lookup fails for any
// reason, yields a single edge to Unknown; failures are logged and never
// stop the walk. Blank seeds are skipped. Only cancellation of ctx ends the
// walk early, in which case the edges gathered so far are returned with
// ctx.Err().
func (w *Walker) Walk(ctx context.Context, seeds []string) ([]Edge, WalkStats, error) {
	var edges []Edge
	stats := WalkStats{Seeds: len(seeds)}

	for i, raw := range seeds {
		if err := ctx.Err(); err != nil {
			stats.Edges = len(edges)
			return edges, stats, err
		}

		seed := strings.TrimSpace(raw)
		if seed == "" {
			w.logger.Warn().Int("row", i+1).Msg("skipping empty DOI")
			stats.Skipped++
			w.report(i+1, len(seeds), seed)
			continue
		}

		refs, err := w.source.References(ctx, seed)
		if err != nil {
			if ctx.Err() != nil {
				stats.Edges = len(edges)
				return edges, stats, ctx.Err()
			}
			w.logger.Warn().Err(err).Str("doi", seed).Msg("fetching references failed")
			refs = nil
		}

		added := 0
		for _, ref := range refs {
			ref = strings.ToLower(strings.TrimSpace(ref))
			if ref == "" {
				continue
			}
			edges = append(edges, Edge{Source: seed, Target: ref})
			added++
		}
		if added == 0 {
			edges = append(edges, Edge{Source: seed, Target: Unknown})
			stats.Unknown++
		}

		w.logger.Debug().Str("doi", seed).Int("references", added).Msg("walked seed")
		w.report(i+1, len(seeds), seed)
	}

	stats.Edges = len(edges)
	return edges, stats, nil
}

func (w *Walker) report(current, total int, seed string) {
	if w.progress != nil {
		w.progress(current, total, seed)
	}
}
