package topic

import (
	"context"
	"fmt"
	"math"

	"github.com/genai-ethics/bibnet/internal/embedding"
)

const (
	// DefaultTemperature sharpens the softmax over centroid similarities.
	DefaultTemperature = 0.05

	// DefaultMinSimilarity is the cosine below which a document is an
	// outlier.
	DefaultMinSimilarity = 0.25
)

// Centroid is one fitted topic.
type Centroid struct {
	Info   Info
	Words  []string
	Vector []float64
}

// EmbeddingModel assigns topics by comparing document embeddings with
// topic centroids.
type EmbeddingModel struct {
	provider      embedding.Provider
	centroids     []Centroid
	infos         []Info
	temperature   float64
	minSimilarity float64
	progress      embedding.ProgressFunc
}

// NewEmbeddingModel builds a model from fitted centroids. infos describes
// all topics, the outlier topic included.
func NewEmbeddingModel(p embedding.Provider, centroids []Centroid, infos []Info, temperature, minSimilarity float64) (*EmbeddingModel, error) {
	if len(centroids) == 0 {
		return nil, fmt.Errorf("model has no topics")
	}
	dims := len(centroids[0].Vector)
	for _, c := range centroids {
		if len(c.Vector) != dims || dims == 0 {
			return nil, fmt.Errorf("topic %d centroid has %d dimensions, want %d", c.Info.ID, len(c.Vector), dims)
		}
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &EmbeddingModel{
		provider:      p,
		centroids:     centroids,
		infos:         infos,
		temperature:   temperature,
		minSimilarity: minSimilarity,
	}, nil
}

// SetProgress sets a callback invoked after each document is embedded.
func (m *EmbeddingModel) SetProgress(fn embedding.ProgressFunc) {
	m.progress = fn
}

// Topics returns the topic infos.
func (m *EmbeddingModel) Topics() []Info {
	return m.infos
}

// Centroids returns the fitted topics.
func (m *EmbeddingModel) Centroids() []Centroid {
	return m.centroids
}

// Transform embeds docs and scores them against every centroid.
func (m *EmbeddingModel) Transform(ctx context.Context, docs []string) (*Transform, error) {
	vecs, err := embedding.EmbedAll(ctx, m.provider, docs, m.progress)
	if err != nil {
		return nil, err
	}
	return m.transformVectors(vecs), nil
}

func (m *EmbeddingModel) transformVectors(vecs [][]float64) *Transform {
	tr := &Transform{
		Topics:   make([]int, len(vecs)),
		Probs:    make([][]float64, len(vecs)),
		TopicIDs: make([]int, len(m.centroids)),
	}
	for i, c := range m.centroids {
		tr.TopicIDs[i] = c.Info.ID
	}

	sims := make([]float64, len(m.centroids))
	for d, v := range vecs {
		best := 0
		for i, c := range m.centroids {
			sims[i] = embedding.Cosine(v, c.Vector)
			if sims[i] > sims[best] {
				best = i
			}
		}
		tr.Probs[d] = softmax(sims, m.temperature)
		if sims[best] < m.minSimilarity {
			tr.Topics[d] = OutlierTopic
		} else {
			tr.Topics[d] = m.centroids[best].Info.ID
		}
	}
	return tr
}

// softmax of x/temperature, shifted by the max for stability.
func softmax(x []float64, temperature float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	max := x[0]
	for _, v := range x[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for i, v := range x {
		out[i] = math.Exp((v - max) / temperature)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
