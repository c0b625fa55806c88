package topic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/genai-ethics/bibnet/internal/embedding"
)

const modelFileVersion = 1

// ErrModelMismatch means a saved model was fitted with another embedding
// model than the one configured.
var ErrModelMismatch = errors.New("embedding model mismatch")

type modelFile struct {
	Version       int          `yaml:"version"`
	EmbedModel    string       `yaml:"embed_model"`
	Dimensions    int          `yaml:"dimensions"`
	Temperature   float64      `yaml:"temperature"`
	MinSimilarity float64      `yaml:"min_similarity"`
	Outliers      int          `yaml:"outliers,omitempty"`
	OutlierName   string       `yaml:"outlier_name,omitempty"`
	Topics        []topicEntry `yaml:"topics"`
}

type topicEntry struct {
	ID       int       `yaml:"id"`
	Count    int       `yaml:"count"`
	Name     string    `yaml:"name"`
	Words    []string  `yaml:"words,flow"`
	Centroid []float64 `yaml:"centroid,flow"`
}

// SaveModel writes m as YAML.
func SaveModel(path string, m *EmbeddingModel) error {
	f := modelFile{
		Version:       modelFileVersion,
		EmbedModel:    m.provider.ModelName(),
		Dimensions:    len(m.centroids[0].Vector),
		Temperature:   m.temperature,
		MinSimilarity: m.minSimilarity,
	}
	for _, info := range m.infos {
		if info.ID == OutlierTopic {
			f.Outliers = info.Count
			f.OutlierName = info.Name
		}
	}
	for _, c := range m.centroids {
		f.Topics = append(f.Topics, topicEntry{
			ID:       c.Info.ID,
			Count:    c.Info.Count,
			Name:     c.Info.Name,
			Words:    c.Words,
			Centroid: c.Vector,
		})
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating model directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	return nil
}

// LoadModel reads a model written by SaveModel and binds it to p, which
// must use the same embedding model.
func LoadModel(path string, p embedding.Provider) (*EmbeddingModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}

	var f modelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	if f.Version != modelFileVersion {
		return nil, fmt.Errorf("unsupported model version %d", f.Version)
	}
	if f.EmbedModel != p.ModelName() {
		return nil, fmt.Errorf("%w: model was fitted with %s, provider uses %s", ErrModelMismatch, f.EmbedModel, p.ModelName())
	}

	var infos []Info
	if f.Outliers > 0 {
		name := f.OutlierName
		if name == "" {
			name = FallbackName(OutlierTopic)
		}
		infos = append(infos, Info{ID: OutlierTopic, Count: f.Outliers, Name: name})
	}
	centroids := make([]Centroid, len(f.Topics))
	for i, t := range f.Topics {
		info := Info{ID: t.ID, Count: t.Count, Name: t.Name}
		centroids[i] = Centroid{Info: info, Words: t.Words, Vector: t.Centroid}
		infos = append(infos, info)
	}
	return NewEmbeddingModel(p, centroids, infos, f.Temperature, f.MinSimilarity)
}
