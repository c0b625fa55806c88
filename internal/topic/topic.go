// Package topic labels documents with topics and builds the weighted topic
// co-occurrence graph.
package topic

import (
	"context"
	"fmt"
	"sort"
)

const (
	// DefaultThreshold is the probability a topic must exceed to count as
	// present in a document.
	DefaultThreshold = 0.05

	// OutlierTopic is the id of the catch-all topic. It never becomes a node
	// or an edge endpoint.
	OutlierTopic = -1
)

// Model assigns topics to documents.
type Model interface {
	// Transform returns one topic and one probability vector per document.
	Transform(ctx context.Context, docs []string) (*Transform, error)

	// Topics describes every topic, including the outlier topic when it has
	// documents.
	Topics() []Info
}

// Transform is the per-document output of a Model.
type Transform struct {
	// Topics holds the assigned topic id per document.
	Topics []int

	// Probs holds one probability vector per document.
	Probs [][]float64

	// TopicIDs maps column i of each Probs row to its topic id.
	TopicIDs []int
}

// Validate checks that the three slices agree in shape.
func (t *Transform) Validate() error {
	if len(t.Topics) != len(t.Probs) {
		return fmt.Errorf("transform has %d topics but %d probability rows", len(t.Topics), len(t.Probs))
	}
	for i, row := range t.Probs {
		if len(row) != len(t.TopicIDs) {
			return fmt.Errorf("probability row %d has %d columns, want %d", i, len(row), len(t.TopicIDs))
		}
	}
	return nil
}

// Info describes one topic.
type Info struct {
	ID    int    `yaml:"id"`
	Count int    `yaml:"count"`
	Name  string `yaml:"name"`
}

// Pair is an unordered topic pair stored with A < B.
type Pair struct {
	A, B int
}

// NewPair returns the canonical ordering of a and b.
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Edge is a weighted topic co-occurrence edge with Source < Target.
type Edge struct {
	Source int
	Target int
	Weight float64
}

// Node is a topic node of the co-occurrence graph.
type Node struct {
	ID    int
	Size  int
	Label string
}

// Assignment is the topic given to one document.
type Assignment struct {
	Topic int
	Label string
}

// BuildCooccurrence accumulates, for every document, p[a]*p[b] over each
// unordered pair of topics whose probability exceeds threshold. The outlier
// topic is ignored. Edges are sorted by (Source, Target).
func BuildCooccurrence(t *Transform, threshold float64) []Edge {
	weights := make(map[Pair]float64)
	present := make([]int, 0, len(t.TopicIDs))

	for _, row := range t.Probs {
		present = present[:0]
		for col, p := range row {
			if col < len(t.TopicIDs) && p > threshold && t.TopicIDs[col] != OutlierTopic {
				present = append(present, col)
			}
		}
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				a, b := present[i], present[j]
				pair := NewPair(t.TopicIDs[a], t.TopicIDs[b])
				if pair.A == pair.B {
					continue
				}
				weights[pair] += row[a] * row[b]
			}
		}
	}

	edges := make([]Edge, 0, len(weights))
	for pair, w := range weights {
		edges = append(edges, Edge{Source: pair.A, Target: pair.B, Weight: w})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// Normalize returns a copy of edges with every weight divided by the
// largest one. Empty input, or a maximum that is not positive, is returned
// unchanged.
func Normalize(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)

	var max float64
	for _, e := range out {
		if e.Weight > max {
			max = e.Weight
		}
	}
	if max <= 0 {
		return out
	}
	for i := range out {
		out[i].Weight /= max
	}
	return out
}

// BuildNodes returns one node per topic, without the outlier topic, sorted
// by id.
func BuildNodes(infos []Info) []Node {
	nodes := make([]Node, 0, len(infos))
	for _, info := range infos {
		if info.ID == OutlierTopic {
			continue
		}
		nodes = append(nodes, Node{ID: info.ID, Size: info.Count, Label: info.Name})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// FallbackName is the label of a topic the model does not describe.
func FallbackName(id int) string {
	return fmt.Sprintf("Topic_%d", id)
}

// Assign pairs each document's topic with its label.
func Assign(t *Transform, infos []Info) []Assignment {
	names := make(map[int]string, len(infos))
	for _, info := range infos {
		names[info.ID] = info.Name
	}

	out := make([]Assignment, len(t.Topics))
	for i, id := range t.Topics {
		name, ok := names[id]
		if !ok || name == "" {
			name = FallbackName(id)
		}
		out[i] = Assignment{Topic: id, Label: name}
	}
	return out
}

// CountTopics derives topic infos from assigned topics. Topics that appear
// only as probability columns get a zero count. Names come from names, or
// FallbackName.
func CountTopics(t *Transform, names map[int]string) []Info {
	counts := make(map[int]int)
	for _, id := range t.TopicIDs {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	for _, id := range t.Topics {
		counts[id]++
	}

	infos := make([]Info, 0, len(counts))
	for id, n := range counts {
		name := names[id]
		if name == "" {
			name = FallbackName(id)
		}
		infos = append(infos, Info{ID: id, Count: n, Name: name})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}
