// Package embedding turns document text into vectors for topic modelling.
package embedding

import "math"

// Embedding is the vector for one piece of text.
type Embedding struct {
	Vector []float32
}

// Dimensions returns the length of the vector.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// Float64 returns a float64 copy of the vector.
func (e Embedding) Float64() []float64 {
	out := make([]float64, len(e.Vector))
	for i, v := range e.Vector {
		out[i] = float64(v)
	}
	return out
}

// Cosine computes the cosine similarity of two vectors. Mismatched or
// zero-length vectors have similarity 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}
	return dot / denominator
}

// Normalize scales v in place to unit length. A zero vector is left as is.
func Normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	n := math.Sqrt(sum)
	for i := range v {
		v[i] /= n
	}
}
