package embedder

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoVectors is returned when a combination is requested over zero vectors.
var ErrNoVectors = errors.New("no vectors to combine")

// WeightedAverage combines per-chunk vectors into one document vector. Each
// vector is weighted by its chunk's token count relative to the document
// total: weight_i = tokenCounts[i] / totalTokens. With equal token counts the
// result equals the unweighted arithmetic mean. The result is not normalized;
// callers that need unit vectors pass it through Normalize.
func WeightedAverage(vectors [][]float32, tokenCounts []int) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}
	if len(vectors) != len(tokenCounts) {
		return nil, fmt.Errorf("got %d vectors but %d token counts", len(vectors), len(tokenCounts))
	}

	dim := len(vectors[0])
	total := 0
	for i, count := range tokenCounts {
		if count <= 0 {
			return nil, fmt.Errorf("chunk %d has non-positive token count %d", i, count)
		}
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("vector %d has size %d, expected %d", i, len(vectors[i]), dim)
		}
		total += count
	}

	// Accumulate in float64 to keep the narrowing error to the final cast.
	acc := make([]float64, dim)
	for i, vec := range vectors {
		weight := float64(tokenCounts[i]) / float64(total)
		for j, v := range vec {
			acc[j] += weight * float64(v)
		}
	}

	result := make([]float32, dim)
	for j, v := range acc {
		result[j] = float32(v)
	}
	return result, nil
}

// Normalize returns a copy of vec scaled to unit Euclidean norm. A zero
// vector has no direction and is returned unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	out := make([]float32, len(vec))
	if sum == 0 {
		copy(out, vec)
		return out
	}

	norm := math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 for
// mismatched lengths or zero-norm inputs.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
