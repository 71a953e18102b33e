package word2vec

import (
	"github.com/viant/vec/search"
)

// similarityCalculator scores float32 embedding rows. Norms come from viant/vec; products
// accumulate in float64.
type similarityCalculator struct{}

// NewSimilarityCalculator returns the calculator used by the query engine
func NewSimilarityCalculator() SimilarityCalculator {
	return &similarityCalculator{}
}

// isZeroVector reports whether every element is zero. A freshly allocated row is zero.
func isZeroVector(v []float32) bool {
	for _, val := range v {
		if val != 0.0 {
			return false
		}
	}
	return true
}

// isValidVector reports whether v can take part in a cosine
func isValidVector(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	return !isZeroVector(v)
}

// dot accumulates in float64 so long vectors keep their precision
func dot(v1, v2 []float32) float64 {
	var sum float64
	for i := range v1 {
		sum += float64(v1[i]) * float64(v2[i])
	}
	return sum
}

// clampUnit clamps a cosine to [-1, 1] to absorb floating point drift
func clampUnit(similarity float64) float64 {
	if similarity > 1.0 {
		return 1.0
	} else if similarity < -1.0 {
		return -1.0
	}
	return similarity
}

// normalized returns a unit-length copy of v, or false for invalid vectors
func normalized(v []float32) ([]float32, bool) {
	if !isValidVector(v) {
		return nil, false
	}
	magnitude := search.Float32s(v).Magnitude()
	if magnitude == 0 {
		return nil, false
	}

	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = val / magnitude
	}
	return out, true
}

// CosineSimilarity returns the cosine of two rows in [-1, 1], or 0 when either row is
// empty or zero or the dimensions differ
func (*similarityCalculator) CosineSimilarity(v1, v2 []float32) float64 {
	if !isValidVector(v1) || !isValidVector(v2) || len(v1) != len(v2) {
		return 0.0
	}

	norm1 := float64(search.Float32s(v1).Magnitude())
	norm2 := float64(search.Float32s(v2).Magnitude())
	if norm1 == 0.0 || norm2 == 0.0 {
		return 0.0
	}

	return clampUnit(dot(v1, v2) / (norm1 * norm2))
}

// BatchSimilarity scores every candidate against query, computing the query norm once.
// An empty query or candidate list yields an empty slice; unusable candidates score 0.
func (*similarityCalculator) BatchSimilarity(query []float32, candidates [][]float32) []float64 {
	if len(query) == 0 || len(candidates) == 0 {
		return []float64{}
	}

	results := make([]float64, len(candidates))

	queryNorm := float64(search.Float32s(query).Magnitude())
	if queryNorm == 0.0 {
		return results
	}

	for idx, candidate := range candidates {
		if len(candidate) != len(query) {
			continue
		}

		candidateNorm := float64(search.Float32s(candidate).Magnitude())
		if candidateNorm == 0.0 {
			continue
		}

		results[idx] = clampUnit(dot(query, candidate) / (queryNorm * candidateNorm))
	}

	return results
}
