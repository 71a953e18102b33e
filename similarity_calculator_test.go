package word2vec

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	calc := NewSimilarityCalculator()

	tests := []struct {
		name     string
		v1, v2   []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"opposite", []float32{1, 2, 3}, []float32{-1, -2, -3}, -1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"diagonal", []float32{1, 0, 0}, []float32{1, 1, 0}, 1 / math.Sqrt2},
		{"small word vectors", []float32{0.003, -0.041, 0.02}, []float32{0.006, -0.082, 0.04}, 1},
		{"empty", []float32{}, []float32{}, 0},
		{"nil", nil, []float32{1}, 0},
		{"zero v1", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"zero v2", []float32{1, 2, 3}, []float32{0, 0, 0}, 0},
		{"mismatched dimensions", []float32{1, 2}, []float32{1, 2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calc.CosineSimilarity(tt.v1, tt.v2)
			if math.Abs(result-tt.expected) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, expected %v", result, tt.expected)
			}
			if result > 1 || result < -1 {
				t.Errorf("CosineSimilarity() = %v escaped [-1, 1]", result)
			}
		})
	}
}

func TestBatchSimilarity(t *testing.T) {
	calc := NewSimilarityCalculator()
	query := []float32{1, 2, 3}

	candidates := [][]float32{
		{1, 2, 3},
		{-1, -2, -3},
		{0, 0, 0},
		{1, 2},
		{0, 1, 0},
	}

	results := calc.BatchSimilarity(query, candidates)
	expected := []float64{1, -1, 0, 0, 2 / math.Sqrt(14)}

	if len(results) != len(expected) {
		t.Fatalf("BatchSimilarity() returned %d results, expected %d", len(results), len(expected))
	}
	for i := range results {
		if math.Abs(results[i]-expected[i]) > 1e-6 {
			t.Errorf("BatchSimilarity()[%d] = %v, expected %v", i, results[i], expected[i])
		}
		// batch and pairwise scoring must agree
		if single := calc.CosineSimilarity(query, candidates[i]); math.Abs(single-results[i]) > 1e-9 {
			t.Errorf("BatchSimilarity()[%d] = %v, CosineSimilarity = %v", i, results[i], single)
		}
	}

	if got := calc.BatchSimilarity(nil, [][]float32{{1}}); len(got) != 0 {
		t.Errorf("Expected empty result for empty query, got %v", got)
	}
	if got := calc.BatchSimilarity(query, nil); len(got) != 0 {
		t.Errorf("Expected empty result for no candidates, got %v", got)
	}
	if got := calc.BatchSimilarity([]float32{0, 0, 0}, [][]float32{{1, 2, 3}}); got[0] != 0 {
		t.Errorf("Expected 0 for zero query, got %v", got)
	}
}

func TestNormalized(t *testing.T) {
	v, ok := normalized([]float32{3, 4})
	if !ok {
		t.Fatal("Expected valid vector to normalize")
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Expected [0.6 0.8], got %v", v)
	}

	for _, invalid := range [][]float32{nil, {}, {0, 0}} {
		if _, ok := normalized(invalid); ok {
			t.Errorf("Expected %v to be rejected", invalid)
		}
	}
}

func TestDot(t *testing.T) {
	if got := dot([]float32{1, 2, 3}, []float32{4, 5, 6}); got != 32 {
		t.Errorf("Expected 32, got %v", got)
	}
	if got := dot(nil, nil); got != 0 {
		t.Errorf("Expected 0 for empty vectors, got %v", got)
	}
}

func TestClampUnit(t *testing.T) {
	tests := map[float64]float64{1.0000001: 1, -1.0000001: -1, 0.5: 0.5}
	for in, want := range tests {
		if got := clampUnit(in); got != want {
			t.Errorf("clampUnit(%v) = %v, expected %v", in, got, want)
		}
	}
}

func BenchmarkCosineSimilarity(b *testing.B) {
	calc := NewSimilarityCalculator()
	v1 := make([]float32, 300)
	v2 := make([]float32, 300)

	for i := range v1 {
		v1[i] = float32(i) * 0.01
		v2[i] = float32(i) * 0.02
	}

	for b.Loop() {
		calc.CosineSimilarity(v1, v2)
	}
}
