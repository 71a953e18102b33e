package word2vec

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

const (
	// MaxExp bounds the dot products the sigmoid table covers
	MaxExp = 6
	// ExpTableSize is the number of precomputed sigmoid values
	ExpTableSize = 1000
)

// expTable[i] = sigmoid(x) for x evenly spaced over [-MaxExp, MaxExp)
var expTable = func() []float32 {
	table := make([]float32, ExpTableSize)
	for i := range table {
		e := math.Exp((float64(i)/ExpTableSize*2 - 1) * MaxExp)
		table[i] = float32(e / (e + 1))
	}
	return table
}()

// sigmoid looks up f in the exp table. ok is false when f lies outside (-MaxExp, MaxExp).
func sigmoid(f float32) (float32, bool) {
	if f <= -MaxExp || f >= MaxExp {
		return 0, false
	}
	idx := int((f + MaxExp) * (float32(ExpTableSize) / MaxExp / 2))
	if idx < 0 || idx >= ExpTableSize {
		return 0, false
	}
	return expTable[idx], true
}

// SkipGramTrainer applies hierarchical softmax gradient steps to a vocabulary store.
//
// Train is called concurrently from many workers against the same matrices without any
// locking. Updates may be lost or interleaved. This is accepted in exchange for
// throughput and does not prevent convergence.
type SkipGramTrainer struct {
	store *VocabularyStore
	dim   int
}

// NewSkipGramTrainer creates a trainer over store
func NewSkipGramTrainer(store *VocabularyStore) *SkipGramTrainer {
	return &SkipGramTrainer{store: store, dim: store.LayerSize()}
}

// Train walks the Huffman path of context and updates the node rows on that path as well
// as the input row of center
func (t *SkipGramTrainer) Train(center, context *VocabWord, alpha float64) error {
	if center == nil || context == nil {
		return fmt.Errorf("%w: nil word in training pair", ErrInvalidVocabulary)
	}
	if len(context.Code) == 0 || len(context.Code) != len(context.Points) {
		return fmt.Errorf("%w: word %q has no usable huffman path", ErrInvalidVocabulary, context.Word)
	}

	l1 := t.store.VectorAt(center.Index)
	if l1 == nil {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidVocabulary, center.Index)
	}

	input := blas32.Vector{N: t.dim, Inc: 1, Data: l1}
	neu1e := blas32.Vector{N: t.dim, Inc: 1, Data: make([]float32, t.dim)}

	for i, point := range context.Points {
		l2 := t.store.NodeVector(point)
		if l2 == nil {
			return fmt.Errorf("%w: point %d out of range", ErrInvalidVocabulary, point)
		}
		node := blas32.Vector{N: t.dim, Inc: 1, Data: l2}

		f, ok := sigmoid(blas32.Dot(input, node))
		if !ok {
			continue
		}

		g := (1 - float32(context.Code[i]) - f) * float32(alpha)
		blas32.Axpy(g, node, neu1e)
		blas32.Axpy(g, input, node)
	}

	blas32.Axpy(1, neu1e, input)
	return nil
}
