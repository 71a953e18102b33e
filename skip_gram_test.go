package word2vec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoidTable(t *testing.T) {
	for _, x := range []float32{-5.9, -2, -0.5, 0, 0.5, 2, 5.9} {
		got, ok := sigmoid(x)
		require.True(t, ok, "x=%v", x)

		want := 1 / (1 + math.Exp(-float64(x)))
		assert.InDelta(t, want, float64(got), 0.01, "x=%v", x)
	}

	for _, x := range []float32{-MaxExp, MaxExp, -10, 10} {
		_, ok := sigmoid(x)
		assert.False(t, ok, "x=%v must fall outside the table", x)
	}
}

// trainedPair returns a store over two annotated words with deterministic weights
func trainedPair(t *testing.T) (*VocabularyStore, *VocabWord, *VocabWord) {
	t.Helper()

	store := newTestStore(t, map[string]int64{"a": 5, "b": 3}, 4)
	_, err := EncodeHuffman(store.Words())
	require.NoError(t, err)
	store.ResetWeights(1)

	return store, store.WordFor("a"), store.WordFor("b")
}

func TestSkipGramTrainer_Train(t *testing.T) {
	store, a, b := trainedPair(t)
	trainer := NewSkipGramTrainer(store)

	centerBefore := append([]float32(nil), store.VectorAt(a.Index)...)
	otherBefore := append([]float32(nil), store.VectorAt(b.Index)...)

	require.NoError(t, trainer.Train(a, b, 0.025))

	// With zeroed node rows the first step only moves the node rows
	assert.Equal(t, centerBefore, store.VectorAt(a.Index))

	moved := false
	for _, p := range b.Points {
		for _, v := range store.NodeVector(p) {
			if v != 0 {
				moved = true
			}
		}
	}
	assert.True(t, moved, "node rows on the context path must be updated")

	require.NoError(t, trainer.Train(a, b, 0.025))
	assert.NotEqual(t, centerBefore, store.VectorAt(a.Index), "second step must move the center row")
	assert.Equal(t, otherBefore, store.VectorAt(b.Index), "the context input row is never written")
}

func TestSkipGramTrainer_RaisesProbability(t *testing.T) {
	store, a, b := trainedPair(t)
	trainer := NewSkipGramTrainer(store)

	probability := func() float64 {
		p := 1.0
		l1 := store.VectorAt(a.Index)
		for i, point := range b.Points {
			f := dot(l1, store.NodeVector(point))
			s := 1 / (1 + math.Exp(-f))
			if b.Code[i] == 0 {
				p *= s
			} else {
				p *= 1 - s
			}
		}
		return p
	}

	before := probability()
	for range 50 {
		require.NoError(t, trainer.Train(a, b, 0.1))
	}
	assert.Greater(t, probability(), before)
}

func TestSkipGramTrainer_InvalidWords(t *testing.T) {
	store, a, _ := trainedPair(t)
	trainer := NewSkipGramTrainer(store)

	err := trainer.Train(a, &VocabWord{Word: "x"}, 0.025)
	require.ErrorIs(t, err, ErrInvalidVocabulary)

	err = trainer.Train(a, &VocabWord{Word: "x", Code: []int8{0, 1}, Points: []int{0}}, 0.025)
	require.ErrorIs(t, err, ErrInvalidVocabulary)

	err = trainer.Train(nil, a, 0.025)
	require.ErrorIs(t, err, ErrInvalidVocabulary)

	err = trainer.Train(&VocabWord{Word: "x", Index: 99}, a, 0.025)
	require.ErrorIs(t, err, ErrInvalidVocabulary)
}

func BenchmarkSkipGramTrainer_Train(b *testing.B) {
	freqs := make(map[string]int64, 1000)
	for i := range 1000 {
		freqs[string(rune('a'+i%26))+string(rune('a'+i/26))] = int64(1000 - i)
	}
	store, err := NewVocabularyStore(freqs, 100, 1, UnknownFold)
	if err != nil {
		b.Fatal(err)
	}
	if _, err := EncodeHuffman(store.Words()); err != nil {
		b.Fatal(err)
	}
	store.ResetWeights(1)

	trainer := NewSkipGramTrainer(store)
	center, context := store.WordAt(10), store.WordAt(500)

	for b.Loop() {
		_ = trainer.Train(center, context, 0.025)
	}
}
