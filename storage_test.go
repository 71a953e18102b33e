package word2vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	storage := NewMemoryStorage(nil)
	assert.False(t, storage.Exists())

	_, err := storage.Load()
	require.ErrorIs(t, err, ErrModelNotInitialized)
	require.ErrorIs(t, storage.Save(nil), ErrModelNotInitialized)

	store := newTestStore(t, map[string]int64{"a": 3, "b": 2}, 4)
	require.NoError(t, storage.Save(store))
	assert.True(t, storage.Exists())

	loaded, err := storage.Load()
	require.NoError(t, err)
	assert.Same(t, store, loaded)
}

func TestMarshalStore_RoundTrip(t *testing.T) {
	c := newTestCoordinator(t, toyConfig(), toyCorpus(1), nil)
	require.NoError(t, c.Train(t.Context()))
	store := c.Store()

	data, err := MarshalStore(store)
	require.NoError(t, err)

	restored, err := UnmarshalStore(data)
	require.NoError(t, err)
	assert.Equal(t, store.LayerSize(), restored.LayerSize())
	assert.Equal(t, store.InputVectors(), restored.InputVectors())
	assert.Equal(t, store.NodeVectors(), restored.NodeVectors())
	for i, w := range store.Words() {
		assert.Equal(t, *w, *restored.WordAt(i))
	}

	_, err = UnmarshalStore(data[:len(data)-1])
	require.ErrorIs(t, err, ErrInvalidModelFormat)

	_, err = UnmarshalStore(append(data, 0))
	require.ErrorIs(t, err, ErrInvalidModelFormat)

	_, err = MarshalStore(nil)
	require.ErrorIs(t, err, ErrModelNotInitialized)
}

func TestVectorCodecs(t *testing.T) {
	vec := []float32{0, -1.5, 3.25e-7, 42}
	decoded, err := DecodeVector(EncodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = DecodeVector([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidModelFormat)

	points := []int{0, 7, 1 << 20}
	decodedPoints, err := DecodePoints(EncodePoints(points))
	require.NoError(t, err)
	assert.Equal(t, points, decodedPoints)

	code := []int8{1, 0, 0, 1}
	assert.Equal(t, code, DecodeCode(EncodeCode(code)))
}
