package boltstore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kydenul/word2vec"
)

func trainedStore(t *testing.T) *word2vec.VocabularyStore {
	t.Helper()

	var docs [][]string
	for _, s := range []string{"the cat sat", "the dog sat", "cats and dogs are animals"} {
		docs = append(docs, strings.Fields(s))
	}

	config := word2vec.DefaultConfig()
	config.MinWordFrequency = 1
	config.Window = 2
	config.LayerSize = 8
	config.Workers = 1

	w2v, err := word2vec.NewWord2VecFromConfig(config, word2vec.NewInMemoryCorpus(docs), nil, nil)
	require.NoError(t, err)
	require.NoError(t, w2v.Fit(context.Background()))
	return w2v.Store()
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vocab.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestStore_SaveLoad(t *testing.T) {
	s, path := openTemp(t)

	assert.False(t, s.Exists())
	_, err := s.Load()
	require.ErrorIs(t, err, word2vec.ErrModelNotInitialized)

	store := trainedStore(t)
	require.NoError(t, s.Save(store))
	assert.True(t, s.Exists())
	require.NoError(t, s.Close())

	// reopen to make sure the data hit the file
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	loaded, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, store.LayerSize(), loaded.LayerSize())
	assert.Equal(t, store.InputVectors(), loaded.InputVectors())
	assert.Equal(t, store.NodeVectors(), loaded.NodeVectors())
	require.Equal(t, store.Size(), loaded.Size())
	for i, w := range store.Words() {
		got := loaded.WordAt(i)
		assert.Equal(t, w.Word, got.Word)
		assert.Equal(t, w.Frequency, got.Frequency)
		assert.Equal(t, w.Code, got.Code)
		assert.Equal(t, w.Points, got.Points)
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	require.NoError(t, s.Save(trainedStore(t)))

	small, err := word2vec.NewVocabularyStore(map[string]int64{"x": 2}, 3, 1, word2vec.UnknownFold)
	require.NoError(t, err)
	require.NoError(t, s.Save(small))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())
	assert.Equal(t, 3, loaded.LayerSize())
	assert.True(t, loaded.HasWord("x"))
}

func TestStore_SaveNil(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	require.ErrorIs(t, s.Save(nil), word2vec.ErrModelNotInitialized)
}

func TestStore_BacksTrainingCoordinator(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	store := trainedStore(t)
	require.NoError(t, s.Save(store))

	w2v, err := word2vec.NewWord2VecFromConfig(func() *word2vec.Config {
		c := word2vec.DefaultConfig()
		c.LayerSize = store.LayerSize()
		return c
	}(), word2vec.NewInMemoryCorpus(nil), s, nil)
	require.NoError(t, err)

	assert.Equal(t, word2vec.StateTreeReady, w2v.State())
	assert.Equal(t, store.Vector("cat"), w2v.GetWordVectorMatrix("cat"))
}
