package word2vec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemoryCorpus(t *testing.T) {
	corpus := NewInMemoryCorpus([][]string{{"a", "b", "a"}, {}, {"c"}})

	assert.Equal(t, 3, corpus.NumDocuments())
	assert.Equal(t, []string{"c"}, corpus.Document(2))
	assert.Empty(t, corpus.Document(1))
	assert.Nil(t, corpus.Document(-1))
	assert.Nil(t, corpus.Document(3))
	assert.Equal(t, map[string]int64{"a": 2, "b": 1, "c": 1}, corpus.WordFrequencies())
}

func TestInMemoryCorpus_WordFrequenciesIsCopy(t *testing.T) {
	corpus := NewInMemoryCorpus([][]string{{"a"}})

	freqs := corpus.WordFrequencies()
	freqs["a"] = 100
	assert.Equal(t, int64(1), corpus.WordFrequencies()["a"])
}

func TestCountFrequencies(t *testing.T) {
	corpus := plainCorpus{docs: [][]string{{"x", "y"}, {"y"}}}
	assert.Equal(t, map[string]int64{"x": 1, "y": 2}, CountFrequencies(corpus))
}

func TestNewTextCorpus(t *testing.T) {
	corpus := NewTextCorpus([]string{"The cat sat", "Dogs bark"}, nil)

	require.Equal(t, 2, corpus.NumDocuments())
	assert.Equal(t, []string{UnknownWord, "cat", "sat"}, corpus.Document(0))
	assert.Equal(t, []string{"dogs", "bark"}, corpus.Document(1))
	assert.Equal(t, int64(1), corpus.WordFrequencies()[UnknownWord])
}

func TestReadTextCorpus_SkipsBlankLines(t *testing.T) {
	input := "first line here\n\n   \nsecond line\n"

	corpus, err := ReadTextCorpus(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, corpus.NumDocuments())
	assert.Equal(t, []string{"second", "line"}, corpus.Document(1))
}

func TestLoadTextCorpus(t *testing.T) {
	dir := t.TempDir()
	path1 := filepath.Join(dir, "a.txt")
	path2 := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(path1, []byte("cats sleep\ndogs run\n"), 0o644))
	require.NoError(t, os.WriteFile(path2, []byte("birds fly\n"), 0o644))

	corpus, err := LoadTextCorpus([]string{path1, path2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, corpus.NumDocuments())
	assert.Equal(t, []string{"birds", "fly"}, corpus.Document(2))

	_, err = LoadTextCorpus([]string{filepath.Join(dir, "missing.txt")}, nil)
	assert.Error(t, err)
}
