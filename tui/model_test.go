package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kydenul/word2vec"
)

type fakeModel struct {
	nearestN int
	accuracy float64
}

func (f *fakeModel) HasWord(word string) bool { return word != "zebra" }

func (f *fakeModel) WordsNearest(_ string, n int) []string {
	f.nearestN = n
	return []string{"dog", "cats"}[:min(n, 2)]
}

func (f *fakeModel) Similarity(word1, word2 string) float64 {
	if word1 == word2 {
		return 1
	}
	return 0.5
}

func (f *fakeModel) Analogy(_, _, _ string) []word2vec.VocabWord {
	return []word2vec.VocabWord{{Word: "queen", Score: 0.9}}
}

func (f *fakeModel) SimilarWordsInVocabTo(_ string, accuracy float64) []string {
	f.accuracy = accuracy
	return []string{"color", "colour"}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		contains []string
	}{
		{"Nearest", "near cat 2", []string{"1. dog", "2. cats", "0.5000"}},
		{"NearestUnknown", "near zebra 1", []string{"not in the vocabulary", word2vec.UnknownWord}},
		{"Similarity", "sim cat dog", []string{"similarity(cat, dog) = 0.5000"}},
		{"Analogy", "analogy man king woman", []string{"queen", "0.9000"}},
		{"Like", "like colr 0.5", []string{"color\ncolour"}},
		{"CaseInsensitiveCommand", "SIM a a", []string{"= 1.0000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Execute(&fakeModel{}, tt.line)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestExecute_Defaults(t *testing.T) {
	f := &fakeModel{}

	_, err := Execute(f, "near cat")
	require.NoError(t, err)
	assert.Equal(t, defaultNearest, f.nearestN)

	_, err = Execute(f, "like colour")
	require.NoError(t, err)
	assert.Equal(t, defaultAccuracy, f.accuracy)
}

func TestExecute_Usage(t *testing.T) {
	for _, line := range []string{
		"",
		"near",
		"near cat many",
		"near cat 0",
		"sim cat",
		"analogy a b",
		"like x 1.5",
		"like x y",
		"fly away",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := Execute(&fakeModel{}, line)
			assert.ErrorIs(t, err, ErrUsage)
		})
	}
}

func TestModel_EnterRunsCommand(t *testing.T) {
	m := New(&fakeModel{}, "toy model")

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Model)

	m.input.SetValue("sim cat dog")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Contains(t, m.output, "0.5000")
	assert.Contains(t, m.status, "sim cat dog")
	assert.Empty(t, m.input.Value())
	assert.Equal(t, []string{"sim cat dog"}, m.history)
	assert.True(t, strings.Contains(m.View(), "word2vec"))

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	assert.Equal(t, "sim cat dog", m.input.Value())
}

func TestModel_ErrorStatus(t *testing.T) {
	m := New(&fakeModel{}, "")

	m.input.SetValue("bogus")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.True(t, strings.HasPrefix(m.status, "Error: "))
	assert.Empty(t, m.output)
}
