package word2vec

import (
	"math"
	"sort"
)

// topN keeps the highest scoring entries seen so far. Once full, a new entry replaces the
// current minimum only when its score is strictly greater.
type topN struct {
	capacity int
	entries  []VocabWord
}

func newTopN(capacity int) *topN {
	return &topN{capacity: capacity, entries: make([]VocabWord, 0, capacity)}
}

func (t *topN) insert(w *VocabWord, score float64) {
	if t.capacity <= 0 {
		return
	}

	entry := VocabWord{Word: w.Word, Index: w.Index, Frequency: w.Frequency, Score: score}
	if len(t.entries) < t.capacity {
		t.entries = append(t.entries, entry)
		return
	}

	minOffset := 0
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].Score < t.entries[minOffset].Score {
			minOffset = i
		}
	}
	if score > t.entries[minOffset].Score {
		t.entries[minOffset] = entry
	}
}

// sorted returns the entries by descending score, ties by ascending index
func (t *topN) sorted() []VocabWord {
	out := make([]VocabWord, len(t.entries))
	copy(out, t.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// QueryEngine answers similarity questions against the input matrix of a store.
// Lookups never fail: absent words resolve to UnknownWord and degenerate cases produce
// -1 or empty results. Queries issued while training runs observe in-flight weights.
type QueryEngine struct {
	store      *VocabularyStore
	topNSize   int
	calculator SimilarityCalculator
}

// NewQueryEngine creates a query engine whose analogy and distance results hold at most
// topNSize entries
func NewQueryEngine(store *VocabularyStore, topNSize int) *QueryEngine {
	if topNSize <= 0 {
		topNSize = DefaultTopNSize
	}
	return &QueryEngine{
		store:      store,
		topNSize:   topNSize,
		calculator: NewSimilarityCalculator(),
	}
}

// resolve returns the entry for word, falling back to UnknownWord
func (q *QueryEngine) resolve(word string) *VocabWord {
	if w := q.store.WordFor(word); w != nil {
		return w
	}
	return q.store.Unknown()
}

// WordVector returns the input row of word, or of UnknownWord when absent
func (q *QueryEngine) WordVector(word string) []float32 {
	if q.store == nil || q.store.Size() == 0 {
		return nil
	}
	return q.store.Vector(word)
}

// NormalizedVector returns a unit-length copy of the row WordVector resolves to
func (q *QueryEngine) NormalizedVector(word string) []float32 {
	v, ok := normalized(q.WordVector(word))
	if !ok {
		return nil
	}
	return v
}

// Similarity returns the cosine similarity of two words. Identical texts score 1.0 and a
// missing or zero vector scores -1.
func (q *QueryEngine) Similarity(word1, word2 string) float64 {
	if word1 == word2 {
		return 1.0
	}

	v1 := q.WordVector(word1)
	v2 := q.WordVector(word2)
	if !isValidVector(v1) || !isValidVector(v2) {
		return -1
	}

	return q.calculator.CosineSimilarity(v1, v2)
}

// WordsNearest returns up to n words ranked by cosine similarity to word. The query word
// and the row it resolves to are excluded; ties keep vocabulary order.
func (q *QueryEngine) WordsNearest(word string, n int) []string {
	if n <= 0 || q.store == nil || q.store.Size() < 2 {
		return []string{}
	}

	query, ok := normalized(q.WordVector(word))
	if !ok {
		return []string{}
	}
	self := q.resolve(word).Index

	type candidate struct {
		word  string
		score float64
	}
	words := make([]string, 0, q.store.Size()-1)
	rows := make([][]float32, 0, q.store.Size()-1)
	for _, w := range q.store.Words() {
		if w.Index == self || w.Word == word {
			continue
		}
		words = append(words, w.Word)
		rows = append(rows, q.store.VectorAt(w.Index))
	}

	candidates := make([]candidate, len(words))
	for i, score := range q.calculator.BatchSimilarity(query, rows) {
		candidates[i] = candidate{word: words[i], score: score}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	n = min(n, len(candidates))
	out := make([]string, n)
	for i := range n {
		out[i] = candidates[i].word
	}
	return out
}

// Analogy ranks words by dot product with b - a + c, excluding the three inputs. At most
// topNSize entries are returned, best first, each carrying its Score.
func (q *QueryEngine) Analogy(a, b, c string) []VocabWord {
	if q.store == nil || q.store.Size() == 0 {
		return []VocabWord{}
	}

	va, vb, vc := q.WordVector(a), q.WordVector(b), q.WordVector(c)
	target := make([]float32, q.store.LayerSize())
	for i := range target {
		target[i] = vb[i] - va[i] + vc[i]
	}

	top := newTopN(q.topNSize)
	for _, w := range q.store.Words() {
		if w.Word == a || w.Word == b || w.Word == c {
			continue
		}
		top.insert(w, dot(target, q.store.VectorAt(w.Index)))
	}
	return top.sorted()
}

// AnalogyWords returns the words of Analogy in rank order
func (q *QueryEngine) AnalogyWords(a, b, c string) []string {
	return wordsOf(q.Analogy(a, b, c))
}

// Distance ranks words by raw dot product with word, excluding word itself
func (q *QueryEngine) Distance(word string) []VocabWord {
	if q.store == nil || q.store.Size() == 0 {
		return []VocabWord{}
	}

	query := q.WordVector(word)
	top := newTopN(q.topNSize)
	for _, w := range q.store.Words() {
		if w.Word == word {
			continue
		}
		top.insert(w, dot(query, q.store.VectorAt(w.Index)))
	}
	return top.sorted()
}

// SimilarWordsInVocabTo returns the vocabulary words whose character make-up is at least
// accuracy similar to word, in vocabulary order
func (q *QueryEngine) SimilarWordsInVocabTo(word string, accuracy float64) []string {
	out := []string{}
	if q.store == nil {
		return out
	}
	for _, w := range q.store.Words() {
		if StringSimilarity(word, w.Word) >= accuracy {
			out = append(out, w.Word)
		}
	}
	return out
}

// StringSimilarity is the cosine similarity of the character counts of two strings.
// Empty strings score 0.
func StringSimilarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0
	}

	counts1 := make(map[rune]float64)
	for _, r := range s1 {
		counts1[r]++
	}
	counts2 := make(map[rune]float64)
	for _, r := range s2 {
		counts2[r]++
	}

	var dotProduct, norm1, norm2 float64
	for r, c1 := range counts1 {
		dotProduct += c1 * counts2[r]
		norm1 += c1 * c1
	}
	for _, c2 := range counts2 {
		norm2 += c2 * c2
	}

	return clampUnit(dotProduct / math.Sqrt(norm1*norm2))
}

func wordsOf(entries []VocabWord) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Word
	}
	return out
}
