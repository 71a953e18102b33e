package word2vec

import (
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
	"unsafe"
)

// UnknownWord is the sentinel token that stands in for filtered, absent and stop words
const UnknownWord = "UNK"

// VocabWord is a vocabulary entry annotated with its Huffman path
type VocabWord struct {
	Word      string  `json:"word"`
	Index     int     `json:"index"`
	Frequency int64   `json:"frequency"`
	Code      []int8  `json:"code,omitempty"`   // branch bits, root to leaf
	Points    []int   `json:"points,omitempty"` // internal node rows, root to parent of leaf
	Score     float64 `json:"-"`                // transient ranking score
}

// VocabularyStore holds the vocabulary together with the input matrix (syn0, N x D) and
// the internal-node matrix (syn1, (N-1) x D).
//
// The matrices are shared by all training workers without synchronization. Rows returned
// by Vector, VectorAt and NodeVector alias the matrices and may change while a training
// run is in progress.
type VocabularyStore struct {
	words     []*VocabWord
	byWord    map[string]*VocabWord
	unknown   *VocabWord
	layerSize int

	inputVectors []float32
	nodeVectors  []float32

	// Statistics tracking
	totalLookups atomic.Int64 // Total number of vector lookups
	oovLookups   atomic.Int64 // Number of lookups that fell back to UnknownWord
	hitLookups   atomic.Int64 // Number of successful lookups
}

// NewVocabularyStore builds a store from raw word counts. Words below minWordFrequency are
// filtered according to policy. The result is ordered by descending frequency with ties
// broken by ascending text, and always contains UnknownWord. Matrices are allocated but
// not initialized; call ResetWeights before training.
func NewVocabularyStore(
	frequencies map[string]int64,
	layerSize, minWordFrequency int,
	policy UnknownPolicy,
) (*VocabularyStore, error) {
	if len(frequencies) == 0 {
		return nil, fmt.Errorf("%w: empty frequency table", ErrInvalidConfiguration)
	}
	if layerSize <= 0 {
		return nil, fmt.Errorf("%w: layer size must be positive, got %d", ErrInvalidConfiguration, layerSize)
	}

	var unknownCount int64
	words := make([]*VocabWord, 0, len(frequencies)+1)
	for text, count := range frequencies {
		if text == UnknownWord {
			unknownCount += count
			continue
		}

		if count < int64(minWordFrequency) || count <= 0 {
			if policy != UnknownDiscard && count > 0 {
				unknownCount += count
			}
			continue
		}

		words = append(words, &VocabWord{Word: text, Frequency: count})
	}

	words = append(words, &VocabWord{Word: UnknownWord, Frequency: max(unknownCount, 1)})

	sort.Slice(words, func(i, j int) bool {
		if words[i].Frequency != words[j].Frequency {
			return words[i].Frequency > words[j].Frequency
		}
		return words[i].Word < words[j].Word
	})

	store := &VocabularyStore{
		words:     words,
		byWord:    make(map[string]*VocabWord, len(words)),
		layerSize: layerSize,
	}
	for i, w := range words {
		w.Index = i
		store.byWord[w.Word] = w
	}
	store.unknown = store.byWord[UnknownWord]
	store.allocate()

	return store, nil
}

// RestoreVocabularyStore rebuilds a store from persisted parts. Words must carry dense
// indices matching their position. A nil nodeVectors is replaced by a zero matrix, which
// is how query-only stores loaded from text vectors are represented.
func RestoreVocabularyStore(
	layerSize int,
	words []*VocabWord,
	inputVectors, nodeVectors []float32,
) (*VocabularyStore, error) {
	if layerSize <= 0 {
		return nil, fmt.Errorf("%w: layer size must be positive, got %d", ErrInvalidConfiguration, layerSize)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidVocabulary)
	}

	n := len(words)
	if len(inputVectors) != n*layerSize {
		return nil, fmt.Errorf("%w: input matrix has %d values, want %d",
			ErrDimensionMismatch, len(inputVectors), n*layerSize)
	}
	if nodeVectors == nil {
		nodeVectors = make([]float32, (n-1)*layerSize)
	}
	if len(nodeVectors) != (n-1)*layerSize {
		return nil, fmt.Errorf("%w: node matrix has %d values, want %d",
			ErrDimensionMismatch, len(nodeVectors), (n-1)*layerSize)
	}

	store := &VocabularyStore{
		words:        words,
		byWord:       make(map[string]*VocabWord, n),
		layerSize:    layerSize,
		inputVectors: inputVectors,
		nodeVectors:  nodeVectors,
	}

	for i, w := range words {
		if w == nil || w.Index != i {
			return nil, fmt.Errorf("%w: word at position %d has a mismatched index", ErrInvalidVocabulary, i)
		}
		if _, dup := store.byWord[w.Word]; dup {
			return nil, fmt.Errorf("%w: duplicate word %q", ErrInvalidVocabulary, w.Word)
		}
		if err := validatePath(w, n); err != nil {
			return nil, err
		}
		store.byWord[w.Word] = w
	}

	unknown, ok := store.byWord[UnknownWord]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s entry", ErrInvalidVocabulary, UnknownWord)
	}
	store.unknown = unknown

	return store, nil
}

// validatePath checks the Huffman annotations of a single word against a vocabulary of n words
func validatePath(w *VocabWord, n int) error {
	if len(w.Code) != len(w.Points) {
		return fmt.Errorf("%w: word %q has %d code bits and %d points",
			ErrInvalidVocabulary, w.Word, len(w.Code), len(w.Points))
	}
	for i, p := range w.Points {
		if p < 0 || p >= n-1 {
			return fmt.Errorf("%w: word %q point %d out of range", ErrInvalidVocabulary, w.Word, p)
		}
		if w.Code[i] != 0 && w.Code[i] != 1 {
			return fmt.Errorf("%w: word %q has a non-binary code", ErrInvalidVocabulary, w.Word)
		}
	}
	return nil
}

func (s *VocabularyStore) allocate() {
	n := len(s.words)
	s.inputVectors = make([]float32, n*s.layerSize)
	s.nodeVectors = make([]float32, max(n-1, 0)*s.layerSize)
}

// ResetWeights initializes syn0 uniformly in [-0.5/D, 0.5/D) from seed and zeroes syn1
func (s *VocabularyStore) ResetWeights(seed int64) {
	r := rand.New(rand.NewSource(seed))
	scale := float32(s.layerSize)
	for i := range s.inputVectors {
		s.inputVectors[i] = (r.Float32() - 0.5) / scale
	}
	clear(s.nodeVectors)
}

// Lookup returns the index of text
func (s *VocabularyStore) Lookup(text string) (int, bool) {
	w, ok := s.byWord[text]
	if !ok {
		return -1, false
	}
	return w.Index, true
}

// WordFor returns the entry for text, or nil when absent
func (s *VocabularyStore) WordFor(text string) *VocabWord {
	return s.byWord[text]
}

// WordAt returns the entry at index, or nil when out of range
func (s *VocabularyStore) WordAt(index int) *VocabWord {
	if index < 0 || index >= len(s.words) {
		return nil
	}
	return s.words[index]
}

// HasWord reports whether text is in the vocabulary
func (s *VocabularyStore) HasWord(text string) bool {
	_, ok := s.byWord[text]
	return ok
}

// Unknown returns the UnknownWord entry
func (s *VocabularyStore) Unknown() *VocabWord { return s.unknown }

// Size returns the number of words including UnknownWord
func (s *VocabularyStore) Size() int { return len(s.words) }

// Words returns the vocabulary in index order. The slice must not be modified.
func (s *VocabularyStore) Words() []*VocabWord { return s.words }

// LayerSize returns the vector dimension
func (s *VocabularyStore) LayerSize() int { return s.layerSize }

// InputVectors returns the flat syn0 matrix
func (s *VocabularyStore) InputVectors() []float32 { return s.inputVectors }

// NodeVectors returns the flat syn1 matrix
func (s *VocabularyStore) NodeVectors() []float32 { return s.nodeVectors }

// VectorAt returns the syn0 row of the word at index
func (s *VocabularyStore) VectorAt(index int) []float32 {
	if index < 0 || index >= len(s.words) {
		return nil
	}
	off := index * s.layerSize
	return s.inputVectors[off : off+s.layerSize : off+s.layerSize]
}

// NodeVector returns the syn1 row of internal node k
func (s *VocabularyStore) NodeVector(k int) []float32 {
	if k < 0 || k >= len(s.words)-1 {
		return nil
	}
	off := k * s.layerSize
	return s.nodeVectors[off : off+s.layerSize : off+s.layerSize]
}

// Vector returns the syn0 row for text, falling back to the UnknownWord row for absent words.
// The fallback is counted as an OOV lookup.
func (s *VocabularyStore) Vector(text string) []float32 {
	s.totalLookups.Add(1)

	if w, ok := s.byWord[text]; ok {
		s.hitLookups.Add(1)
		return s.VectorAt(w.Index)
	}

	s.oovLookups.Add(1)
	return s.VectorAt(s.unknown.Index)
}

// AverageVector computes mean pooling over the in-vocabulary words. Absent words are
// skipped rather than replaced by UnknownWord. Returns false if no word was found.
func (s *VocabularyStore) AverageVector(words []string) ([]float32, bool) {
	if len(words) == 0 {
		return nil, false
	}

	var sum []float32
	validWords := 0

	for _, word := range words {
		s.totalLookups.Add(1)

		w, ok := s.byWord[word]
		if !ok {
			s.oovLookups.Add(1)
			continue
		}

		s.hitLookups.Add(1)
		if sum == nil {
			sum = make([]float32, s.layerSize)
		}
		for i, val := range s.VectorAt(w.Index) {
			sum[i] += val
		}
		validWords++
	}

	if validWords == 0 {
		return nil, false
	}

	for i := range sum {
		sum[i] /= float32(validWords)
	}
	return sum, true
}

// GetOOVRate returns the rate of lookups that fell back to UnknownWord (0.0 to 1.0)
func (s *VocabularyStore) GetOOVRate() float64 {
	total := s.totalLookups.Load()
	if total == 0 {
		return 0.0
	}
	return float64(s.oovLookups.Load()) / float64(total)
}

// GetLookupStats returns the total, OOV and hit lookup counters
func (s *VocabularyStore) GetLookupStats() (totalLookups, oovLookups, hitLookups int64) {
	return s.totalLookups.Load(), s.oovLookups.Load(), s.hitLookups.Load()
}

// ResetStats resets all statistics counters
func (s *VocabularyStore) ResetStats() {
	s.totalLookups.Store(0)
	s.oovLookups.Store(0)
	s.hitLookups.Store(0)
}

// MemoryUsage returns estimated memory usage in bytes
func (s *VocabularyStore) MemoryUsage() int64 {
	var total int64
	for _, w := range s.words {
		// - entry struct plus its map slot (approximately 48 bytes)
		// - string data, code bits and point indices
		total += int64(unsafe.Sizeof(*w)) + 48
		total += int64(len(w.Word)) + int64(len(w.Code)) + int64(len(w.Points))*int64(unsafe.Sizeof(int(0)))
	}
	total += int64(len(s.inputVectors)+len(s.nodeVectors)) * 4
	return total
}
