package word2vec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// LoadProgressCallback is called while a vector file is read
type LoadProgressCallback func(loaded, total int, memoryUsage int64)

// EmbeddingLoader reads word vectors in the .vec text format into a query-only store.
// The resulting store has no Huffman paths and a zero node matrix; it answers queries but
// cannot continue training.
type EmbeddingLoader struct {
	logger           Logger
	progressCallback LoadProgressCallback
}

// NewEmbeddingLoader creates a new EmbeddingLoader instance
func NewEmbeddingLoader(logger Logger) *EmbeddingLoader {
	return &EmbeddingLoader{logger: orDiscard(logger)}
}

// SetProgressCallback sets a callback for progress reporting during loading
func (el *EmbeddingLoader) SetProgressCallback(callback LoadProgressCallback) {
	el.progressCallback = callback
}

// LoadFromFile loads vectors from .vec text format file
func (el *EmbeddingLoader) LoadFromFile(path string) (*VocabularyStore, error) {
	el.logger.Infof("Loading vector file, path: %s", path)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrVectorFileNotFound
	}

	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer file.Close()

	return el.LoadFromReader(file)
}

// LoadFromReader loads vectors from any io.Reader. Malformed lines are skipped, a repeated
// word keeps its last vector, and UnknownWord is appended as the mean vector when the file
// does not define it.
//
//nolint:cyclop
func (el *EmbeddingLoader) LoadFromReader(reader io.Reader) (*VocabularyStore, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	// Read first line to get word count and dimension
	if !scanner.Scan() {
		return nil, ErrInvalidVectorFormat
	}

	parts := strings.Fields(scanner.Text())
	if len(parts) != 2 {
		return nil, fmt.Errorf(
			"%w: first line must contain word count and dimension",
			ErrInvalidVectorFormat,
		)
	}

	wordCount, err := cast.ToIntE(parts[0])
	if err != nil || wordCount <= 0 {
		return nil, fmt.Errorf("%w: invalid word count in first line", ErrInvalidVectorFormat)
	}

	dimension, err := cast.ToIntE(parts[1])
	if err != nil || dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension in first line", ErrInvalidVectorFormat)
	}

	el.logger.Infof("Vector file header parsed, word_count: %d, dimension: %d",
		wordCount, dimension)

	var (
		words      = make([]*VocabWord, 0, wordCount+1)
		byWord     = make(map[string]*VocabWord, wordCount+1)
		flat       = make([]float32, 0, (wordCount+1)*dimension)
		lineNumber = 1
	)

	progressInterval := 10000 // Report progress every 10k vectors
	if wordCount < 10000 {
		progressInterval = 1000
	}

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Parse vector line: "word value1 value2 ... valueN"
		parts := strings.Fields(line)
		if len(parts) != dimension+1 {
			el.logger.Warnf(
				"Skipping invalid line, line_number: %d, expected_parts: %d, actual_parts: %d",
				lineNumber, dimension+1, len(parts))
			continue
		}

		word := parts[0]
		vector := make([]float32, dimension)

		parseError := false
		for i := 1; i <= dimension; i++ {
			val, err := cast.ToFloat32E(parts[i])
			if err != nil {
				el.logger.Warnf(
					"Skipping line with invalid float value, line_number: %d, word: %s, value: %s",
					lineNumber, word, parts[i])
				parseError = true
				break
			}
			vector[i-1] = val
		}
		if parseError {
			continue
		}

		if existing, ok := byWord[word]; ok {
			copy(flat[existing.Index*dimension:], vector)
			continue
		}

		w := &VocabWord{Word: word, Index: len(words), Frequency: 1}
		words = append(words, w)
		byWord[word] = w
		flat = append(flat, vector...)

		if len(words)%progressInterval == 0 {
			memUsage := int64(len(flat)) * 4
			el.logger.Infof(
				"Loading progress, loaded_vectors: %d, target: %d, progress_pct: %.2f, memory_mb: %.2f",
				len(words), wordCount,
				float64(len(words))/float64(wordCount)*100,
				float64(memUsage)/(1024*1024),
			)
			if el.progressCallback != nil {
				el.progressCallback(len(words), wordCount, memUsage)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading vector file: %w", err)
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("%w: no valid vectors", ErrInvalidVectorFormat)
	}

	loadedVectors := len(words)
	if _, ok := byWord[UnknownWord]; !ok {
		words = append(words, &VocabWord{Word: UnknownWord, Index: len(words), Frequency: 1})
		flat = append(flat, meanVector(flat, dimension)...)
	}

	store, err := RestoreVocabularyStore(dimension, words, flat, nil)
	if err != nil {
		return nil, err
	}

	el.logger.Infof(
		"Vector loading completed, loaded_vectors: %d, expected_vectors: %d, dimension: %d, "+
			"vocabulary_size: %d, memory_usage_mb: %.2f",
		loadedVectors, wordCount, dimension, store.Size(),
		float64(store.MemoryUsage())/(1024*1024),
	)

	if el.progressCallback != nil {
		el.progressCallback(loadedVectors, wordCount, store.MemoryUsage())
	}

	if loadedVectors != wordCount {
		el.logger.Warnf(
			"Loaded vector count differs from header, expected: %d, actual: %d",
			wordCount, loadedVectors)
	}

	return store, nil
}

// meanVector averages the rows of a flat matrix
func meanVector(flat []float32, dimension int) []float32 {
	mean := make([]float32, dimension)
	rows := len(flat) / dimension
	if rows == 0 {
		return mean
	}
	for r := range rows {
		for i, val := range flat[r*dimension : (r+1)*dimension] {
			mean[i] += val
		}
	}
	for i := range mean {
		mean[i] /= float32(rows)
	}
	return mean
}

// WriteVectors writes the input matrix of store in .vec text format, most frequent words
// first. maxWords <= 0 writes every word.
func WriteVectors(w io.Writer, store *VocabularyStore, maxWords int) error {
	if store == nil {
		return ErrModelNotInitialized
	}

	count := store.Size()
	if maxWords > 0 {
		count = min(count, maxWords)
	}

	writer := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(writer, "%d %d\n", count, store.LayerSize()); err != nil {
		return err
	}

	buf := make([]byte, 0, 64)
	for _, word := range store.Words()[:count] {
		if _, err := writer.WriteString(word.Word); err != nil {
			return err
		}
		for _, val := range store.VectorAt(word.Index) {
			buf = append(buf[:0], ' ')
			buf = strconv.AppendFloat(buf, float64(val), 'g', -1, 32)
			if _, err := writer.Write(buf); err != nil {
				return err
			}
		}
		if err := writer.WriteByte('\n'); err != nil {
			return err
		}
	}

	return writer.Flush()
}

// SaveVectors writes store to path in .vec text format
func SaveVectors(path string, store *VocabularyStore, maxWords int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}

	if err := WriteVectors(file, store, maxWords); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
