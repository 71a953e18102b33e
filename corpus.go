package word2vec

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// InMemoryCorpus is a Corpus over pre-tokenized documents that also knows its word counts
type InMemoryCorpus struct {
	documents   [][]string
	frequencies map[string]int64
}

var (
	_ Corpus          = (*InMemoryCorpus)(nil)
	_ FrequencySource = (*InMemoryCorpus)(nil)
)

// NewInMemoryCorpus creates a corpus over tokenized documents. Empty documents are kept so
// that indices match the input.
func NewInMemoryCorpus(documents [][]string) *InMemoryCorpus {
	corpus := &InMemoryCorpus{
		documents:   documents,
		frequencies: make(map[string]int64),
	}
	for _, doc := range documents {
		for _, token := range doc {
			corpus.frequencies[token]++
		}
	}
	return corpus
}

// NewTextCorpus tokenizes texts with processor. One text is one document.
func NewTextCorpus(texts []string, processor TextProcessor) *InMemoryCorpus {
	if processor == nil {
		processor = NewTextProcessor()
	}
	return NewInMemoryCorpus(processor.PreprocessBatch(texts))
}

// ReadTextCorpus reads one document per non-blank line of r
func ReadTextCorpus(r io.Reader, processor TextProcessor) (*InMemoryCorpus, error) {
	var texts []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewTextCorpus(texts, processor), nil
}

// LoadTextCorpus reads documents from files, one document per non-blank line
func LoadTextCorpus(paths []string, processor TextProcessor) (*InMemoryCorpus, error) {
	if processor == nil {
		processor = NewTextProcessor()
	}

	var documents [][]string
	for _, path := range paths {
		file, err := os.Open(path) //nolint:gosec
		if err != nil {
			return nil, err
		}

		corpus, err := ReadTextCorpus(file, processor)
		_ = file.Close()
		if err != nil {
			return nil, err
		}
		documents = append(documents, corpus.documents...)
	}

	return NewInMemoryCorpus(documents), nil
}

// NumDocuments returns the number of documents
func (c *InMemoryCorpus) NumDocuments() int { return len(c.documents) }

// Document returns the tokens of the document at index
func (c *InMemoryCorpus) Document(index int) []string {
	if index < 0 || index >= len(c.documents) {
		return nil
	}
	return c.documents[index]
}

// WordFrequencies returns a copy of the token counts
func (c *InMemoryCorpus) WordFrequencies() map[string]int64 {
	out := make(map[string]int64, len(c.frequencies))
	for k, v := range c.frequencies {
		out[k] = v
	}
	return out
}

// CountFrequencies counts the tokens of every document of corpus
func CountFrequencies(corpus Corpus) map[string]int64 {
	frequencies := make(map[string]int64)
	for i := range corpus.NumDocuments() {
		for _, token := range corpus.Document(i) {
			frequencies[token]++
		}
	}
	return frequencies
}
