package word2vec

import (
	"time"
)

// Corpus supplies the documents a training run iterates over. Documents are addressed by
// a dense index so that units of work can be scheduled independently.
type Corpus interface {
	// NumDocuments returns the number of documents in the corpus
	NumDocuments() int

	// Document returns the tokens of the document at index
	Document(index int) []string
}

// FrequencySource is an optional capability of a Corpus that already knows its word counts
type FrequencySource interface {
	// WordFrequencies returns the raw (unfiltered) token counts of the corpus
	WordFrequencies() map[string]int64
}

// TextProcessor handles multilingual text processing including Chinese word segmentation
// and English tokenization. Stop words are replaced by UnknownWord instead of removed so
// that the context window keeps its shape.
type TextProcessor interface {
	// Preprocess segments text into training tokens
	Preprocess(text string) []string

	// PreprocessBatch processes multiple texts efficiently
	PreprocessBatch(texts []string) [][]string
}

// VocabularyStorage persists a trained (or partially trained) vocabulary store
type VocabularyStorage interface {
	// Exists reports whether a previously saved store is available
	Exists() bool

	// Load restores the previously saved store including Huffman annotations and weights
	Load() (*VocabularyStore, error)

	// Save persists the store
	Save(store *VocabularyStore) error
}

// SimilarityCalculator computes similarity scores between vectors
type SimilarityCalculator interface {
	// CosineSimilarity computes cosine similarity between two vectors
	// Returns 0.0 for invalid inputs (empty, nil, mismatched dimensions, or zero vectors)
	CosineSimilarity(v1, v2 []float32) float64

	// BatchSimilarity computes similarities between one vector and many
	// Returns empty slice for invalid query, and 0.0 for invalid candidates
	BatchSimilarity(query []float32, candidates [][]float32) []float64
}

// TrainingProgress is a snapshot of a running (or finished) training run
type TrainingProgress struct {
	Epoch              int           `json:"epoch"`
	TotalEpochs        int           `json:"total_epochs"`
	DocumentsProcessed int64         `json:"documents_processed"` // in the current epoch
	TotalDocuments     int           `json:"total_documents"`
	WordsProcessed     int64         `json:"words_processed"`
	LearningRate       float64       `json:"learning_rate"`
	Elapsed            time.Duration `json:"elapsed"`
}

// ProgressCallback is called during training to report progress. It may be invoked
// concurrently from worker goroutines.
type ProgressCallback func(progress TrainingProgress)

// TrainingStats summarizes a model
type TrainingStats struct {
	VocabularySize  int           `json:"vocabulary_size"`
	LayerSize       int           `json:"layer_size"`
	WordsProcessed  int64         `json:"words_processed"`
	LearningRate    float64       `json:"learning_rate"`
	State           string        `json:"state"`
	Interrupted     bool          `json:"interrupted"`
	TrainingTime    time.Duration `json:"training_time"`
	OOVRate         float64       `json:"oov_rate"`
	MemoryUsage     int64         `json:"memory_usage_bytes"`
	HuffmanMaxDepth int           `json:"huffman_max_depth"`
	LastUpdated     time.Time     `json:"last_updated"`
}

// Logger interface for configurable logging
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
}
