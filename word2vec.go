package word2vec

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Word2Vec trains skip-gram embeddings with hierarchical softmax and answers similarity
// queries over the learned vectors
type Word2Vec struct {
	config      *Config
	coordinator *TrainingCoordinator
	processor   TextProcessor
	logger      Logger

	mtx   sync.Mutex
	query *QueryEngine
}

// NewWord2Vec creates a model over corpus with the default configuration
func NewWord2Vec(corpus Corpus) (*Word2Vec, error) {
	return NewWord2VecFromConfig(DefaultConfig(), corpus, nil, DiscardLogger{})
}

// NewWord2VecFromConfig creates a model from a configuration. The configuration is
// validated and copied; storage and logger may be nil.
func NewWord2VecFromConfig(
	config *Config,
	corpus Corpus,
	storage VocabularyStorage,
	logger Logger,
) (*Word2Vec, error) {
	logger = orDiscard(logger)

	coordinator, err := NewTrainingCoordinator(config, corpus, storage, logger)
	if err != nil {
		logger.Errorf("Failed to create word2vec model, error: %v", err)
		return nil, err
	}

	w2v := &Word2Vec{
		config:      coordinator.config,
		coordinator: coordinator,
		logger:      logger,
	}

	// A model backed by an existing store can answer queries before Fit
	if storage != nil && storage.Exists() {
		if err := coordinator.BuildVocabulary(); err != nil {
			logger.Errorf("Failed to load vocabulary from storage, error: %v", err)
			return nil, err
		}
	}

	logger.Infof("Word2Vec initialized, layer_size: %d, window: %d, min_word_frequency: %d, "+
		"learning_rate: %f, iterations: %d, workers: %d, storage: %v",
		w2v.config.LayerSize, w2v.config.Window, w2v.config.MinWordFrequency,
		w2v.config.LearningRate, w2v.config.NumIterations, w2v.config.workerCount(), storage != nil)

	return w2v, nil
}

// Config returns a copy of the model configuration
func (w2v *Word2Vec) Config() Config { return *w2v.config }

// SetProgressCallback sets a callback for progress reporting during training
func (w2v *Word2Vec) SetProgressCallback(callback ProgressCallback) {
	w2v.coordinator.SetProgressCallback(callback)
}

// SetTextProcessor sets the processor used by TextSimilarity
func (w2v *Word2Vec) SetTextProcessor(processor TextProcessor) {
	w2v.mtx.Lock()
	defer w2v.mtx.Unlock()
	w2v.processor = processor
}

// BuildVocab prepares the vocabulary and Huffman tree without training
func (w2v *Word2Vec) BuildVocab() error {
	return w2v.coordinator.BuildTree()
}

// Fit trains the model. See TrainingCoordinator.Train for cancellation semantics.
func (w2v *Word2Vec) Fit(ctx context.Context) error {
	startTime := time.Now()

	err := w2v.coordinator.Train(ctx)
	switch {
	case errors.Is(err, ErrInterrupted):
		w2v.logger.Warnf("Fit interrupted, duration_ms: %d, words_processed: %d",
			time.Since(startTime).Milliseconds(), w2v.coordinator.WordsProcessed())
		return err
	case err != nil:
		w2v.logger.Errorf("Fit failed, error: %v", err)
		return err
	}

	w2v.logger.Infof("Fit completed, duration_ms: %d, vocabulary_size: %d, words_processed: %d",
		time.Since(startTime).Milliseconds(), w2v.Store().Size(), w2v.coordinator.WordsProcessed())
	return nil
}

// Store returns the vocabulary store, or nil before the vocabulary is built
func (w2v *Word2Vec) Store() *VocabularyStore {
	return w2v.coordinator.Store()
}

// State returns the training lifecycle stage
func (w2v *Word2Vec) State() TrainingState { return w2v.coordinator.State() }

// Interrupted reports whether the last Fit was cancelled
func (w2v *Word2Vec) Interrupted() bool { return w2v.coordinator.Interrupted() }

// engine returns the query engine, or nil while no store exists
func (w2v *Word2Vec) engine() *QueryEngine {
	store := w2v.Store()
	if store == nil {
		return nil
	}

	w2v.mtx.Lock()
	defer w2v.mtx.Unlock()
	if w2v.query == nil || w2v.query.store != store {
		w2v.query = NewQueryEngine(store, w2v.config.TopNSize)
	}
	return w2v.query
}

// HasWord reports whether word is in the vocabulary
func (w2v *Word2Vec) HasWord(word string) bool {
	store := w2v.Store()
	return store != nil && store.HasWord(word)
}

// IndexOf returns the vocabulary index of word, or -1
func (w2v *Word2Vec) IndexOf(word string) int {
	store := w2v.Store()
	if store == nil {
		return -1
	}
	idx, _ := store.Lookup(word)
	return idx
}

// GetWordVector returns a float64 copy of the vector of word, or of UnknownWord when absent
func (w2v *Word2Vec) GetWordVector(word string) []float64 {
	row := w2v.GetWordVectorMatrix(word)
	if row == nil {
		return nil
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = float64(v)
	}
	return out
}

// GetWordVectorMatrix returns the live row of word, or of UnknownWord when absent
func (w2v *Word2Vec) GetWordVectorMatrix(word string) []float32 {
	q := w2v.engine()
	if q == nil {
		return nil
	}
	return q.WordVector(word)
}

// GetWordVectorMatrixNormalized returns a unit-length copy of GetWordVectorMatrix
func (w2v *Word2Vec) GetWordVectorMatrixNormalized(word string) []float32 {
	q := w2v.engine()
	if q == nil {
		return nil
	}
	return q.NormalizedVector(word)
}

// WordsNearest returns up to n words most similar to word
func (w2v *Word2Vec) WordsNearest(word string, n int) []string {
	q := w2v.engine()
	if q == nil {
		return []string{}
	}
	return q.WordsNearest(word, n)
}

// Similarity returns the cosine similarity of two words, -1 when undefined
func (w2v *Word2Vec) Similarity(word1, word2 string) float64 {
	q := w2v.engine()
	if q == nil {
		if word1 == word2 {
			return 1.0
		}
		return -1
	}
	return q.Similarity(word1, word2)
}

// Analogy returns the words closest to b - a + c with their scores
func (w2v *Word2Vec) Analogy(a, b, c string) []VocabWord {
	q := w2v.engine()
	if q == nil {
		return []VocabWord{}
	}
	return q.Analogy(a, b, c)
}

// AnalogyWords returns the words closest to b - a + c ("a is to b as c is to ?")
func (w2v *Word2Vec) AnalogyWords(a, b, c string) []string {
	return wordsOf(w2v.Analogy(a, b, c))
}

// Distance returns the words with the highest dot product against word
func (w2v *Word2Vec) Distance(word string) []VocabWord {
	q := w2v.engine()
	if q == nil {
		return []VocabWord{}
	}
	return q.Distance(word)
}

// SimilarWordsInVocabTo returns vocabulary words spelled similarly to word
func (w2v *Word2Vec) SimilarWordsInVocabTo(word string, accuracy float64) []string {
	q := w2v.engine()
	if q == nil {
		return []string{}
	}
	return q.SimilarWordsInVocabTo(word, accuracy)
}

// WordVectors returns a copy of every vector keyed by word
func (w2v *Word2Vec) WordVectors() map[string][]float32 {
	store := w2v.Store()
	if store == nil {
		return map[string][]float32{}
	}

	out := make(map[string][]float32, store.Size())
	for _, w := range store.Words() {
		row := store.VectorAt(w.Index)
		vec := make([]float32, len(row))
		copy(vec, row)
		out[w.Word] = vec
	}
	return out
}

// TextSimilarity compares two texts by the cosine of their mean word vectors. Tokens are
// produced by the configured TextProcessor; negative similarities are reported as 0.
func (w2v *Word2Vec) TextSimilarity(text1, text2 string) float64 {
	store := w2v.Store()
	if store == nil || text1 == "" || text2 == "" {
		return 0.0
	}

	w2v.mtx.Lock()
	if w2v.processor == nil {
		w2v.processor = NewTextProcessor()
	}
	processor := w2v.processor
	w2v.mtx.Unlock()

	tokens1 := processor.Preprocess(text1)
	tokens2 := processor.Preprocess(text2)

	vector1, ok1 := store.AverageVector(tokens1)
	vector2, ok2 := store.AverageVector(tokens2)
	if !ok1 || !ok2 {
		w2v.logger.Debugf("No known words in one or both texts, text1_found: %v, text2_found: %v", ok1, ok2)
		return 0.0
	}

	similarity := w2v.engine().calculator.CosineSimilarity(vector1, vector2)
	if similarity < 0 {
		similarity = 0
	}

	w2v.logger.Debugf("TextSimilarity completed, tokens1_count: %d, tokens2_count: %d, similarity_score: %.4f",
		len(tokens1), len(tokens2), similarity)
	return similarity
}

// SaveVectors writes the vectors to path in .vec text format, maxWords <= 0 writes all
func (w2v *Word2Vec) SaveVectors(path string, maxWords int) error {
	return SaveVectors(path, w2v.Store(), maxWords)
}

// GetStats returns training and usage statistics
func (w2v *Word2Vec) GetStats() TrainingStats {
	stats := TrainingStats{
		LayerSize:      w2v.config.LayerSize,
		WordsProcessed: w2v.coordinator.WordsProcessed(),
		LearningRate:   w2v.coordinator.LearningRate(),
		State:          w2v.coordinator.State().String(),
		Interrupted:    w2v.coordinator.Interrupted(),
		TrainingTime:   w2v.coordinator.TrainingTime(),
		LastUpdated:    time.Now(),
	}

	if store := w2v.Store(); store != nil {
		stats.VocabularySize = store.Size()
		stats.OOVRate = store.GetOOVRate()
		stats.MemoryUsage = store.MemoryUsage()
	}
	if tree := w2v.coordinator.Tree(); tree != nil {
		stats.HuffmanMaxDepth = tree.MaxDepth
	}

	w2v.logger.Debugf("Statistics retrieved, vocabulary_size: %d, words_processed: %d, "+
		"learning_rate: %f, state: %s, oov_rate: %.4f, memory_usage_mb: %.2f",
		stats.VocabularySize, stats.WordsProcessed, stats.LearningRate, stats.State,
		stats.OOVRate, float64(stats.MemoryUsage)/(1024*1024))

	return stats
}
