package word2vec

import "errors"

// Error types for the word2vec library
var (
	// ErrInvalidConfiguration indicates configuration parameters are invalid, including an
	// empty frequency table or a non-positive layer size
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidVocabulary indicates a vocabulary invariant was violated: a Huffman tree
	// over fewer than two words, a malformed code/points pair, or an unreadable token
	ErrInvalidVocabulary = errors.New("invalid vocabulary")

	// ErrInterrupted indicates the training run was cancelled while dispatching or
	// draining work; matrices are left in their partially updated state
	ErrInterrupted = errors.New("training interrupted")

	// ErrModelNotInitialized indicates the vocabulary store has not been built or loaded
	ErrModelNotInitialized = errors.New("model not initialized")

	// ErrVectorFileNotFound indicates the vector file could not be found
	ErrVectorFileNotFound = errors.New("vector file not found")

	// ErrInvalidVectorFormat indicates the vector file format is invalid
	ErrInvalidVectorFormat = errors.New("invalid vector file format")

	// ErrInvalidModelFormat indicates a persisted model could not be decoded
	ErrInvalidModelFormat = errors.New("invalid model format")

	// ErrDimensionMismatch indicates vector dimensions don't match expected values
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
