// Package boltstore persists a word2vec vocabulary store in a bbolt database.
package boltstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kydenul/word2vec"
)

var (
	bucketMeta  = []byte("meta")
	bucketWords = []byte("words")
	bucketNodes = []byte("nodes")

	keyLayerSize = []byte("layer_size")
	keySize      = []byte("size")
)

// wordRecord is the value stored per vocabulary index in the words bucket
type wordRecord struct {
	word2vec.VocabWord
	Vector []byte `json:"vector"`
}

// Store is a word2vec.VocabularyStorage backed by a single bbolt file
type Store struct {
	db *bbolt.DB
}

var _ word2vec.VocabularyStorage = (*Store)(nil)

// Open opens (or creates) the database at path
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketWords, bucketNodes} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Exists reports whether a store has been saved
func (s *Store) Exists() bool {
	exists := false
	_ = s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(bucketMeta).Get(keySize) != nil
		return nil
	})
	return exists
}

// Save replaces any previously saved store in a single transaction
func (s *Store) Save(store *word2vec.VocabularyStore) error {
	if store == nil {
		return word2vec.ErrModelNotInitialized
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketWords, bucketNodes} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyLayerSize, uint32Key(store.LayerSize())); err != nil {
			return err
		}
		if err := meta.Put(keySize, uint32Key(store.Size())); err != nil {
			return err
		}

		words := tx.Bucket(bucketWords)
		for _, w := range store.Words() {
			data, err := json.Marshal(wordRecord{
				VocabWord: *w,
				Vector:    word2vec.EncodeVector(store.VectorAt(w.Index)),
			})
			if err != nil {
				return err
			}
			if err := words.Put(uint32Key(w.Index), data); err != nil {
				return err
			}
		}

		nodes := tx.Bucket(bucketNodes)
		for k := range store.Size() - 1 {
			if err := nodes.Put(uint32Key(k), word2vec.EncodeVector(store.NodeVector(k))); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load restores the saved store
func (s *Store) Load() (*word2vec.VocabularyStore, error) {
	var store *word2vec.VocabularyStore

	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		layerRaw, sizeRaw := meta.Get(keyLayerSize), meta.Get(keySize)
		if len(layerRaw) != 4 || len(sizeRaw) != 4 {
			return word2vec.ErrModelNotInitialized
		}
		dim := int(binary.BigEndian.Uint32(layerRaw))
		n := int(binary.BigEndian.Uint32(sizeRaw))

		words := make([]*word2vec.VocabWord, 0, n)
		input := make([]float32, 0, n*dim)
		err := tx.Bucket(bucketWords).ForEach(func(k, v []byte) error {
			var rec wordRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("%w: word %x: %w", word2vec.ErrInvalidModelFormat, k, err)
			}
			vec, err := word2vec.DecodeVector(rec.Vector)
			if err != nil {
				return err
			}
			if len(vec) != dim {
				return fmt.Errorf("%w: word %q has %d dimensions, expected %d",
					word2vec.ErrDimensionMismatch, rec.Word, len(vec), dim)
			}

			w := rec.VocabWord
			words = append(words, &w)
			input = append(input, vec...)
			return nil
		})
		if err != nil {
			return err
		}
		if len(words) != n {
			return fmt.Errorf("%w: %d words stored, header says %d", word2vec.ErrInvalidModelFormat, len(words), n)
		}

		node := make([]float32, 0, max(n-1, 0)*dim)
		err = tx.Bucket(bucketNodes).ForEach(func(_, v []byte) error {
			vec, err := word2vec.DecodeVector(v)
			if err != nil {
				return err
			}
			node = append(node, vec...)
			return nil
		})
		if err != nil {
			return err
		}

		store, err = word2vec.RestoreVocabularyStore(dim, words, input, node)
		return err
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

// Close releases the database file lock
func (s *Store) Close() error {
	return s.db.Close()
}

// uint32Key encodes i big-endian so that bbolt iterates in index order
func uint32Key(i int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(i)) //nolint:gosec
	return b
}
