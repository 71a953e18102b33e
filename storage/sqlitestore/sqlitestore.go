// Package sqlitestore persists a word2vec vocabulary store in SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/kydenul/word2vec"
)

const (
	metaLayerSize = "layer_size"
	metaSize      = "size"
)

// Store is a word2vec.VocabularyStorage backed by SQLite tables
type Store struct {
	db    *sql.DB
	owned bool
}

var _ word2vec.VocabularyStorage = (*Store)(nil)

// Open opens the database at dsn with the "sqlite" driver and ensures the schema
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New wraps an already opened database. The caller keeps ownership of db.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlitestore: db is nil")
	}
	if err := EnsureSchema(context.Background(), db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Exists reports whether a store has been saved
func (s *Store) Exists() bool {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM vocab_meta WHERE key = ?`, metaSize).Scan(&count)
	return err == nil && count > 0
}

// Save replaces any previously saved store
func (s *Store) Save(store *word2vec.VocabularyStore) error {
	return s.SaveContext(context.Background(), store)
}

// SaveContext replaces any previously saved store in one transaction
func (s *Store) SaveContext(ctx context.Context, store *word2vec.VocabularyStore) error {
	if store == nil {
		return word2vec.ErrModelNotInitialized
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"vocab_meta", "vocab_words", "node_vectors"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	meta, err := tx.PrepareContext(ctx, `INSERT INTO vocab_meta(key, value) VALUES(?, ?)`)
	if err != nil {
		return err
	}
	defer meta.Close()
	if _, err := meta.ExecContext(ctx, metaLayerSize, store.LayerSize()); err != nil {
		return err
	}
	if _, err := meta.ExecContext(ctx, metaSize, store.Size()); err != nil {
		return err
	}

	words, err := tx.PrepareContext(ctx,
		`INSERT INTO vocab_words(idx, word, frequency, code, points, vector) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer words.Close()
	for _, w := range store.Words() {
		_, err := words.ExecContext(ctx, w.Index, w.Word, w.Frequency,
			word2vec.EncodeCode(w.Code), word2vec.EncodePoints(w.Points),
			word2vec.EncodeVector(store.VectorAt(w.Index)))
		if err != nil {
			return err
		}
	}

	nodes, err := tx.PrepareContext(ctx, `INSERT INTO node_vectors(idx, vector) VALUES(?, ?)`)
	if err != nil {
		return err
	}
	defer nodes.Close()
	for k := range store.Size() - 1 {
		if _, err := nodes.ExecContext(ctx, k, word2vec.EncodeVector(store.NodeVector(k))); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load restores the saved store
func (s *Store) Load() (*word2vec.VocabularyStore, error) {
	return s.LoadContext(context.Background())
}

// LoadContext restores the saved store
func (s *Store) LoadContext(ctx context.Context) (*word2vec.VocabularyStore, error) {
	dim, n, err := s.header(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, word, frequency, code, points, vector FROM vocab_words ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	words := make([]*word2vec.VocabWord, 0, n)
	input := make([]float32, 0, n*dim)
	for rows.Next() {
		var (
			w                   word2vec.VocabWord
			code, points, vblob []byte
		)
		if err := rows.Scan(&w.Index, &w.Word, &w.Frequency, &code, &points, &vblob); err != nil {
			return nil, err
		}

		if len(code) > 0 {
			w.Code = word2vec.DecodeCode(code)
			if w.Points, err = word2vec.DecodePoints(points); err != nil {
				return nil, err
			}
		}

		vec, err := word2vec.DecodeVector(vblob)
		if err != nil {
			return nil, err
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: word %q has %d dimensions, expected %d",
				word2vec.ErrDimensionMismatch, w.Word, len(vec), dim)
		}

		words = append(words, &w)
		input = append(input, vec...)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(words) != n {
		return nil, fmt.Errorf("%w: %d words stored, header says %d", word2vec.ErrInvalidModelFormat, len(words), n)
	}

	node, err := s.nodeVectors(ctx, n, dim)
	if err != nil {
		return nil, err
	}

	return word2vec.RestoreVocabularyStore(dim, words, input, node)
}

func (s *Store) header(ctx context.Context) (dim, n int, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM vocab_meta`)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value int
		)
		if err := rows.Scan(&key, &value); err != nil {
			return 0, 0, err
		}
		switch key {
		case metaLayerSize:
			dim = value
		case metaSize:
			n = value
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	if dim <= 0 || n <= 0 {
		return 0, 0, word2vec.ErrModelNotInitialized
	}
	return dim, n, nil
}

func (s *Store) nodeVectors(ctx context.Context, n, dim int) ([]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT vector FROM node_vectors ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	node := make([]float32, 0, max(n-1, 0)*dim)
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		vec, err := word2vec.DecodeVector(blob)
		if err != nil {
			return nil, err
		}
		node = append(node, vec...)
	}
	return node, rows.Err()
}

// Close closes the database if it was opened by Open
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
