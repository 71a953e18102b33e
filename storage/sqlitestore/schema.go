package sqlitestore

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS vocab_meta (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS vocab_words (
    idx INTEGER PRIMARY KEY,
    word TEXT NOT NULL UNIQUE,
    frequency INTEGER NOT NULL,
    code BLOB,
    points BLOB,
    vector BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS node_vectors (
    idx INTEGER PRIMARY KEY,
    vector BLOB NOT NULL
);
`

// EnsureSchema creates the vocabulary tables if they do not exist yet
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
