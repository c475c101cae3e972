// Package index is a SQLite-persisted vector store over article documents.
// Embeddings are produced by an llm.Embedder at write and query time; nearest
// neighbours are found by brute-force cosine similarity over the collection.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"newsrag/internal/llm"
)

// Store wraps a SQLite-backed vector collection.
type Store struct {
	conn       *sql.DB
	path       string
	embedder   llm.Embedder
	collection string
}

// Open creates or opens the vector store at the given path.
func Open(dbPath string, embedder llm.Embedder, collection string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{conn: conn, path: dbPath, embedder: embedder, collection: collection}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Collection returns the collection name this store reads and writes.
func (s *Store) Collection() string {
	return s.collection
}
