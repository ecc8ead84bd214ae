// Package vectordb provides vector index adapters.
// Clean Architecture: Adapter implementing ports.VectorIndex.
package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/foxkb/assistant-go/internal/domain/entities"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrDimensionMismatch means the stored vectors and the active embedder
// disagree on dimensionality. Raised at construction, never at query time.
var ErrDimensionMismatch = errors.New("vector index dimensionality mismatch")

// SQLiteIndex implements ports.VectorIndex with SQLite-based persistence.
// Upserts are transactional and keyed by chunk ID; searches are
// brute-force cosine over all stored vectors, ties broken by insertion
// order. The index binds to one embedding dimensionality at construction.
type SQLiteIndex struct {
	mu        sync.RWMutex
	db        *sql.DB
	dimension int
}

// NewSQLiteIndex opens (or creates) the persistent index at dataPath and
// verifies that any previously stored vectors match the active embedder's
// dimensionality.
func NewSQLiteIndex(dataPath string, dimension int) (*SQLiteIndex, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "index.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &SQLiteIndex{db: db, dimension: dimension}

	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	if err := idx.checkDimension(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		source_name TEXT NOT NULL,
		page_number INTEGER NOT NULL,
		seq_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_source_name ON chunks(source_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// checkDimension compares one stored vector against the configured
// dimensionality. A mismatch means the store was built with a different
// embedding model, which would silently corrupt every search.
func (s *SQLiteIndex) checkDimension() error {
	var embeddingJSON []byte
	err := s.db.QueryRow("SELECT embedding FROM chunks LIMIT 1").Scan(&embeddingJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading stored vector: %w", err)
	}
	var vector []float32
	if err := json.Unmarshal(embeddingJSON, &vector); err != nil {
		return fmt.Errorf("decoding stored vector: %w", err)
	}
	if len(vector) != s.dimension {
		return fmt.Errorf("%w: store has %d, embedder has %d", ErrDimensionMismatch, len(vector), s.dimension)
	}
	return nil
}

// Upsert stores chunks with their embeddings, replacing prior entries
// with the same ID. The whole batch is one transaction, so a concurrent
// search never observes a partially written entry.
func (s *SQLiteIndex) Upsert(ctx context.Context, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, source_name, page_number, seq_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %s has %d, index has %d",
				ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), s.dimension)
		}
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			chunk.ID,
			chunk.SourceName,
			chunk.PageNumber,
			chunk.Index,
			chunk.Text,
			embeddingJSON,
		)
		if err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	return tx.Commit()
}

// Search returns the top-k chunks by cosine similarity. Rows are scanned
// in rowid order and sorted stably, so equal scores keep insertion order.
func (s *SQLiteIndex) Search(ctx context.Context, embedding []float32, k int) ([]entities.QueryResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search: k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_name, page_number, seq_index, content, embedding
		FROM chunks ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []entities.QueryResult
	for rows.Next() {
		var chunk entities.Chunk
		var embeddingJSON []byte
		err := rows.Scan(&chunk.ID, &chunk.SourceName, &chunk.PageNumber, &chunk.Index, &chunk.Text, &embeddingJSON)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal(embeddingJSON, &chunk.Embedding); err != nil {
			continue // Skip corrupted embeddings
		}
		results = append(results, entities.QueryResult{
			Chunk: chunk,
			Score: cosineSimilarity(embedding, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeleteSource removes all chunks belonging to a source document.
func (s *SQLiteIndex) DeleteSource(ctx context.Context, sourceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE source_name = ?", sourceName)
	return err
}

// Size returns the number of stored chunks.
func (s *SQLiteIndex) Size(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

// Clear removes all data from the index.
func (s *SQLiteIndex) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks")
	return err
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
