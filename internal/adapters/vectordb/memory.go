// Package vectordb - memory.go is an in-memory ports.VectorIndex for
// tests and ephemeral runs. Same upsert/search semantics as the SQLite
// index, without persistence.
package vectordb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

type memoryEntry struct {
	chunk entities.Chunk
	order int
}

// MemoryIndex is an in-memory vector index.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry // chunk ID -> entry
	counter int
}

// NewMemoryIndex creates an empty in-memory vector index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]memoryEntry)}
}

// Upsert stores chunks idempotently by ID. A replaced entry keeps its
// original insertion order so tie-breaking stays deterministic.
func (s *MemoryIndex) Upsert(ctx context.Context, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if prior, ok := s.entries[chunk.ID]; ok {
			s.entries[chunk.ID] = memoryEntry{chunk: chunk, order: prior.order}
			continue
		}
		s.entries[chunk.ID] = memoryEntry{chunk: chunk, order: s.counter}
		s.counter++
	}
	return nil
}

// Search returns the top-k chunks by cosine similarity, ties broken by
// insertion order (earlier wins).
func (s *MemoryIndex) Search(ctx context.Context, embedding []float32, k int) ([]entities.QueryResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search: k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		entry memoryEntry
		score float64
	}
	scoredEntries := make([]scored, 0, len(s.entries))
	for _, entry := range s.entries {
		scoredEntries = append(scoredEntries, scored{
			entry: entry,
			score: cosineSimilarity(embedding, entry.chunk.Embedding),
		})
	}

	sort.Slice(scoredEntries, func(i, j int) bool {
		if scoredEntries[i].score != scoredEntries[j].score {
			return scoredEntries[i].score > scoredEntries[j].score
		}
		return scoredEntries[i].entry.order < scoredEntries[j].entry.order
	})
	if len(scoredEntries) > k {
		scoredEntries = scoredEntries[:k]
	}

	results := make([]entities.QueryResult, len(scoredEntries))
	for i, se := range scoredEntries {
		results[i] = entities.QueryResult{Chunk: se.entry.chunk, Score: se.score}
	}
	return results, nil
}

// DeleteSource removes all chunks belonging to a source document.
func (s *MemoryIndex) DeleteSource(ctx context.Context, sourceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.entries {
		if entry.chunk.SourceName == sourceName {
			delete(s.entries, id)
		}
	}
	return nil
}

// Size returns the number of stored entries.
func (s *MemoryIndex) Size(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Clear removes all data from the index.
func (s *MemoryIndex) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]memoryEntry)
	s.counter = 0
	return nil
}
