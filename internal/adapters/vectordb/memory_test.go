package vectordb

import (
	"context"
	"testing"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

func TestMemoryIndex_UpsertAndSearch(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", SourceName: "a.pdf", Text: "hello", Embedding: []float32{1, 0, 0}},
		{ID: "c2", SourceName: "a.pdf", Text: "world", Embedding: []float32{0, 1, 0}},
	})

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ID != "c1" {
		t.Error("c1 should be the only result")
	}
	if results[0].Score != 1.0 {
		t.Errorf("identical vectors should score 1.0, got %f", results[0].Score)
	}
}

func TestMemoryIndex_UpsertIsIdempotent(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	chunk := entities.Chunk{ID: "c1", Embedding: []float32{1, 0, 0}}
	idx.Upsert(ctx, []entities.Chunk{chunk})
	idx.Upsert(ctx, []entities.Chunk{chunk})

	count, _ := idx.Size(ctx)
	if count != 1 {
		t.Errorf("re-upserting the same ID should not grow the index, got %d", count)
	}
}

func TestMemoryIndex_ReplacedEntryKeepsOrder(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Upsert(ctx, []entities.Chunk{
		{ID: "first", Text: "v1", Embedding: []float32{1, 0, 0}},
		{ID: "second", Text: "v1", Embedding: []float32{1, 0, 0}},
	})
	// Replacing "first" must not demote it behind "second" on ties.
	idx.Upsert(ctx, []entities.Chunk{
		{ID: "first", Text: "v2", Embedding: []float32{1, 0, 0}},
	})

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results[0].Chunk.ID != "first" || results[0].Chunk.Text != "v2" {
		t.Errorf("expected replaced 'first' on top, got %s (%s)", results[0].Chunk.ID, results[0].Chunk.Text)
	}
}

func TestMemoryIndex_DeleteSource(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", SourceName: "a.pdf", Embedding: []float32{1, 0, 0}},
		{ID: "c2", SourceName: "b.txt", Embedding: []float32{0, 1, 0}},
	})

	idx.DeleteSource(ctx, "a.pdf")

	count, _ := idx.Size(ctx)
	if count != 1 {
		t.Errorf("expected 1 remaining chunk, got %d", count)
	}
}

func TestMemoryIndex_Clear(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", Embedding: []float32{1, 0, 0}},
	})
	idx.Clear(ctx)

	count, _ := idx.Size(ctx)
	if count != 0 {
		t.Errorf("expected 0 chunks after clear, got %d", count)
	}

	if _, err := idx.Search(ctx, []float32{1, 0, 0}, 0); err == nil {
		t.Error("k=0 should be rejected")
	}
}
