package vectordb

import (
	"context"
	"errors"
	"testing"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

func newTestIndex(t *testing.T, dimension int) *SQLiteIndex {
	t.Helper()
	idx, err := NewSQLiteIndex(t.TempDir(), dimension)
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSQLiteIndex_UpsertAndSearch(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	chunks := []entities.Chunk{
		{ID: "c1", SourceName: "a.pdf", PageNumber: 1, Text: "hello", Embedding: []float32{1, 0, 0}},
		{ID: "c2", SourceName: "a.pdf", PageNumber: 2, Text: "world", Embedding: []float32{0, 1, 0}},
	}
	if err := idx.Upsert(ctx, chunks); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "c1" {
		t.Error("c1 should be top result")
	}
	if results[0].Score != 1.0 {
		t.Errorf("identical vectors should score 1.0, got %f", results[0].Score)
	}
}

func TestSQLiteIndex_SearchBoundedByK(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", Embedding: []float32{1, 0, 0}},
		{ID: "c2", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "c3", Embedding: []float32{0, 1, 0}},
	})

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}

	if _, err := idx.Search(ctx, []float32{1, 0, 0}, 0); err == nil {
		t.Error("k=0 should be rejected")
	}
}

func TestSQLiteIndex_UpsertIsIdempotent(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	chunks := []entities.Chunk{
		{ID: "c1", SourceName: "a.pdf", Text: "v1", Embedding: []float32{1, 0, 0}},
	}
	idx.Upsert(ctx, chunks)
	idx.Upsert(ctx, chunks)

	count, err := idx.Size(ctx)
	if err != nil {
		t.Fatalf("size failed: %v", err)
	}
	if count != 1 {
		t.Errorf("re-upserting the same ID should not grow the index, got %d", count)
	}

	// A replaced entry serves the new content.
	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", SourceName: "a.pdf", Text: "v2", Embedding: []float32{1, 0, 0}},
	})
	results, _ := idx.Search(ctx, []float32{1, 0, 0}, 1)
	if results[0].Chunk.Text != "v2" {
		t.Errorf("expected replaced content, got %q", results[0].Chunk.Text)
	}
}

func TestSQLiteIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	idx.Upsert(ctx, []entities.Chunk{
		{ID: "first", Embedding: []float32{1, 0, 0}},
		{ID: "second", Embedding: []float32{1, 0, 0}},
	})

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if results[0].Chunk.ID != "first" || results[1].Chunk.ID != "second" {
		t.Errorf("equal scores should keep insertion order, got %s then %s",
			results[0].Chunk.ID, results[1].Chunk.ID)
	}
}

func TestSQLiteIndex_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewSQLiteIndex(dir, 3)
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", SourceName: "a.pdf", Text: "persisted", Embedding: []float32{1, 0, 0}},
	})
	idx.Close()

	reopened, err := NewSQLiteIndex(dir, 3)
	if err != nil {
		t.Fatalf("failed to reopen index: %v", err)
	}
	defer reopened.Close()

	count, _ := reopened.Size(ctx)
	if count != 1 {
		t.Errorf("expected 1 chunk after reopen, got %d", count)
	}
	results, _ := reopened.Search(ctx, []float32{1, 0, 0}, 1)
	if len(results) != 1 || results[0].Chunk.Text != "persisted" {
		t.Error("stored chunk should survive a reopen")
	}
}

func TestSQLiteIndex_DimensionMismatchAtConstruction(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewSQLiteIndex(dir, 3)
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", Embedding: []float32{1, 0, 0}},
	})
	idx.Close()

	_, err = NewSQLiteIndex(dir, 768)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSQLiteIndex_UpsertRejectsWrongDimension(t *testing.T) {
	idx := newTestIndex(t, 3)

	err := idx.Upsert(context.Background(), []entities.Chunk{
		{ID: "c1", Embedding: []float32{1, 0, 0, 0}},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSQLiteIndex_DeleteSource(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", SourceName: "a.pdf", Embedding: []float32{1, 0, 0}},
		{ID: "c2", SourceName: "a.pdf", Embedding: []float32{0, 1, 0}},
		{ID: "c3", SourceName: "b.txt", Embedding: []float32{0, 0, 1}},
	})

	if err := idx.DeleteSource(ctx, "a.pdf"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	count, _ := idx.Size(ctx)
	if count != 1 {
		t.Errorf("expected 1 remaining chunk, got %d", count)
	}
	results, _ := idx.Search(ctx, []float32{0, 0, 1}, 10)
	if len(results) != 1 || results[0].Chunk.SourceName != "b.txt" {
		t.Error("only the other source should remain")
	}
}

func TestSQLiteIndex_Clear(t *testing.T) {
	idx := newTestIndex(t, 3)
	ctx := context.Background()

	idx.Upsert(ctx, []entities.Chunk{
		{ID: "c1", Embedding: []float32{1, 0, 0}},
		{ID: "c2", Embedding: []float32{0, 1, 0}},
	})

	idx.Clear(ctx)

	count, _ := idx.Size(ctx)
	if count != 0 {
		t.Errorf("expected 0 chunks after clear, got %d", count)
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	if same := cosineSimilarity(a, b); same != 1.0 {
		t.Errorf("same vectors should have score 1.0, got %f", same)
	}
	if diff := cosineSimilarity(a, c); diff != 0.0 {
		t.Errorf("orthogonal vectors should have score 0.0, got %f", diff)
	}
	if zero := cosineSimilarity(a, []float32{0, 0, 0}); zero != 0.0 {
		t.Errorf("zero vector should have score 0.0, got %f", zero)
	}
	if mismatch := cosineSimilarity(a, []float32{1, 0}); mismatch != 0.0 {
		t.Errorf("mismatched lengths should have score 0.0, got %f", mismatch)
	}
}
