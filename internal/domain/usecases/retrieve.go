// Package usecases - retrieve.go handles document search and answer synthesis.
package usecases

import (
	"context"
	"fmt"

	"github.com/foxkb/assistant-go/internal/domain/entities"
	"github.com/foxkb/assistant-go/internal/domain/ports"
)

// RetrievalSynthesizer answers a query strictly from retrieved context:
// it embeds the query, fetches the top-k chunks, and runs one constrained
// generation call over them. Every citation comes from a chunk that was
// actually part of the context block.
type RetrievalSynthesizer struct {
	embedder ports.EmbeddingService
	index    ports.VectorIndex
	synth    ports.Synthesizer
	topK     int
	floor    float64 // minimum top-result similarity before answering
}

// NewRetrievalSynthesizer creates a RetrievalSynthesizer with injected dependencies.
// The confidence floor is a tunable heuristic, not a fixed constant.
func NewRetrievalSynthesizer(
	embedder ports.EmbeddingService,
	index ports.VectorIndex,
	synth ports.Synthesizer,
	topK int,
	confidenceFloor float64,
) *RetrievalSynthesizer {
	if topK <= 0 {
		topK = 3
	}
	return &RetrievalSynthesizer{
		embedder: embedder,
		index:    index,
		synth:    synth,
		topK:     topK,
		floor:    confidenceFloor,
	}
}

// Answer embeds the query, retrieves context and synthesizes an answer
// with citations. When the index is empty or the best match scores below
// the confidence floor it returns a no-match answer instead of guessing,
// so the caller can fall back to another tool.
func (s *RetrievalSynthesizer) Answer(ctx context.Context, query string) (*entities.Answer, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.index.Search(ctx, queryEmbedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	if len(results) == 0 || results[0].Score < s.floor {
		return &entities.Answer{
			Text:    "No relevant information found in the indexed documents.",
			NoMatch: true,
		}, nil
	}

	contextBlocks := make([]string, len(results))
	citations := make([]entities.Citation, 0, len(results))
	seen := make(map[entities.Citation]bool)
	for i, r := range results {
		contextBlocks[i] = formatContextBlock(i+1, r.Chunk)
		c := entities.Citation{SourceName: r.Chunk.SourceName, PageNumber: r.Chunk.PageNumber}
		if !seen[c] {
			seen[c] = true
			citations = append(citations, c)
		}
	}

	text, err := s.synth.Synthesize(ctx, query, contextBlocks)
	if err != nil {
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}

	return &entities.Answer{Text: text, Citations: citations}, nil
}

// formatContextBlock renders one retrieved chunk with its provenance, in
// the shape the synthesis prompt expects.
func formatContextBlock(position int, chunk entities.Chunk) string {
	if chunk.PageNumber > 0 {
		return fmt.Sprintf("Source %d (File: %s, Page: %d):\n%s", position, chunk.SourceName, chunk.PageNumber, chunk.Text)
	}
	return fmt.Sprintf("Source %d (File: %s):\n%s", position, chunk.SourceName, chunk.Text)
}
