// Package usecases - ingest.go composes parsing, chunking, embedding and
// indexing into the document ingestion pipeline.
package usecases

import (
	"context"
	"fmt"
	"log"

	"github.com/foxkb/assistant-go/internal/domain/entities"
	"github.com/foxkb/assistant-go/internal/domain/ports"
)

// IngestionPipeline handles document ingestion into the vector index.
// Chunk IDs are content fingerprints, so re-ingesting an unchanged
// document overwrites entries with identical values and the index does
// not grow. A source's prior entries are removed before the new ones
// land, so a changed document never leaves stale chunks behind.
type IngestionPipeline struct {
	chunker  *Chunker
	embedder ports.EmbeddingService
	index    ports.VectorIndex
	parsers  map[string]ports.DocumentParser
}

// NewIngestionPipeline creates an IngestionPipeline with injected dependencies.
func NewIngestionPipeline(
	chunker *Chunker,
	embedder ports.EmbeddingService,
	index ports.VectorIndex,
	parsers ...ports.DocumentParser,
) *IngestionPipeline {
	byFormat := make(map[string]ports.DocumentParser)
	for _, p := range parsers {
		for _, format := range p.SupportedFormats() {
			byFormat[format] = p
		}
	}
	return &IngestionPipeline{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		parsers:  byFormat,
	}
}

// Ingest processes a document set. A failure on one document is recorded
// in the report and does not abort ingestion of the remaining documents.
func (p *IngestionPipeline) Ingest(ctx context.Context, docs []entities.Document) (*entities.IngestionReport, error) {
	report := &entities.IngestionReport{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		count, err := p.IngestDocument(ctx, doc)
		entry := entities.DocumentReport{SourceName: doc.SourceName, Chunks: count}
		if err != nil {
			entry.Err = err.Error()
			log.Printf("[ERROR] Ingesting %s: %v", doc.SourceName, err)
		} else {
			log.Printf("[INFO] Ingested %s: %d chunks", doc.SourceName, count)
		}
		report.Documents = append(report.Documents, entry)
	}
	return report, nil
}

// IngestDocument parses, chunks, embeds and indexes a single document,
// returning the number of chunks stored. The source's previously indexed
// chunks are deleted just before the upsert, after parsing and embedding
// have succeeded, so a failure partway through leaves the old version
// intact rather than half-removed.
func (p *IngestionPipeline) IngestDocument(ctx context.Context, doc entities.Document) (int, error) {
	parser, ok := p.parsers[doc.Format]
	if !ok {
		return 0, fmt.Errorf("no parser for format %q", doc.Format)
	}

	pages, err := parser.Parse(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("parsing document: %w", err)
	}

	chunks := p.chunker.Split(doc.SourceName, pages)
	if len(chunks) == 0 {
		// The document emptied out; its old chunks are stale too.
		if err := p.index.DeleteSource(ctx, doc.SourceName); err != nil {
			return 0, fmt.Errorf("removing prior chunks: %w", err)
		}
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(chunks), len(embeddings))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := p.index.DeleteSource(ctx, doc.SourceName); err != nil {
		return 0, fmt.Errorf("removing prior chunks: %w", err)
	}
	if err := p.index.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("indexing chunks: %w", err)
	}
	return len(chunks), nil
}

// RemoveSource deletes every indexed chunk of a source document.
func (p *IngestionPipeline) RemoveSource(ctx context.Context, sourceName string) error {
	return p.index.DeleteSource(ctx, sourceName)
}
