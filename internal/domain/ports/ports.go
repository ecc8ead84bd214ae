// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

// EmbeddingService maps text to fixed-length vectors. Chunk text and
// query text must go through the same embedding space; Dimension lets
// the vector index bind to that space at construction time.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimensionality of the configured model.
	Dimension() int
}

// VectorIndex persists (chunk, vector) entries and supports similarity search.
type VectorIndex interface {
	// Upsert stores chunks with their embeddings, idempotently by chunk ID.
	Upsert(ctx context.Context, chunks []entities.Chunk) error

	// Search returns at most k entries ranked by cosine similarity against
	// the query embedding, ties broken by insertion order. k <= 0 is an
	// input error; an empty index yields an empty result.
	Search(ctx context.Context, embedding []float32, k int) ([]entities.QueryResult, error)

	// DeleteSource removes all chunks belonging to a source document.
	DeleteSource(ctx context.Context, sourceName string) error

	// Size returns the number of stored entries.
	Size(ctx context.Context) (int, error)

	// Clear removes all data from the index.
	Clear(ctx context.Context) error
}

// Reasoner is the opaque reasoning capability: given the running history
// and the available tool schemas, it returns either a final assistant
// message or one carrying tool-call requests.
type Reasoner interface {
	Chat(ctx context.Context, history []entities.Message, tools []entities.ToolSchema) (*entities.Message, error)
}

// Synthesizer is the constrained generation capability used by retrieval:
// it must answer only from the supplied context blocks.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, contextBlocks []string) (string, error)
}

// DocumentParser extracts page-tagged text from a raw document.
type DocumentParser interface {
	// Parse extracts text spans from the document. Paginated formats
	// yield one Page per physical page.
	Parse(ctx context.Context, doc entities.Document) ([]entities.Page, error)

	// SupportedFormats returns formats this parser handles (e.g., "pdf", "txt").
	SupportedFormats() []string
}

// DocumentLoader reads documents from the filesystem.
type DocumentLoader interface {
	// Load reads a single document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// LoadDir reads all supported documents under a directory.
	LoadDir(ctx context.Context, dir string) ([]entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// SearchHit is one web search result.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearcher queries an external search service.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchHit, error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
