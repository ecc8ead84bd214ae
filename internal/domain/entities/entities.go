// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "encoding/json"

// Message roles used in a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Document represents a source document (PDF, TXT, MD) before ingestion.
type Document struct {
	SourceName string
	Path       string
	Format     string // "pdf", "txt", "md"
	Raw        []byte
}

// Page is an extracted text span with page provenance.
// Number is 0 for formats without pages (plain text, markdown).
type Page struct {
	Number int
	Text   string
}

// Chunk represents a piece of a document for embedding.
// ID is a content fingerprint of (source, sequence index, text), so
// re-ingesting unchanged content yields identical chunks.
type Chunk struct {
	ID         string
	SourceName string
	PageNumber int
	Text       string
	Index      int       // Sequence position within the source
	Embedding  []float32 // Vector representation (populated by adapter)
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk Chunk
	Score float64 // Cosine similarity, higher = more relevant
}

// Citation attests where a synthesized answer's content originated.
type Citation struct {
	SourceName string `json:"source_name"`
	PageNumber int    `json:"page_number,omitempty"`
}

// Answer is the final result of a query, with citations drawn from the
// chunks actually used in synthesis. NoMatch is set when retrieval found
// nothing above the confidence floor, so callers can distinguish "no
// relevant information" from a normal answer.
type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
	NoMatch   bool       `json:"no_match,omitempty"`
}

// ToolCallRequest is a structured tool invocation produced by the
// reasoning step. RawArguments must validate against the named tool's
// parameter schema before dispatch.
type ToolCallRequest struct {
	Name         string
	RawArguments json.RawMessage
}

// ToolSchema is the wire shape a tool exposes to the reasoning model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON-schema-shaped object description
}

// Message represents one conversation turn. ToolCalls is set on
// assistant messages that request tool invocations; ToolName is set on
// tool-result messages.
type Message struct {
	Role      string
	Content   string
	ToolCalls []ToolCallRequest
	ToolName  string
}

// DocumentReport records the ingestion outcome for one document.
type DocumentReport struct {
	SourceName string `json:"source_name"`
	Chunks     int    `json:"chunks"`
	Err        string `json:"error,omitempty"`
}

// IngestionReport summarizes an ingestion run. A failure on one document
// does not abort the others, so both counts and errors appear here.
type IngestionReport struct {
	Documents []DocumentReport `json:"documents"`
}

// TotalChunks returns the number of chunks ingested across all documents.
func (r *IngestionReport) TotalChunks() int {
	total := 0
	for _, d := range r.Documents {
		total += d.Chunks
	}
	return total
}

// Failed returns the reports of documents that could not be ingested.
func (r *IngestionReport) Failed() []DocumentReport {
	var failed []DocumentReport
	for _, d := range r.Documents {
		if d.Err != "" {
			failed = append(failed, d)
		}
	}
	return failed
}
