// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

// ErrChunkerConfig indicates invalid chunk size/overlap configuration.
var ErrChunkerConfig = errors.New("chunker: overlap must be non-negative and smaller than size")

// Chunker splits page-tagged text into overlapping fixed-size segments.
// Identical input and configuration always produce the identical chunk
// sequence, which is what makes re-ingestion idempotent.
type Chunker struct {
	size      int
	overlap   int
	tolerance int // how far back from the hard cut a sentence end may be
}

// NewChunker creates a Chunker. size must be positive and overlap must be
// smaller than size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ErrChunkerConfig
	}
	return &Chunker{
		size:      size,
		overlap:   overlap,
		tolerance: size / 4,
	}, nil
}

// Split chunks the pages of one source document. The sequence index is
// monotonically increasing across pages, and each chunk carries the page
// it came from. Windows are measured in runes, so multi-byte text is
// never cut mid-character.
func (c *Chunker) Split(sourceName string, pages []entities.Page) []entities.Chunk {
	var chunks []entities.Chunk
	seq := 0

	for _, page := range pages {
		text := []rune(strings.TrimSpace(page.Text))
		start := 0
		for start < len(text) {
			end := start + c.size
			if end >= len(text) {
				end = len(text)
			} else {
				end = start + c.cutPoint(text[start:end])
			}

			piece := strings.TrimSpace(string(text[start:end]))
			if piece != "" {
				chunks = append(chunks, entities.Chunk{
					ID:         chunkFingerprint(sourceName, seq, piece),
					SourceName: sourceName,
					PageNumber: page.Number,
					Text:       piece,
					Index:      seq,
				})
				seq++
			}

			if end == len(text) {
				break
			}
			next := end - c.overlap
			if next <= start {
				next = end
			}
			start = next
		}
	}

	return chunks
}

// cutPoint picks where to cut a full-size window: a sentence end within
// the tolerance window if there is one, else the last word boundary,
// else the hard length boundary.
func (c *Chunker) cutPoint(window []rune) int {
	limit := len(window) - c.tolerance
	for i := len(window) - 1; i >= limit && i > 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == ' ' {
			return i
		}
	}
	return len(window)
}

// chunkFingerprint derives the deterministic chunk ID from source name,
// sequence index and text, so unchanged content maps to the same ID.
func chunkFingerprint(sourceName string, index int, text string) string {
	h := sha256.New()
	h.Write([]byte(sourceName))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(index)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:8])
}
