// Package parser provides document parsing adapters.
// Clean Architecture: Adapters implementing ports.DocumentParser.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

// PDFParser extracts text page by page so every chunk keeps its page
// provenance. Pages that fail extraction are skipped; only a document
// that yields no text at all is a parse failure.
type PDFParser struct{}

// NewPDFParser creates a new PDF parser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts one Page per physical page with text content.
func (p *PDFParser) Parse(ctx context.Context, doc entities.Document) ([]entities.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(doc.Raw), int64(len(doc.Raw)))
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", doc.SourceName, err)
	}

	var pages []entities.Page
	for num := 1; num <= reader.NumPage(); num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // Skip pages the extractor cannot handle
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, entities.Page{Number: num, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %s", doc.SourceName)
	}
	return pages, nil
}

// SupportedFormats returns formats this parser handles.
func (p *PDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}
