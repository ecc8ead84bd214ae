package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

// TextParser handles plain text and markdown. These formats have no
// pages, so the whole document becomes a single span with page number 0.
type TextParser struct{}

// NewTextParser creates a new plain-text parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse returns the document content as one unpaginated span.
func (p *TextParser) Parse(ctx context.Context, doc entities.Document) ([]entities.Page, error) {
	if !utf8.Valid(doc.Raw) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text", doc.SourceName)
	}
	text := strings.TrimSpace(string(doc.Raw))
	if text == "" {
		return nil, nil
	}
	return []entities.Page{{Number: 0, Text: text}}, nil
}

// SupportedFormats returns formats this parser handles.
func (p *TextParser) SupportedFormats() []string {
	return []string{"txt", "md"}
}
