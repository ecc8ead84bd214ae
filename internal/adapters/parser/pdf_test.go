package parser

import (
	"context"
	"testing"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

func TestPDFParser_RejectsGarbage(t *testing.T) {
	p := NewPDFParser()

	_, err := p.Parse(context.Background(), entities.Document{
		SourceName: "broken.pdf",
		Format:     "pdf",
		Raw:        []byte("this is not a pdf"),
	})
	if err == nil {
		t.Error("non-PDF bytes should be rejected")
	}
}

func TestPDFParser_RejectsEmpty(t *testing.T) {
	p := NewPDFParser()

	_, err := p.Parse(context.Background(), entities.Document{
		SourceName: "empty.pdf",
		Format:     "pdf",
		Raw:        nil,
	})
	if err == nil {
		t.Error("empty input should be rejected")
	}
}

func TestPDFParser_SupportedFormats(t *testing.T) {
	formats := NewPDFParser().SupportedFormats()
	if len(formats) != 1 || formats[0] != "pdf" {
		t.Errorf("unexpected formats: %v", formats)
	}
}
