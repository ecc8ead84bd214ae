// Package loader provides document loading adapters.
package loader

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

// extensionFormats maps file extensions to ingestion formats.
var extensionFormats = map[string]string{
	".pdf":      "pdf",
	".txt":      "txt",
	".md":       "md",
	".markdown": "md",
}

// DirectoryLoader reads supported documents from the filesystem. It only
// reads bytes and tags the format; parsing belongs to the parser adapters.
type DirectoryLoader struct{}

// NewDirectoryLoader creates a new directory loader.
func NewDirectoryLoader() *DirectoryLoader {
	return &DirectoryLoader{}
}

// Load reads a single document from the given path.
func (l *DirectoryLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := extensionFormats[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &entities.Document{
		SourceName: filepath.Base(path),
		Path:       path,
		Format:     format,
		Raw:        raw,
	}, nil
}

// LoadDir reads every supported document directly under dir. Unreadable
// files are logged and skipped so one bad file does not block the rest.
func (l *DirectoryLoader) LoadDir(ctx context.Context, dir string) ([]entities.Document, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var docs []entities.Document
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(dirEntry.Name()))
		if _, ok := extensionFormats[ext]; !ok {
			continue
		}
		doc, err := l.Load(ctx, filepath.Join(dir, dirEntry.Name()))
		if err != nil {
			log.Printf("[ERROR] Loading %s: %v", dirEntry.Name(), err)
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *DirectoryLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionFormats))
	for ext := range extensionFormats {
		exts = append(exts, ext)
	}
	return exts
}
