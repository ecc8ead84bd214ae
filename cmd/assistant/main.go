// Command assistant wires the ingestion pipeline, the vector index and
// the tool-orchestration loop into an HTTP service.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/foxkb/assistant-go/internal/adapters/embedding"
	"github.com/foxkb/assistant-go/internal/adapters/filewatcher"
	"github.com/foxkb/assistant-go/internal/adapters/llm"
	"github.com/foxkb/assistant-go/internal/adapters/loader"
	"github.com/foxkb/assistant-go/internal/adapters/parser"
	"github.com/foxkb/assistant-go/internal/adapters/vectordb"
	"github.com/foxkb/assistant-go/internal/adapters/websearch"
	"github.com/foxkb/assistant-go/internal/config"
	"github.com/foxkb/assistant-go/internal/domain/ports"
	"github.com/foxkb/assistant-go/internal/domain/tools"
	"github.com/foxkb/assistant-go/internal/domain/usecases"
	httpserver "github.com/foxkb/assistant-go/internal/infrastructure/http"
)

func main() {
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[ERROR] Loading config: %v", err)
	}
	if cfg.EmbeddingAPIKey() == "" {
		log.Fatalf("[ERROR] %s is not set", cfg.Embedding.APIKeyEnv)
	}

	// Adapters
	embedder := embedding.NewGeminiAdapter(embedding.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.EmbeddingAPIKey(),
		Model:      cfg.Embedding.Model,
		Dimension:  cfg.Embedding.Dimension,
		MaxRetries: cfg.Embedding.MaxRetries,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	})

	index, err := vectordb.NewSQLiteIndex(cfg.Store.Path, embedder.Dimension())
	if err != nil {
		log.Fatalf("[ERROR] Opening vector index: %v", err)
	}
	defer index.Close()

	gemini := llm.NewGeminiAdapter(
		cfg.Chat.BaseURL,
		cfg.ChatAPIKey(),
		cfg.Chat.Model,
		time.Duration(cfg.Chat.TimeoutSecs)*time.Second,
	)

	// Usecases
	chunker, err := usecases.NewChunker(cfg.Chunking.Size, *cfg.Chunking.Overlap)
	if err != nil {
		log.Fatalf("[ERROR] Chunker config: %v", err)
	}
	pipeline := usecases.NewIngestionPipeline(chunker, embedder, index,
		parser.NewPDFParser(), parser.NewTextParser())
	retriever := usecases.NewRetrievalSynthesizer(embedder, index, gemini,
		cfg.Retrieval.TopK, *cfg.Retrieval.ConfidenceFloor)

	// Tools
	registry := tools.NewRegistry()
	mustRegister(registry, tools.KnowledgeBaseSpec(retriever))
	mustRegister(registry, tools.CalculatorSpec())
	if cfg.WebSearchAPIKey() != "" {
		searcher := websearch.NewTavilyClient(
			cfg.WebSearch.BaseURL,
			cfg.WebSearchAPIKey(),
			time.Duration(cfg.WebSearch.TimeoutSecs)*time.Second,
		)
		mustRegister(registry, tools.WebSearchSpec(searcher, cfg.WebSearch.MaxResults))
	} else {
		log.Printf("[INFO] %s not set, web search tool disabled", cfg.WebSearch.APIKeyEnv)
	}

	orchestrator := usecases.NewOrchestrator(gemini, registry, cfg.Loop.MaxIterations)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial ingestion of the documents directory. Idempotent, so a
	// restart over unchanged documents leaves the index as it was.
	docLoader := loader.NewDirectoryLoader()
	if docs, err := docLoader.LoadDir(ctx, cfg.Documents.Dir); err != nil {
		log.Printf("[ERROR] Loading documents from %s: %v", cfg.Documents.Dir, err)
	} else if report, err := pipeline.Ingest(ctx, docs); err == nil {
		log.Printf("[INFO] Initial ingestion: %d documents, %d chunks, %d failures",
			len(report.Documents), report.TotalChunks(), len(report.Failed()))
	}

	if cfg.Documents.Watch {
		go watchDocuments(ctx, cfg.Documents.Dir, docLoader, pipeline)
	}

	server := httpserver.NewServer(orchestrator, pipeline, docLoader, index, cfg.Documents.Dir, cfg.Server.Addr)
	if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[ERROR] Server: %v", err)
	}
}

func mustRegister(registry *tools.Registry, spec tools.Spec) {
	if err := registry.Register(spec); err != nil {
		log.Fatalf("[ERROR] Registering tool: %v", err)
	}
}

// watchDocuments keeps the index in sync with the documents directory.
func watchDocuments(ctx context.Context, dir string, docLoader ports.DocumentLoader, pipeline *usecases.IngestionPipeline) {
	watcher, err := filewatcher.NewDocsWatcher(docLoader.SupportedExtensions())
	if err != nil {
		log.Printf("[ERROR] Starting document watcher: %v", err)
		return
	}
	defer watcher.Stop()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		log.Printf("[ERROR] Watching %s: %v", dir, err)
		return
	}

	for event := range events {
		switch event.Operation {
		case ports.FileCreated, ports.FileModified:
			doc, err := docLoader.Load(ctx, event.Path)
			if err != nil {
				log.Printf("[ERROR] Loading changed file %s: %v", event.Path, err)
				continue
			}
			if _, err := pipeline.IngestDocument(ctx, *doc); err != nil {
				log.Printf("[ERROR] Re-ingesting %s: %v", doc.SourceName, err)
			}
		case ports.FileDeleted:
			if err := pipeline.RemoveSource(ctx, filepath.Base(event.Path)); err != nil {
				log.Printf("[ERROR] Removing %s from index: %v", event.Path, err)
			}
		}
	}
}
