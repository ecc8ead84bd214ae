// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/foxkb/assistant-go/internal/domain/ports"
	"github.com/foxkb/assistant-go/internal/domain/usecases"
)

// Server exposes the assistant over a small JSON API.
type Server struct {
	orchestrator *usecases.Orchestrator
	pipeline     *usecases.IngestionPipeline
	loader       ports.DocumentLoader
	index        ports.VectorIndex
	docsDir      string
	addr         string
}

// NewServer creates a new HTTP server.
func NewServer(
	orchestrator *usecases.Orchestrator,
	pipeline *usecases.IngestionPipeline,
	loader ports.DocumentLoader,
	index ports.VectorIndex,
	docsDir string,
	addr string,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		pipeline:     pipeline,
		loader:       loader,
		index:        index,
		docsDir:      docsDir,
		addr:         addr,
	}
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/ingest", s.handleIngest)
	mux.HandleFunc("/api/health", s.handleHealth)

	server := &http.Server{
		Addr:         s.addr,
		Handler:      corsMiddleware(loggingMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Tool loops can take several round trips
	}

	log.Printf("[INFO] Knowledge assistant listening on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// handleQuery answers one question through the orchestration loop.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		http.Error(w, "Query required", http.StatusBadRequest)
		return
	}

	answer, err := s.orchestrator.HandleQuery(r.Context(), req.Query)
	if err != nil {
		log.Printf("[ERROR] Query failed: %v", err)
		http.Error(w, "Query failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, answer)
}

// handleIngest re-runs ingestion over the documents directory. Safe to
// call repeatedly: unchanged documents overwrite themselves.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs, err := s.loader.LoadDir(r.Context(), s.docsDir)
	if err != nil {
		http.Error(w, "Loading documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	report, err := s.pipeline.Ingest(r.Context(), docs)
	if err != nil {
		http.Error(w, "Ingestion aborted: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, report)
}

// handleHealth returns server health status and index size.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	size, err := s.index.Size(r.Context())
	if err != nil {
		http.Error(w, "Index unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "indexed_chunks": size})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
