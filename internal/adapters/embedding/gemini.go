// Package embedding provides the Gemini embedding adapter.
// Clean Architecture: This is an adapter that implements ports.EmbeddingService.
// It knows about the Generative Language API specifics but the domain layer doesn't.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiAdapter implements ports.EmbeddingService against the Gemini
// embedContent / batchEmbedContents endpoints. Transient failures
// (network errors, 429, 5xx) are retried with exponential backoff up to
// the configured limit before the error surfaces to the caller.
type GeminiAdapter struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	maxRetries int
	client     *http.Client
}

// Config configures the Gemini embedding adapter.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	MaxRetries int
	Timeout    time.Duration
}

// NewGeminiAdapter creates a new Gemini embedding adapter.
func NewGeminiAdapter(cfg Config) *GeminiAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "models/embedding-001"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 768
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GeminiAdapter{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Dimension returns the embedding dimensionality of the configured model.
func (a *GeminiAdapter) Dimension() int {
	return a.dimension
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type embedRequest struct {
	Model   string        `json:"model,omitempty"`
	Content geminiContent `json:"content"`
}

type embedResponse struct {
	Embedding geminiEmbedding `json:"embedding"`
}

type geminiEmbedding struct {
	Values []float32 `json:"values"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []geminiEmbedding `json:"embeddings"`
}

// Embed generates an embedding for a single text.
func (a *GeminiAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedRequest{Content: geminiContent{Parts: []geminiPart{{Text: text}}}}

	var resp embedResponse
	url := fmt.Sprintf("%s/%s:embedContent", a.baseURL, a.model)
	if err := a.post(ctx, url, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding service: empty embedding returned")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch generates embeddings for multiple texts via one batch call,
// preserving input order.
func (a *GeminiAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := batchEmbedRequest{Requests: make([]embedRequest, len(texts))}
	for i, text := range texts {
		reqBody.Requests[i] = embedRequest{
			Model:   a.model,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		}
	}

	var resp batchEmbedResponse
	url := fmt.Sprintf("%s/%s:batchEmbedContents", a.baseURL, a.model)
	if err := a.post(ctx, url, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding service: %d texts sent, %d embeddings returned", len(texts), len(resp.Embeddings))
	}

	embeddings := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		embeddings[i] = e.Values
	}
	return embeddings, nil
}

// post issues the request, retrying transient failures with exponential
// backoff up to maxRetries additional attempts.
func (a *GeminiAdapter) post(ctx context.Context, url string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[DEBUG] Retrying embedding call (attempt %d/%d) after %v", attempt, a.maxRetries, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = a.doOnce(ctx, url, jsonData, out)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

func (a *GeminiAdapter) doOnce(ctx context.Context, url string, jsonData []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling embedding endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return &httpStatusError{status: resp.StatusCode, body: buf.String()}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// isRetryable treats network failures, rate limits and server errors as
// transient. Client errors (bad request, bad key) are not retried.
func isRetryable(err error) bool {
	if statusErr, ok := err.(*httpStatusError); ok {
		return statusErr.status == http.StatusTooManyRequests || statusErr.status >= 500
	}
	return true
}
