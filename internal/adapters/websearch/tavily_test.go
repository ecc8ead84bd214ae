package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTavilyClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.APIKey != "test-key" {
			t.Errorf("api key not sent: %q", req.APIKey)
		}
		if req.Query != "go releases" {
			t.Errorf("unexpected query: %q", req.Query)
		}
		if req.MaxResults != 2 {
			t.Errorf("unexpected max_results: %d", req.MaxResults)
		}
		w.Write([]byte(`{"results": [
			{"title": "Go Blog", "url": "https://go.dev/blog", "content": "Go 1.21 is out."},
			{"title": "Release Notes", "url": "https://go.dev/doc", "content": "Details."}
		]}`))
	}))
	defer server.Close()

	client := NewTavilyClient(server.URL, "test-key", 0)

	hits, err := client.Search(context.Background(), "go releases", 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Title != "Go Blog" || hits[0].URL != "https://go.dev/blog" || hits[0].Snippet != "Go 1.21 is out." {
		t.Errorf("unexpected first hit: %+v", hits[0])
	}
}

func TestTavilyClient_DefaultMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MaxResults != 3 {
			t.Errorf("expected default max_results 3, got %d", req.MaxResults)
		}
		w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := NewTavilyClient(server.URL, "key", 0)

	hits, err := client.Search(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestTavilyClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewTavilyClient(server.URL, "bad-key", 0)

	if _, err := client.Search(context.Background(), "anything", 3); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}
