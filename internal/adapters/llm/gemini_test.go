package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

func newTestServer(t *testing.T, handler func(req generateRequest) generateResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(handler(req))
	}))
}

func textResponse(text string) generateResponse {
	var resp generateResponse
	resp.Candidates = []struct {
		Content content `json:"content"`
	}{
		{Content: content{Role: "model", Parts: []part{{Text: text}}}},
	}
	return resp
}

func TestGeminiAdapter_ChatTextAnswer(t *testing.T) {
	server := newTestServer(t, func(req generateRequest) generateResponse {
		return textResponse("Paris.")
	})
	defer server.Close()

	adapter := NewGeminiAdapter(server.URL, "key", "", 0)

	turn, err := adapter.Chat(context.Background(), []entities.Message{
		{Role: entities.RoleUser, Content: "capital of France?"},
	}, nil)
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if turn.Role != entities.RoleAssistant {
		t.Errorf("unexpected role: %s", turn.Role)
	}
	if turn.Content != "Paris." {
		t.Errorf("unexpected content: %s", turn.Content)
	}
	if len(turn.ToolCalls) != 0 {
		t.Errorf("expected no tool calls, got %d", len(turn.ToolCalls))
	}
}

func TestGeminiAdapter_ChatParsesToolCalls(t *testing.T) {
	var seen generateRequest
	server := newTestServer(t, func(req generateRequest) generateResponse {
		seen = req
		var resp generateResponse
		resp.Candidates = []struct {
			Content content `json:"content"`
		}{
			{Content: content{Role: "model", Parts: []part{
				{FunctionCall: &functionCall{
					Name: "calculator",
					Args: json.RawMessage(`{"expression": "2+2"}`),
				}},
			}}},
		}
		return resp
	})
	defer server.Close()

	adapter := NewGeminiAdapter(server.URL, "key", "", 0)
	schemas := []entities.ToolSchema{
		{Name: "calculator", Description: "math", Parameters: map[string]any{"type": "object"}},
	}

	turn, err := adapter.Chat(context.Background(), []entities.Message{
		{Role: entities.RoleUser, Content: "what is 2+2?"},
	}, schemas)
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if len(turn.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(turn.ToolCalls))
	}
	call := turn.ToolCalls[0]
	if call.Name != "calculator" {
		t.Errorf("unexpected tool name: %s", call.Name)
	}
	if !strings.Contains(string(call.RawArguments), "2+2") {
		t.Errorf("unexpected arguments: %s", call.RawArguments)
	}

	// The declared tools must be on the wire.
	if len(seen.Tools) != 1 || len(seen.Tools[0].FunctionDeclarations) != 1 {
		t.Fatal("tool declarations missing from request")
	}
	if seen.Tools[0].FunctionDeclarations[0].Name != "calculator" {
		t.Errorf("wrong declaration: %+v", seen.Tools[0].FunctionDeclarations[0])
	}
	if seen.SystemInstruction == nil {
		t.Error("system instruction missing from request")
	}
}

func TestGeminiAdapter_ChatRoleMapping(t *testing.T) {
	var seen generateRequest
	server := newTestServer(t, func(req generateRequest) generateResponse {
		seen = req
		return textResponse("done")
	})
	defer server.Close()

	adapter := NewGeminiAdapter(server.URL, "key", "", 0)
	history := []entities.Message{
		{Role: entities.RoleUser, Content: "question"},
		{Role: entities.RoleAssistant, ToolCalls: []entities.ToolCallRequest{
			{Name: "web_search", RawArguments: json.RawMessage(`{"query": "x"}`)},
		}},
		{Role: entities.RoleTool, ToolName: "web_search", Content: "results here"},
	}

	if _, err := adapter.Chat(context.Background(), history, nil); err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if len(seen.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(seen.Contents))
	}
	if seen.Contents[0].Role != "user" {
		t.Errorf("user message mapped to %q", seen.Contents[0].Role)
	}
	if seen.Contents[1].Role != "model" || seen.Contents[1].Parts[0].FunctionCall == nil {
		t.Errorf("assistant tool call mapped wrong: %+v", seen.Contents[1])
	}
	if seen.Contents[2].Role != "function" {
		t.Errorf("tool result mapped to %q", seen.Contents[2].Role)
	}
	fr := seen.Contents[2].Parts[0].FunctionResponse
	if fr == nil || fr.Name != "web_search" || fr.Response["content"] != "results here" {
		t.Errorf("function response malformed: %+v", fr)
	}
}

func TestGeminiAdapter_Synthesize(t *testing.T) {
	var seen generateRequest
	server := newTestServer(t, func(req generateRequest) generateResponse {
		seen = req
		return textResponse("The contract shall be awarded within 30 days.")
	})
	defer server.Close()

	adapter := NewGeminiAdapter(server.URL, "key", "", 0)

	answer, err := adapter.Synthesize(context.Background(), "when is the contract awarded?", []string{
		"Source 1 (File: policy.pdf, Page: 56):\nThe contract shall be awarded within 30 days.",
	})
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if !strings.Contains(answer, "30 days") {
		t.Errorf("unexpected answer: %s", answer)
	}

	if len(seen.Tools) != 0 {
		t.Error("synthesis must not expose tools")
	}
	prompt := seen.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "policy.pdf") || !strings.Contains(prompt, "when is the contract awarded?") {
		t.Error("prompt missing context or question")
	}
}

func TestGeminiAdapter_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(server.URL, "key", "", 0)

	if _, err := adapter.Chat(context.Background(), []entities.Message{
		{Role: entities.RoleUser, Content: "x"},
	}, nil); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestGeminiAdapter_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	adapter := NewGeminiAdapter(server.URL, "key", "", 0)

	if _, err := adapter.Synthesize(context.Background(), "x", nil); err == nil {
		t.Fatal("expected an error when no candidates are returned")
	}
}
