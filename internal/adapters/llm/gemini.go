// Package llm provides the Gemini generation adapter.
// Clean Architecture: Adapter implementing ports.Reasoner and ports.Synthesizer.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// systemPrompt steers the reasoning model toward tool use: document
// questions go to the knowledge base, arithmetic to the calculator, and
// current events to web search.
const systemPrompt = `You are a knowledge assistant with access to tools.
For questions about the indexed documents (policies, products, reports), call query_knowledge_base.
For arithmetic, call calculator. For current events or topics outside the documents, call web_search.
If the knowledge base reports no relevant information, consider web_search before answering.
When a tool result answers the question, present it clearly and keep any source citations.
Do not answer document-specific questions from general knowledge.`

// synthesisPrompt constrains answer generation to the retrieved context.
const synthesisPrompt = `You are an AI assistant answering a question from the provided context only.
If the context does not contain the answer, say you cannot answer from the provided information.
Do NOT use external knowledge and do NOT fabricate citations.

CONTEXT:
%s

QUESTION:
%s

ANSWER:`

// GeminiAdapter talks to the Gemini generateContent API. The same
// adapter serves both capabilities the core depends on: function-calling
// reasoning turns and constrained context-only synthesis.
type GeminiAdapter struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewGeminiAdapter creates a new Gemini generation adapter.
func NewGeminiAdapter(baseURL, apiKey, model string, timeout time.Duration) *GeminiAdapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "models/gemini-1.5-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
	Tools             []tool    `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Chat submits the running history plus tool schemas and returns the
// model's turn: either a final text answer or one carrying tool-call
// requests.
func (a *GeminiAdapter) Chat(ctx context.Context, history []entities.Message, tools []entities.ToolSchema) (*entities.Message, error) {
	reqBody := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
		Contents:          toContents(history),
	}
	if len(tools) > 0 {
		declarations := make([]functionDeclaration, len(tools))
		for i, t := range tools {
			declarations[i] = functionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			}
		}
		reqBody.Tools = []tool{{FunctionDeclarations: declarations}}
	}

	resp, err := a.generate(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	turn := &entities.Message{Role: entities.RoleAssistant}
	var texts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.FunctionCall != nil {
			turn.ToolCalls = append(turn.ToolCalls, entities.ToolCallRequest{
				Name:         p.FunctionCall.Name,
				RawArguments: p.FunctionCall.Args,
			})
		}
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	turn.Content = strings.TrimSpace(strings.Join(texts, "\n"))
	return turn, nil
}

// Synthesize runs one constrained generation call over the retrieved
// context blocks. No tools are exposed here.
func (a *GeminiAdapter) Synthesize(ctx context.Context, query string, contextBlocks []string) (string, error) {
	prompt := fmt.Sprintf(synthesisPrompt, strings.Join(contextBlocks, "\n---\n"), query)
	resp, err := a.generate(ctx, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	var texts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), nil
}

func (a *GeminiAdapter) generate(ctx context.Context, reqBody generateRequest) (*generateResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", a.baseURL, a.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling generation endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return nil, fmt.Errorf("generation endpoint returned status %d: %s", resp.StatusCode, buf.String())
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("generation endpoint returned no candidates")
	}
	return &genResp, nil
}

// toContents maps domain messages onto the Gemini wire roles: assistant
// turns become "model", tool results become "function" responses.
func toContents(history []entities.Message) []content {
	contents := make([]content, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case entities.RoleAssistant:
			c := content{Role: "model"}
			if msg.Content != "" {
				c.Parts = append(c.Parts, part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				c.Parts = append(c.Parts, part{FunctionCall: &functionCall{
					Name: call.Name,
					Args: call.RawArguments,
				}})
			}
			contents = append(contents, c)
		case entities.RoleTool:
			contents = append(contents, content{
				Role: "function",
				Parts: []part{{FunctionResponse: &functionResponse{
					Name:     msg.ToolName,
					Response: map[string]any{"content": msg.Content},
				}}},
			})
		default:
			contents = append(contents, content{
				Role:  "user",
				Parts: []part{{Text: msg.Content}},
			})
		}
	}
	return contents
}
