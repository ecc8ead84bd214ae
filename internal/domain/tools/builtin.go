// Package tools - builtin.go defines the knowledge-base and web-search
// tool specs. Handlers close over the capability they wrap so the
// registry stays free of infrastructure concerns.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/foxkb/assistant-go/internal/domain/entities"
	"github.com/foxkb/assistant-go/internal/domain/ports"
)

// Answerer is the retrieval capability the knowledge-base tool wraps.
type Answerer interface {
	Answer(ctx context.Context, query string) (*entities.Answer, error)
}

// KnowledgeBaseSpec returns the document-retrieval tool. A no-match
// retrieval becomes an explicit tool result (not an error), so the model
// can decide to fall back to web search.
func KnowledgeBaseSpec(rag Answerer) Spec {
	return Spec{
		Name: "query_knowledge_base",
		Description: "Answers questions from the indexed internal documents (policies, reports, " +
			"product details) and cites the source file and page for every claim.",
		Params: []Param{
			{
				Name:        "query",
				Type:        "string",
				Description: "The question to answer from the indexed documents.",
				Required:    true,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
			query := args["query"].(string)
			answer, err := rag.Answer(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("querying knowledge base: %w", err)
			}
			if answer.NoMatch {
				return &Result{Content: answer.Text}, nil
			}
			return &Result{
				Content:   answer.Text + "\n" + formatCitations(answer.Citations),
				Citations: answer.Citations,
			}, nil
		},
	}
}

// WebSearchSpec returns the web-search tool. maxResults is optional and
// capped by defaultMax when absent or out of range.
func WebSearchSpec(searcher ports.WebSearcher, defaultMax int) Spec {
	if defaultMax <= 0 {
		defaultMax = 3
	}
	return Spec{
		Name: "web_search",
		Description: "Searches the web for up-to-date information, current events, or general " +
			"knowledge not covered by the internal documents.",
		Params: []Param{
			{
				Name:        "query",
				Type:        "string",
				Description: "The search query.",
				Required:    true,
			},
			{
				Name:        "max_results",
				Type:        "integer",
				Description: "Maximum number of results to return.",
				Required:    false,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (*Result, error) {
			query := args["query"].(string)
			maxResults := defaultMax
			if v, ok := args["max_results"].(float64); ok && int(v) > 0 {
				maxResults = int(v)
			}
			hits, err := searcher.Search(ctx, query, maxResults)
			if err != nil {
				return nil, fmt.Errorf("web search: %w", err)
			}
			if len(hits) == 0 {
				return &Result{Content: "No web results found."}, nil
			}
			var sb strings.Builder
			sb.WriteString("Web search results:\n")
			for i, hit := range hits {
				fmt.Fprintf(&sb, "%d. %s (%s)\n   %s\n", i+1, hit.Title, hit.URL, hit.Snippet)
			}
			return &Result{Content: sb.String()}, nil
		},
	}
}

func formatCitations(citations []entities.Citation) string {
	if len(citations) == 0 {
		return "Cited sources: none"
	}
	parts := make([]string, len(citations))
	for i, c := range citations {
		if c.PageNumber > 0 {
			parts[i] = fmt.Sprintf("[Source: %s, Page: %d]", c.SourceName, c.PageNumber)
		} else {
			parts[i] = fmt.Sprintf("[Source: %s]", c.SourceName)
		}
	}
	return "Cited sources: " + strings.Join(parts, "; ")
}
