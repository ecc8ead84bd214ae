// Package usecases - orchestrator.go drives the reasoning/tool loop for
// one query.
package usecases

import (
	"context"
	"fmt"
	"log"

	"github.com/foxkb/assistant-go/internal/domain/entities"
	"github.com/foxkb/assistant-go/internal/domain/ports"
	"github.com/foxkb/assistant-go/internal/domain/tools"
)

// Orchestrator submits the running history plus tool schemas to the
// reasoning model, dispatches requested tool calls through the registry,
// feeds results back, and repeats until a terminal response or the
// iteration cap. The conversation state lives on the stack of one
// HandleQuery call and is discarded when it returns.
type Orchestrator struct {
	reasoner      ports.Reasoner
	registry      *tools.Registry
	maxIterations int
}

// NewOrchestrator creates an Orchestrator with injected dependencies.
func NewOrchestrator(reasoner ports.Reasoner, registry *tools.Registry, maxIterations int) *Orchestrator {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return &Orchestrator{
		reasoner:      reasoner,
		registry:      registry,
		maxIterations: maxIterations,
	}
}

// HandleQuery runs the loop for a single user query. It is the sole entry
// point the outer layers invoke. The returned answer carries every
// citation collected from knowledge-base tool results along the way.
//
// Tool failures are fed back to the model as tool-result messages so it
// can self-correct; only reasoning-call failures abort the turn.
func (o *Orchestrator) HandleQuery(ctx context.Context, query string) (*entities.Answer, error) {
	history := []entities.Message{
		{Role: entities.RoleUser, Content: query},
	}
	schemas := o.registry.Schemas()
	var citations []entities.Citation

	for i := 0; i < o.maxIterations; i++ {
		turn, err := o.reasoner.Chat(ctx, history, schemas)
		if err != nil {
			return nil, fmt.Errorf("reasoning turn %d: %w", i+1, err)
		}
		history = append(history, *turn)

		if len(turn.ToolCalls) == 0 {
			return &entities.Answer{
				Text:      turn.Content,
				Citations: dedupeCitations(citations),
			}, nil
		}

		for _, call := range turn.ToolCalls {
			history = append(history, o.executeCall(ctx, call, &citations))
		}
	}

	log.Printf("[ERROR] Iteration cap (%d) reached for query %q", o.maxIterations, query)
	return &entities.Answer{
		Text: fmt.Sprintf("I could not complete this request within %d reasoning steps. "+
			"Partial results, if any, are cited below.", o.maxIterations),
		Citations: dedupeCitations(citations),
	}, nil
}

// executeCall dispatches one tool call and turns the outcome, success or
// failure, into a tool-result message.
func (o *Orchestrator) executeCall(ctx context.Context, call entities.ToolCallRequest, citations *[]entities.Citation) entities.Message {
	log.Printf("[DEBUG] Tool call: %s %s", call.Name, string(call.RawArguments))
	result, err := o.registry.Dispatch(ctx, call)
	if err != nil {
		log.Printf("[ERROR] Tool %s failed: %v", call.Name, err)
		return entities.Message{
			Role:     entities.RoleTool,
			ToolName: call.Name,
			Content:  "Error: " + err.Error(),
		}
	}
	*citations = append(*citations, result.Citations...)
	return entities.Message{
		Role:     entities.RoleTool,
		ToolName: call.Name,
		Content:  result.Content,
	}
}

func dedupeCitations(citations []entities.Citation) []entities.Citation {
	if len(citations) == 0 {
		return nil
	}
	seen := make(map[entities.Citation]bool, len(citations))
	out := make([]entities.Citation, 0, len(citations))
	for _, c := range citations {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
