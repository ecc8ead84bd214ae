// Package tools provides the typed tool registry and the built-in tool
// handlers the orchestration loop dispatches to.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/foxkb/assistant-go/internal/domain/entities"
)

var (
	// ErrUnknownTool is returned when a call names a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments is returned when a call's arguments do not
	// validate against the tool's parameter schema. The orchestration
	// loop feeds these errors back to the model instead of surfacing
	// them to the user.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// Result is what a tool handler produces. Citations is populated by the
// knowledge-base tool so the loop can carry provenance into the final answer.
type Result struct {
	Content   string
	Citations []entities.Citation
}

// Handler executes a tool with validated arguments.
type Handler func(ctx context.Context, args map[string]any) (*Result, error)

// Param describes one tool parameter. Type is a JSON-schema primitive
// ("string", "number", "integer").
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Spec binds a tool name to its parameter schema and handler.
type Spec struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Registry maps tool names to specs. It is populated at startup and
// read-only afterwards, so concurrent queries can dispatch without locking.
type Registry struct {
	specs map[string]Spec
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds a tool spec. Names must be unique.
func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" {
		return errors.New("tool name must not be empty")
	}
	if spec.Handler == nil {
		return fmt.Errorf("tool %q has no handler", spec.Name)
	}
	if _, exists := r.specs[spec.Name]; exists {
		return fmt.Errorf("tool %q already registered", spec.Name)
	}
	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// Schemas returns the wire-shape descriptors of all registered tools, in
// registration order, for submission to the reasoning model.
func (r *Registry) Schemas() []entities.ToolSchema {
	schemas := make([]entities.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		spec := r.specs[name]
		properties := make(map[string]any, len(spec.Params))
		var required []string
		for _, p := range spec.Params {
			properties[p.Name] = map[string]any{
				"type":        p.Type,
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		parameters := map[string]any{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			parameters["required"] = required
		}
		schemas = append(schemas, entities.ToolSchema{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  parameters,
		})
	}
	return schemas
}

// Dispatch validates a tool-call request and executes its handler.
// Invalid requests fail closed: they never reach the handler.
func (r *Registry) Dispatch(ctx context.Context, call entities.ToolCallRequest) (*Result, error) {
	spec, ok := r.specs[call.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	args, err := parseArguments(call.RawArguments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := validateArguments(spec, args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	return spec.Handler(ctx, args)
}

func parseArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %v", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func validateArguments(spec Spec, args map[string]any) error {
	known := make(map[string]Param, len(spec.Params))
	for _, p := range spec.Params {
		known[p.Name] = p
	}
	for name := range args {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("unexpected argument %q for tool %q", name, spec.Name)
		}
	}
	for _, p := range spec.Params {
		value, present := args[p.Name]
		if !present {
			if p.Required {
				return fmt.Errorf("missing required argument %q for tool %q", p.Name, spec.Name)
			}
			continue
		}
		if err := checkType(p, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(p Param, value any) error {
	switch p.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("argument %q must be a string", p.Name)
		}
	case "number", "integer":
		// JSON numbers decode as float64.
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("argument %q must be a number", p.Name)
		}
	default:
		return fmt.Errorf("argument %q has unsupported schema type %q", p.Name, p.Type)
	}
	return nil
}
