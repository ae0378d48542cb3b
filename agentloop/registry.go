package agentloop

import (
	"context"
	"sync"

	"github.com/SamanBarahoie/AutoDocGPT/llmclient"
)

// ParamType is the JSON Schema type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
)

// Param describes one tool parameter.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Default     any // used when an optional parameter is absent
}

// ToolFunc is the execution body of a tool. Arguments arrive validated and
// coerced to the declared parameter types; the returned value is rendered to
// text for the model.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolSpec pairs a tool's metadata with its executor.
type ToolSpec struct {
	Name        string
	Description string
	Params      []Param
	Run         ToolFunc

	// Terminal marks a tool whose execution ends the session (terminate).
	Terminal bool
}

// Schema renders the parameter list as a JSON Schema object suitable for a
// chat-completions tools array.
func (s ToolSpec) Schema() map[string]any {
	properties := make(map[string]any, len(s.Params))
	var required []string
	for _, p := range s.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Definition converts the spec into serializable tool metadata.
func (s ToolSpec) Definition() llmclient.ToolDefinition {
	return llmclient.ToolDefinition{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  s.Schema(),
	}
}

// Registry manages tool registration and lookup. Registration order is
// preserved so the tool list presented to the model is deterministic.
type Registry struct {
	tools map[string]*ToolSpec
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*ToolSpec),
	}
}

// Register adds a tool. Registering a name twice returns DuplicateToolError;
// the original registration stays in place.
func (r *Registry) Register(spec ToolSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[spec.Name]; exists {
		return &DuplicateToolError{Name: spec.Name}
	}
	s := spec
	r.tools[spec.Name] = &s
	r.order = append(r.order, spec.Name)
	return nil
}

// Lookup returns a registered tool by name.
func (r *Registry) Lookup(name string) (*ToolSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return spec, nil
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Specs returns all tools in registration order.
func (r *Registry) Specs() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, *r.tools[name])
	}
	return specs
}

// Definitions returns serializable metadata for all tools in registration
// order, for sending to the backend.
func (r *Registry) Definitions() []llmclient.ToolDefinition {
	specs := r.Specs()
	defs := make([]llmclient.ToolDefinition, len(specs))
	for i, s := range specs {
		defs[i] = s.Definition()
	}
	return defs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
