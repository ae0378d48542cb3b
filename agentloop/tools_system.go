package agentloop

import (
	"context"
	"strings"
	"time"
)

// RegisterSystemTools adds the session and introspection tools to the
// registry.
func RegisterSystemTools(registry *Registry, ws *Workspace) error {
	specs := []ToolSpec{
		{
			Name:        "terminate",
			Description: "End the session. Call this when the goal is complete, with a summary of what was done.",
			Params: []Param{
				{Name: "message", Type: ParamString, Description: "Final summary presented to the user.", Required: true},
			},
			Terminal: true,
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return args["message"].(string), nil
			},
		},
		{
			Name:        "get_current_time",
			Description: "Return the current date and time.",
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return time.Now().Format(time.RFC3339), nil
			},
		},
		{
			Name:        "get_working_directory",
			Description: "Return the absolute path of the project root.",
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return ws.Root(), nil
			},
		},
		{
			Name:        "list_environment_variables",
			Description: "List the names of environment variables visible to the agent. Values and credential-like variables are never shown.",
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				names := FilteredEnvironment()
				if len(names) == 0 {
					return "No environment variables visible.", nil
				}
				return strings.Join(names, "\n"), nil
			},
		},
	}

	for _, spec := range specs {
		if err := registry.Register(spec); err != nil {
			return err
		}
	}
	return nil
}
