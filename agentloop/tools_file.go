package agentloop

import (
	"context"
	"fmt"
	"strings"
)

// RegisterFileTools adds the project file tools to the registry, all scoped
// to the given workspace.
func RegisterFileTools(registry *Registry, ws *Workspace) error {
	specs := []ToolSpec{
		{
			Name:        "read_project_file",
			Description: "Read the content of a file in the project, given its name relative to the project root.",
			Params: []Param{
				{Name: "name", Type: ParamString, Description: "Project-relative name of the file to read.", Required: true},
			},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				return ws.ReadFile(args["name"].(string))
			},
		},
		{
			Name:        "list_project_files",
			Description: "List files in the project, optionally filtered by extension and descending into subdirectories.",
			Params: []Param{
				{Name: "extension", Type: ParamString, Description: "File extension filter, e.g. \".go\". Empty lists all files.", Default: ""},
				{Name: "recursive", Type: ParamBoolean, Description: "Descend into subdirectories.", Default: false},
			},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				files, err := ws.ListFiles(args["extension"].(string), args["recursive"].(bool))
				if err != nil {
					return nil, err
				}
				if len(files) == 0 {
					return "No files found.", nil
				}
				return strings.Join(files, "\n"), nil
			},
		},
		{
			Name:        "write_project_file",
			Description: "Write content to a file in the project. Fails if the file exists unless overwrite is set.",
			Params: []Param{
				{Name: "name", Type: ParamString, Description: "Project-relative name of the file to write.", Required: true},
				{Name: "content", Type: ParamString, Description: "Full content to write.", Required: true},
				{Name: "overwrite", Type: ParamBoolean, Description: "Replace the file if it already exists.", Default: false},
			},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				name := args["name"].(string)
				if err := ws.WriteFile(name, args["content"].(string), args["overwrite"].(bool)); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Wrote %s.", name), nil
			},
		},
		{
			Name:        "find_todos",
			Description: "Scan project source files for TODO, FIXME, and similar markers.",
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				hits, err := ws.FindTodos()
				if err != nil {
					return nil, err
				}
				if len(hits) == 0 {
					return "No TODO markers found.", nil
				}
				return strings.Join(hits, "\n"), nil
			},
		},
		{
			Name:        "analyze_imports",
			Description: "Extract the import statements from a project source file.",
			Params: []Param{
				{Name: "name", Type: ParamString, Description: "Project-relative name of the file to analyze.", Required: true},
			},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				imports, err := ws.AnalyzeImports(args["name"].(string))
				if err != nil {
					return nil, err
				}
				if len(imports) == 0 {
					return "No imports found.", nil
				}
				return strings.Join(imports, "\n"), nil
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
