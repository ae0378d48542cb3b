package agentloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoSpec(name string) ToolSpec {
	return ToolSpec{
		Name:        name,
		Description: "echoes its input",
		Params: []Param{
			{Name: "text", Type: ParamString, Description: "text to echo", Required: true},
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoSpec("echo")))

	spec, err := reg.Lookup("echo")
	require.NoError(t, err)
	require.Equal(t, "echo", spec.Name)
	require.Equal(t, 1, reg.Count())
	require.True(t, reg.Has("echo"))
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoSpec("echo")))

	err := reg.Register(echoSpec("echo"))
	var dup *DuplicateToolError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "echo", dup.Name)
	require.Equal(t, 1, reg.Count())
}

func TestRegistryUnknownTool(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Lookup("missing")
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "missing", unknown.Name)
}

func TestRegistryPreservesOrder(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, reg.Register(echoSpec(name)))
	}

	require.Equal(t, []string{"charlie", "alpha", "bravo"}, reg.Names())

	defs := reg.Definitions()
	require.Len(t, defs, 3)
	require.Equal(t, "charlie", defs[0].Name)
	require.Equal(t, "bravo", defs[2].Name)
}

func TestToolSpecSchema(t *testing.T) {
	spec := ToolSpec{
		Name: "write_project_file",
		Params: []Param{
			{Name: "path", Type: ParamString, Description: "where", Required: true},
			{Name: "overwrite", Type: ParamBoolean, Description: "replace existing"},
		},
	}

	schema := spec.Schema()
	require.Equal(t, "object", schema["type"])

	props := schema["properties"].(map[string]any)
	require.Len(t, props, 2)
	require.Equal(t, "string", props["path"].(map[string]any)["type"])
	require.Equal(t, "boolean", props["overwrite"].(map[string]any)["type"])

	require.Equal(t, []string{"path"}, schema["required"])
}

func TestToolSpecSchemaNoRequired(t *testing.T) {
	spec := ToolSpec{Name: "find_todos"}
	schema := spec.Schema()
	_, hasRequired := schema["required"]
	require.False(t, hasRequired)
}
