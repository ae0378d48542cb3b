package agentloop

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SamanBarahoie/AutoDocGPT/llmclient"
)

func TestParseResponseStructuredToolCall(t *testing.T) {
	resp := &llmclient.Response{
		ToolCalls: []llmclient.ToolCall{{
			ID:        "call_1",
			Name:      "read_project_file",
			Arguments: json.RawMessage(`{"path":"main.go"}`),
		}},
	}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.Equal(t, KindToolCall, parsed.Kind)
	require.Equal(t, "call_1", parsed.Call.ID)
	require.Equal(t, "read_project_file", parsed.Call.Name)
	require.Equal(t, "main.go", parsed.Call.Arguments["path"])
}

func TestParseResponseMultipleStructuredCallsTakesFirst(t *testing.T) {
	resp := &llmclient.Response{
		ToolCalls: []llmclient.ToolCall{
			{ID: "call_1", Name: "find_todos", Arguments: json.RawMessage(`{}`)},
			{ID: "call_2", Name: "get_current_time", Arguments: json.RawMessage(`{}`)},
		},
	}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.Equal(t, "find_todos", parsed.Call.Name)
}

func TestParseResponseStructuredCallGetsID(t *testing.T) {
	resp := &llmclient.Response{
		ToolCalls: []llmclient.ToolCall{{Name: "find_todos", Arguments: json.RawMessage(`{}`)}},
	}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.NotEmpty(t, parsed.Call.ID)
}

func TestParseResponseDirectAnswer(t *testing.T) {
	resp := &llmclient.Response{Content: "The project has three packages."}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.Equal(t, KindDirectAnswer, parsed.Kind)
	require.Equal(t, "The project has three packages.", parsed.Answer)
	require.Nil(t, parsed.Call)
}

func TestParseResponseConventionCall(t *testing.T) {
	resp := &llmclient.Response{
		Content: `{"tool": "list_project_files", "args": {"extension": ".go", "recursive": true}}`,
	}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.Equal(t, KindToolCall, parsed.Kind)
	require.Equal(t, "list_project_files", parsed.Call.Name)
	require.Equal(t, ".go", parsed.Call.Arguments["extension"])
	require.Equal(t, true, parsed.Call.Arguments["recursive"])
	require.NotEmpty(t, parsed.Call.ID)
}

func TestParseResponseConventionCallEmbeddedInProse(t *testing.T) {
	resp := &llmclient.Response{
		Content: "I will read the main file first.\n\n" +
			`{"tool": "read_project_file", "args": {"path": "cmd/main.go"}}` +
			"\n\nThen I will summarize it.",
	}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.Equal(t, KindToolCall, parsed.Kind)
	require.Equal(t, "read_project_file", parsed.Call.Name)
	require.Equal(t, "cmd/main.go", parsed.Call.Arguments["path"])
}

func TestParseResponseConventionCallWithoutArgs(t *testing.T) {
	resp := &llmclient.Response{Content: `{"tool": "find_todos"}`}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.Equal(t, "find_todos", parsed.Call.Name)
	require.Empty(t, parsed.Call.Arguments)
}

func TestParseResponseRepairsNearJSON(t *testing.T) {
	// Trailing comma and single quotes: common model sloppiness.
	resp := &llmclient.Response{
		Content: `{"tool": "read_project_file", "args": {"path": "main.go",}}`,
	}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.Equal(t, KindToolCall, parsed.Kind)
	require.Equal(t, "main.go", parsed.Call.Arguments["path"])
}

func TestParseResponseTruncatedCallRepaired(t *testing.T) {
	resp := &llmclient.Response{
		Content: `{"tool": "write_project_file", "args": {"path": "README.md", "content": "# Title`,
	}

	parsed, err := ParseResponse(resp, nil)
	require.NoError(t, err)
	require.Equal(t, "write_project_file", parsed.Call.Name)
}

func TestParseResponseMalformedStructuredArguments(t *testing.T) {
	resp := &llmclient.Response{
		ToolCalls: []llmclient.ToolCall{{
			ID:        "call_1",
			Name:      "read_project_file",
			Arguments: json.RawMessage(`"just a string"`),
		}},
	}

	_, err := ParseResponse(resp, nil)
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestParseResponseEmptyContent(t *testing.T) {
	parsed, err := ParseResponse(&llmclient.Response{Content: "   "}, nil)
	require.NoError(t, err)
	require.Equal(t, KindDirectAnswer, parsed.Kind)
	require.Equal(t, "", parsed.Answer)
}

func TestParseResponseUnknownToolStructured(t *testing.T) {
	known := func(name string) bool { return name == "find_todos" }
	resp := &llmclient.Response{
		ToolCalls: []llmclient.ToolCall{{
			ID: "call_1", Name: "delete_everything", Arguments: json.RawMessage(`{}`),
		}},
	}

	_, err := ParseResponse(resp, known)
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "delete_everything", unknown.Name)
}

func TestParseResponseUnknownToolConvention(t *testing.T) {
	known := func(name string) bool { return name == "find_todos" }
	resp := &llmclient.Response{Content: `{"tool": "make_coffee", "args": {}}`}

	_, err := ParseResponse(resp, known)
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)

	// A known name passes through.
	parsed, err := ParseResponse(&llmclient.Response{Content: `{"tool": "find_todos"}`}, known)
	require.NoError(t, err)
	require.Equal(t, "find_todos", parsed.Call.Name)
}

func TestExtractJSONObjectBalancesNestedBraces(t *testing.T) {
	s := `{"tool": "x", "args": {"a": {"b": 1}}} trailing`
	require.Equal(t, `{"tool": "x", "args": {"a": {"b": 1}}}`, extractJSONObject(s))
}

func TestExtractJSONObjectIgnoresBracesInStrings(t *testing.T) {
	s := `{"tool": "x", "args": {"text": "a } brace"}} rest`
	require.Equal(t, `{"tool": "x", "args": {"text": "a } brace"}}`, extractJSONObject(s))
}
