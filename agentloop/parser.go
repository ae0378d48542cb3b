package agentloop

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/SamanBarahoie/AutoDocGPT/llmclient"
)

// ResponseKind classifies a parsed model response.
type ResponseKind string

const (
	KindDirectAnswer ResponseKind = "direct_answer"
	KindToolCall     ResponseKind = "tool_call"
)

// ParsedResponse is the loop-facing form of a backend response: either a
// direct answer or exactly one tool call.
type ParsedResponse struct {
	Kind   ResponseKind
	Answer string
	Call   *ToolCallRequest
}

// conventionCall is the JSON convention the model uses when it emits a tool
// call as plain text instead of a structured tool_calls entry.
type conventionCall struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// ParseResponse classifies a backend response. Structured tool calls take
// precedence; when the model requests several, only the first is honored.
// Plain-text content is scanned for a convention-based call; near-JSON is
// repaired before giving up. Anything else is a direct answer.
//
// known reports whether a tool name is registered; a call naming an
// unregistered tool fails with UnknownToolError. A nil known skips the check
// (the environment still double-checks at dispatch).
func ParseResponse(resp *llmclient.Response, known func(string) bool) (*ParsedResponse, error) {
	if resp.HasToolCalls() {
		parsed, err := parseStructuredCall(resp.ToolCalls[0])
		if err != nil {
			return nil, err
		}
		if known != nil && !known(parsed.Call.Name) {
			return nil, &UnknownToolError{Name: parsed.Call.Name}
		}
		return parsed, nil
	}

	content := strings.TrimSpace(resp.Content)
	if call, found, err := parseConventionCall(content); found {
		if err != nil {
			return nil, err
		}
		if known != nil && !known(call.Name) {
			return nil, &UnknownToolError{Name: call.Name}
		}
		return &ParsedResponse{Kind: KindToolCall, Call: call}, nil
	}

	return &ParsedResponse{Kind: KindDirectAnswer, Answer: content}, nil
}

func parseStructuredCall(tc llmclient.ToolCall) (*ParsedResponse, error) {
	args, err := decodeArguments(tc.Arguments)
	if err != nil {
		return nil, &MalformedResponseError{Raw: string(tc.Arguments), Cause: err}
	}
	id := tc.ID
	if id == "" {
		id = newCallID()
	}
	return &ParsedResponse{
		Kind: KindToolCall,
		Call: &ToolCallRequest{
			ID:        id,
			Name:      tc.Name,
			Arguments: args,
			Raw:       tc.Arguments,
		},
	}, nil
}

// parseConventionCall looks for a {"tool": ...} object in the content. The
// found flag is true whenever the convention marker is present, so a broken
// call surfaces as an error instead of leaking JSON into a direct answer.
func parseConventionCall(content string) (*ToolCallRequest, bool, error) {
	start := findConventionMarker(content)
	if start == -1 {
		return nil, false, nil
	}

	candidate := extractJSONObject(content[start:])

	var cc conventionCall
	if err := json.Unmarshal([]byte(candidate), &cc); err != nil || cc.Tool == "" {
		repaired, rerr := jsonrepair.JSONRepair(candidate)
		if rerr != nil {
			return nil, true, &MalformedResponseError{Raw: content, Cause: err}
		}
		if jerr := json.Unmarshal([]byte(repaired), &cc); jerr != nil || cc.Tool == "" {
			return nil, true, &MalformedResponseError{Raw: content, Cause: err}
		}
	}

	args, err := decodeArguments(cc.Args)
	if err != nil {
		return nil, true, &MalformedResponseError{Raw: content, Cause: err}
	}

	return &ToolCallRequest{
		ID:        newCallID(),
		Name:      cc.Tool,
		Arguments: args,
		Raw:       json.RawMessage(candidate),
	}, true, nil
}

// findConventionMarker locates the start of a {"tool" object, tolerating
// whitespace variants the model produces.
func findConventionMarker(content string) int {
	for _, marker := range []string{`{"tool"`, `{ "tool"`, "{\n  \"tool\"", "{\n\"tool\""} {
		if idx := strings.Index(content, marker); idx != -1 {
			return idx
		}
	}
	return -1
}

// extractJSONObject returns the balanced-brace prefix of s starting at the
// opening brace. When braces never balance (truncated output), the whole
// remainder is returned for the repair pass.
func extractJSONObject(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1]
				}
			}
		}
	}
	return s
}

// decodeArguments decodes an argument payload into a map, repairing
// near-JSON. Absent arguments decode to an empty map.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(trimmed)
		if rerr != nil {
			return nil, err
		}
		if jerr := json.Unmarshal([]byte(repaired), &args); jerr != nil {
			return nil, err
		}
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func newCallID() string {
	return "call_" + uuid.New().String()[:8]
}
