package agentloop

import (
	"encoding/json"
	"time"

	"github.com/SamanBarahoie/AutoDocGPT/llmclient"
)

// TurnKind discriminates between turn types.
type TurnKind string

const (
	TurnUser       TurnKind = "user"
	TurnAssistant  TurnKind = "assistant"
	TurnToolResult TurnKind = "tool_result"
)

// ToolCallRequest is the parsed, validated form of a model tool invocation.
// Arguments are decoded into a map; Raw preserves the original JSON for
// signatures and replay.
type ToolCallRequest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments map[string]any  `json:"arguments"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// RawArguments returns the original argument JSON, re-encoding the parsed map
// when no raw form was captured.
func (c ToolCallRequest) RawArguments() json.RawMessage {
	if len(c.Raw) > 0 {
		return c.Raw
	}
	raw, err := json.Marshal(c.Arguments)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}

// Turn is a single entry in the conversation history.
type Turn struct {
	Kind       TurnKind        `json:"kind"`
	Timestamp  time.Time       `json:"timestamp"`
	User       *UserTurn       `json:"user,omitempty"`
	Assistant  *AssistantTurn  `json:"assistant,omitempty"`
	ToolResult *ToolResultTurn `json:"tool_result,omitempty"`
}

// UserTurn holds user input (the documentation goal, or an elision note).
type UserTurn struct {
	Content string `json:"content"`
}

// AssistantTurn holds the model's response: text, a tool call, or both.
type AssistantTurn struct {
	Content    string           `json:"content"`
	ToolCall   *ToolCallRequest `json:"tool_call,omitempty"`
	Usage      llmclient.Usage  `json:"usage"`
	ResponseID string           `json:"response_id,omitempty"`
}

// ToolResultTurn holds the rendered outcome of one tool execution.
type ToolResultTurn struct {
	ToolCallID string `json:"tool_call_id"`
	Tool       string `json:"tool"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// NewUserTurn creates a Turn wrapping user input.
func NewUserTurn(content string) Turn {
	return Turn{
		Kind:      TurnUser,
		Timestamp: time.Now(),
		User:      &UserTurn{Content: content},
	}
}

// NewAssistantTurn creates a Turn wrapping an assistant response.
func NewAssistantTurn(content string, call *ToolCallRequest, usage llmclient.Usage, responseID string) Turn {
	return Turn{
		Kind:      TurnAssistant,
		Timestamp: time.Now(),
		Assistant: &AssistantTurn{
			Content:    content,
			ToolCall:   call,
			Usage:      usage,
			ResponseID: responseID,
		},
	}
}

// NewToolResultTurn creates a Turn wrapping one tool outcome.
func NewToolResultTurn(toolCallID, tool, content string, isError bool) Turn {
	return Turn{
		Kind:      TurnToolResult,
		Timestamp: time.Now(),
		ToolResult: &ToolResultTurn{
			ToolCallID: toolCallID,
			Tool:       tool,
			Content:    content,
			IsError:    isError,
		},
	}
}

// TextContent returns the text content of a turn regardless of its kind.
func (t Turn) TextContent() string {
	switch t.Kind {
	case TurnUser:
		if t.User != nil {
			return t.User.Content
		}
	case TurnAssistant:
		if t.Assistant != nil {
			return t.Assistant.Content
		}
	case TurnToolResult:
		if t.ToolResult != nil {
			return t.ToolResult.Content
		}
	}
	return ""
}

// ConvertHistoryToMessages converts the turn-based history into wire messages.
func ConvertHistoryToMessages(history []Turn) []llmclient.Message {
	var messages []llmclient.Message
	for _, turn := range history {
		switch turn.Kind {
		case TurnUser:
			if turn.User != nil {
				messages = append(messages, llmclient.UserMessage(turn.User.Content))
			}
		case TurnAssistant:
			if turn.Assistant != nil {
				msg := llmclient.AssistantMessage(turn.Assistant.Content)
				if tc := turn.Assistant.ToolCall; tc != nil {
					msg.ToolCalls = []llmclient.ToolCall{{
						ID:        tc.ID,
						Name:      tc.Name,
						Arguments: tc.RawArguments(),
					}}
				}
				messages = append(messages, msg)
			}
		case TurnToolResult:
			if tr := turn.ToolResult; tr != nil {
				messages = append(messages,
					llmclient.ToolResultMessage(tr.ToolCallID, tr.Tool, tr.Content))
			}
		}
	}
	return messages
}
