package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *ChatAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewChatAdapter("openrouter", "test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	return adapter
}

func TestChatAdapterRequiresAPIKey(t *testing.T) {
	_, err := NewChatAdapter("openrouter", "")
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
}

func TestChatAdapterCompleteText(t *testing.T) {
	var gotAuth string
	var gotBody wireRequest

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-1",
			"model": "openai/gpt-4o-mini",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "hello there"},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
		})
	})

	resp, err := adapter.Complete(context.Background(), Request{
		Model:    "openai/gpt-4o-mini",
		Messages: []Message{UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody.Model != "openai/gpt-4o-mini" {
		t.Errorf("unexpected model on the wire: %q", gotBody.Model)
	}
	if resp.Content != "hello there" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("unexpected finish reason: %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
	if resp.HasToolCalls() {
		t.Error("expected no tool calls")
	}
}

func TestChatAdapterCompleteToolCalls(t *testing.T) {
	var gotBody wireRequest

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-2",
			"model": "openai/gpt-4o-mini",
			"choices": []map[string]any{{
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call_abc",
						"type": "function",
						"function": map[string]any{
							"name":      "read_project_file",
							"arguments": `{"path":"main.go"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	})

	resp, err := adapter.Complete(context.Background(), Request{
		Messages: []Message{UserMessage("document this project")},
		Tools: []ToolDefinition{{
			Name:        "read_project_file",
			Description: "Read a file",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Tools are sent with the function-calling shape and tool_choice auto.
	if len(gotBody.Tools) != 1 || gotBody.Tools[0].Type != "function" {
		t.Fatalf("unexpected tools on the wire: %+v", gotBody.Tools)
	}
	if gotBody.ToolChoice != "auto" {
		t.Errorf("expected tool_choice auto, got %q", gotBody.ToolChoice)
	}

	if !resp.HasToolCalls() {
		t.Fatal("expected a tool call")
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_abc" || tc.Name != "read_project_file" {
		t.Errorf("unexpected tool call: %+v", tc)
	}
	var args map[string]string
	if err := json.Unmarshal(tc.Arguments, &args); err != nil || args["path"] != "main.go" {
		t.Errorf("unexpected arguments: %s", tc.Arguments)
	}
}

func TestChatAdapterRateLimit(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","code":429}}`))
	})

	_, err := adapter.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	rl, ok := err.(*RateLimitError)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T", err)
	}
	if rl.RetryAfter == nil || *rl.RetryAfter != 7 {
		t.Errorf("expected RetryAfter=7, got %v", rl.RetryAfter)
	}
	if rl.Message != "rate limited" {
		t.Errorf("expected provider message, got %q", rl.Message)
	}
}

func TestChatAdapterServerError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := adapter.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if _, ok := err.(*ServerError); !ok {
		t.Fatalf("expected ServerError, got %T", err)
	}
	if !IsRetryable(err) {
		t.Error("server errors should be retryable")
	}
}

func TestChatAdapterAuthError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	})

	_, err := adapter.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if _, ok := err.(*AuthenticationError); !ok {
		t.Fatalf("expected AuthenticationError, got %T", err)
	}
}

func TestChatAdapterMalformedPayload(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	})

	_, err := adapter.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if _, ok := err.(*MalformedPayloadError); !ok {
		t.Fatalf("expected MalformedPayloadError, got %T", err)
	}
}

func TestChatAdapterEmptyChoices(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"gen-3","choices":[]}`))
	})

	_, err := adapter.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if _, ok := err.(*MalformedPayloadError); !ok {
		t.Fatalf("expected MalformedPayloadError, got %T", err)
	}
}

func TestChatAdapterTransportError(t *testing.T) {
	adapter, err := NewChatAdapter("openrouter", "test-key", WithBaseURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}

	_, err = adapter.Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	if _, ok := err.(*TransportError); !ok {
		t.Fatalf("expected TransportError, got %T", err)
	}
}

func TestChatAdapterSendsToolResultMessages(t *testing.T) {
	var gotBody wireRequest

	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "gen-4",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "done"},
				"finish_reason": "stop",
			}},
		})
	})

	messages := []Message{
		UserMessage("go"),
		{
			Role: RoleAssistant,
			ToolCalls: []ToolCall{{
				ID: "call_1", Name: "get_current_time", Arguments: json.RawMessage(`{}`),
			}},
		},
		ToolResultMessage("call_1", "get_current_time", "2026-08-23T10:00:00Z"),
	}

	_, err := adapter.Complete(context.Background(), Request{Messages: messages})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotBody.Messages) != 3 {
		t.Fatalf("expected 3 wire messages, got %d", len(gotBody.Messages))
	}
	assistant := gotBody.Messages[1]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].Function.Name != "get_current_time" {
		t.Errorf("unexpected assistant tool calls: %+v", assistant.ToolCalls)
	}
	result := gotBody.Messages[2]
	if result.Role != "tool" || result.ToolCallID != "call_1" {
		t.Errorf("unexpected tool result message: %+v", result)
	}
}
