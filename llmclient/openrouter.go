package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// DefaultBaseURL is the OpenRouter API base.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// ChatAdapter speaks HTTP directly to an OpenAI-compatible chat-completions
// endpoint. The raw request is hand-built rather than going through a vendor
// SDK so the adapter works unchanged against OpenRouter, Azure, and local
// gateways.
type ChatAdapter struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// ChatAdapterOption configures a ChatAdapter.
type ChatAdapterOption func(*ChatAdapter)

// WithBaseURL sets a custom endpoint base URL.
func WithBaseURL(baseURL string) ChatAdapterOption {
	return func(a *ChatAdapter) {
		a.baseURL = baseURL
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) ChatAdapterOption {
	return func(a *ChatAdapter) {
		a.model = model
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ChatAdapterOption {
	return func(a *ChatAdapter) {
		a.httpClient = hc
	}
}

// NewChatAdapter creates an adapter for the named provider. The API key is
// required; base URL defaults to OpenRouter.
func NewChatAdapter(name, apiKey string, opts ...ChatAdapterOption) (*ChatAdapter, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: fmt.Sprintf("API key for backend %q is required", name),
		}}
	}
	a := &ChatAdapter{
		name:       name,
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Name returns the provider identifier.
func (a *ChatAdapter) Name() string { return a.name }

// BaseURL returns the configured endpoint base.
func (a *ChatAdapter) BaseURL() string { return a.baseURL }

// Wire types for the chat-completions convention.

type wireToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type wireRequest struct {
	Model      string        `json:"model"`
	Messages   []wireMessage `json:"messages"`
	Tools      []wireTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
	MaxTokens  int           `json:"max_tokens,omitempty"`
	Temp       *float64      `json:"temperature,omitempty"`
}

type wireResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type wireError struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete sends one blocking chat-completion request.
func (a *ChatAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(a.translateRequest(req))
	if err != nil {
		return nil, &ClientError{Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Message: "failed to build request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, a.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{ClientError: ClientError{Message: "failed to read response body", Cause: err}}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, a.errorFromResponse(resp, payload)
	}

	var wire wireResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, &MalformedPayloadError{ClientError: ClientError{Message: "failed to decode completion payload", Cause: err}}
	}
	if len(wire.Choices) == 0 {
		return nil, &MalformedPayloadError{ClientError: ClientError{Message: "completion payload has no choices"}}
	}

	return a.translateResponse(wire), nil
}

func (a *ChatAdapter) translateRequest(req Request) wireRequest {
	model := req.Model
	if model == "" {
		model = a.model
	}

	wr := wireRequest{
		Model:      model,
		MaxTokens:  req.MaxTokens,
		Temp:       req.Temperature,
		ToolChoice: req.ToolChoice,
	}

	for _, msg := range req.Messages {
		wm := wireMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
		}
		for _, tc := range msg.ToolCalls {
			var wtc wireToolCall
			wtc.ID = tc.ID
			wtc.Type = "function"
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = string(tc.Arguments)
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		wr.Messages = append(wr.Messages, wm)
	}

	for _, t := range req.Tools {
		wr.Tools = append(wr.Tools, wireTool{
			Type: "function",
			Function: wireToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if len(wr.Tools) > 0 && wr.ToolChoice == "" {
		wr.ToolChoice = "auto"
	}

	return wr
}

func (a *ChatAdapter) translateResponse(wire wireResponse) *Response {
	choice := wire.Choices[0]
	out := &Response{
		ID:           wire.ID,
		Model:        wire.Model,
		Provider:     a.name,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        wire.Usage,
	}
	for _, wtc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        wtc.ID,
			Name:      wtc.Function.Name,
			Arguments: json.RawMessage(wtc.Function.Arguments),
		})
	}
	return out
}

func (a *ChatAdapter) errorFromResponse(resp *http.Response, payload []byte) error {
	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)
	code := ""

	var we wireError
	if err := json.Unmarshal(payload, &we); err == nil && we.Error.Message != "" {
		message = we.Error.Message
		code = fmt.Sprintf("%v", we.Error.Code)
	}

	var retryAfter *float64
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.ParseFloat(ra, 64); err == nil {
			retryAfter = &secs
		}
	}

	return ErrorFromStatusCode(resp.StatusCode, message, a.name, code, retryAfter)
}

func (a *ChatAdapter) classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &AbortError{ClientError: ClientError{Message: "request cancelled", Cause: ctx.Err()}}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &RequestTimeoutError{ClientError: ClientError{Message: "request timed out", Cause: err}}
	}
	return &TransportError{ClientError: ClientError{Message: "network error", Cause: err}}
}
