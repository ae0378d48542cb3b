package agentloop

import (
	"fmt"
	"strings"
	"sync"

	"github.com/SamanBarahoie/AutoDocGPT/llmclient"
)

// Memory is the append-only conversation history. The full history is always
// retained; an optional sliding window bounds what is presented to the model,
// keeping the first turn (the goal) and eliding the oldest middle turns.
type Memory struct {
	turns    []Turn
	maxTurns int
	mu       sync.RWMutex
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithMaxTurns bounds the window presented to the model. Zero means
// unbounded. Values below 3 are raised to 3 so the goal, the elision note,
// and at least one recent turn always fit.
func WithMaxTurns(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 && n < 3 {
			n = 3
		}
		m.maxTurns = n
	}
}

// NewMemory creates a Memory with the given options.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Append adds a turn to the history.
func (m *Memory) Append(turn Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
}

// Len returns the total number of turns recorded.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// History returns a copy of the full recorded history.
func (m *Memory) History() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Clear resets the history. Only meant for reuse between independent runs,
// never mid-loop.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

// Last returns the most recent turn, or a zero Turn when empty.
func (m *Memory) Last() (Turn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.turns) == 0 {
		return Turn{}, false
	}
	return m.turns[len(m.turns)-1], true
}

// Window returns the turns presented to the model. When the history exceeds
// the configured window, the first turn is kept, a note marks how many turns
// were elided, and the most recent turns fill the rest.
func (m *Memory) Window() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.maxTurns == 0 || len(m.turns) <= m.maxTurns {
		out := make([]Turn, len(m.turns))
		copy(out, m.turns)
		return out
	}

	// First turn + elision note + the most recent turns. The cut may not
	// land on a tool result whose paired assistant turn was elided: a tool
	// message with no preceding tool call is an invalid transcript.
	recent := m.maxTurns - 2
	start := len(m.turns) - recent
	for start < len(m.turns) && m.turns[start].Kind == TurnToolResult {
		start++
	}
	elided := start - 1

	out := make([]Turn, 0, m.maxTurns)
	out = append(out, m.turns[0])
	out = append(out, NewUserTurn(fmt.Sprintf("[%d earlier turns elided]", elided)))
	out = append(out, m.turns[start:]...)
	return out
}

// ToMessages converts the window into wire messages for the backend.
func (m *Memory) ToMessages() []llmclient.Message {
	return ConvertHistoryToMessages(m.Window())
}

// RenderTranscript produces a deterministic plain-text rendering of the full
// history, for logging and final reports.
func (m *Memory) RenderTranscript() string {
	history := m.History()
	var b strings.Builder
	for i, turn := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		switch turn.Kind {
		case TurnUser:
			fmt.Fprintf(&b, "[user] %s", turn.TextContent())
		case TurnAssistant:
			fmt.Fprintf(&b, "[assistant] %s", turn.TextContent())
			if turn.Assistant != nil && turn.Assistant.ToolCall != nil {
				tc := turn.Assistant.ToolCall
				fmt.Fprintf(&b, "\n[assistant -> %s] %s", tc.Name, string(tc.RawArguments()))
			}
		case TurnToolResult:
			tr := turn.ToolResult
			tag := "result"
			if tr != nil && tr.IsError {
				tag = "error"
			}
			fmt.Fprintf(&b, "[%s <- %s] %s", tag, tr.Tool, tr.Content)
		}
	}
	return b.String()
}

// EstimateTokens estimates the token footprint of the current window using
// the given counter.
func (m *Memory) EstimateTokens(counter *TokenCounter) int {
	total := 0
	for _, msg := range m.ToMessages() {
		total += counter.Count(msg.Content)
		for _, tc := range msg.ToolCalls {
			total += counter.Count(string(tc.Arguments))
		}
	}
	return total
}
