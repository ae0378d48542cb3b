package agentloop

import (
	"sync"
	"time"
)

// EventKind identifies the type of agent event.
type EventKind string

const (
	EventAgentStart     EventKind = "agent_start"
	EventAgentEnd       EventKind = "agent_end"
	EventIterationStart EventKind = "iteration_start"
	EventAssistantText  EventKind = "assistant_text"
	EventToolCallStart  EventKind = "tool_call_start"
	EventToolCallEnd    EventKind = "tool_call_end"
	EventIterationLimit EventKind = "iteration_limit"
	EventLoopDetection  EventKind = "loop_detection"
	EventWarning        EventKind = "warning"
	EventError          EventKind = "error"
)

// AgentEvent is a typed event emitted by the agent loop.
type AgentEvent struct {
	Kind      EventKind      `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	AgentID   string         `json:"agent_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventEmitter delivers typed events to the host application via a channel.
type EventEmitter struct {
	agentID string
	ch      chan AgentEvent
	closed  bool
	mu      sync.Mutex
}

// NewEventEmitter creates a new EventEmitter with a buffered channel.
func NewEventEmitter(agentID string, bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{
		agentID: agentID,
		ch:      make(chan AgentEvent, bufferSize),
	}
}

// Emit sends an event to the channel. If the emitter is closed, the event
// is silently dropped.
func (e *EventEmitter) Emit(kind EventKind, data map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := AgentEvent{
		Kind:      kind,
		Timestamp: time.Now(),
		AgentID:   e.agentID,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
		// Channel full; drop event to avoid blocking the agent loop.
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan AgentEvent {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
