package agentloop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SamanBarahoie/AutoDocGPT/llmclient"
)

// State is the lifecycle state of an Agent.
type State string

const (
	StateIdle          State = "idle"
	StateRunning       State = "running"
	StateAwaitingModel State = "awaiting_model"
	StateExecutingTool State = "executing_tool"

	// StateTerminated means the session ended on its own terms: the model
	// answered directly, called terminate, or the iteration cap was reached
	// with partial progress.
	StateTerminated State = "terminated"

	// StateAborted means the session died on an infrastructure failure.
	StateAborted State = "aborted"
)

// Config holds the tunable parameters of an agent run.
type Config struct {
	Model    string
	Provider string

	// MaxIterations caps the number of model round-trips.
	MaxIterations int

	// MaxMemoryTurns bounds the conversation window sent to the model.
	// Zero means unbounded.
	MaxMemoryTurns int

	// ContextWindow is the token budget the window should stay under; when
	// exceeded a warning event fires.
	ContextWindow int

	EnableLoopDetection bool
	LoopWindow          int

	// Per-tool output limits; nil falls back to the package defaults.
	OutcomeCharLimits map[string]int
	OutcomeLineLimits map[string]int

	MaxTokens   int
	Temperature *float64
	EventBuffer int
}

// DefaultConfig returns the standard agent configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:       20,
		MaxMemoryTurns:      20,
		ContextWindow:       128000,
		EnableLoopDetection: true,
		LoopWindow:          6,
	}
}

// Result is the final report of an agent run.
type Result struct {
	State      State
	Message    string
	Iterations int
	Usage      llmclient.Usage
}

// Agent drives the documentation loop: model round-trips interleaved with
// tool executions until the model terminates or the iteration cap hits.
type Agent struct {
	id       string
	cfg      Config
	client   *llmclient.Client
	registry *Registry
	env      *Environment
	memory   *Memory
	ws       *Workspace
	emitter  *EventEmitter
	counter  *TokenCounter
	state    State
}

// NewAgent creates an Agent over the given backend client, tool registry, and
// workspace.
func NewAgent(client *llmclient.Client, registry *Registry, ws *Workspace, cfg Config) *Agent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if cfg.LoopWindow <= 0 {
		cfg.LoopWindow = DefaultConfig().LoopWindow
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultConfig().ContextWindow
	}

	id := uuid.New().String()[:8]
	return &Agent{
		id:       id,
		cfg:      cfg,
		client:   client,
		registry: registry,
		env:      NewEnvironment(registry),
		memory:   NewMemory(WithMaxTurns(cfg.MaxMemoryTurns)),
		ws:       ws,
		emitter:  NewEventEmitter(id, cfg.EventBuffer),
		counter:  NewTokenCounter(),
		state:    StateIdle,
	}
}

// ID returns the agent's run identifier.
func (a *Agent) ID() string { return a.id }

// State returns the agent's current lifecycle state.
func (a *Agent) State() State { return a.state }

// Events returns the agent's event stream. The channel closes when Run
// returns.
func (a *Agent) Events() <-chan AgentEvent { return a.emitter.Events() }

// Memory exposes the conversation history for inspection after a run.
func (a *Agent) Memory() *Memory { return a.memory }

// Run executes the loop for one goal. Terminated results carry the final
// message; an Aborted result is returned together with the underlying error.
func (a *Agent) Run(ctx context.Context, goal string) (*Result, error) {
	defer a.emitter.Close()

	a.state = StateRunning
	a.emitter.Emit(EventAgentStart, map[string]any{"goal": goal, "model": a.cfg.Model})

	systemPrompt := BuildSystemPrompt(a.registry, a.ws, a.cfg.Model)
	a.memory.Append(NewUserTurn(goal))

	var usage llmclient.Usage
	var lastAnswer string
	loopNudged := false

	for iteration := 1; iteration <= a.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			a.state = StateAborted
			a.emitter.Emit(EventError, map[string]any{"error": err.Error()})
			result := &Result{
				State:      StateAborted,
				Message:    fmt.Sprintf("run cancelled: %v", err),
				Iterations: iteration - 1,
				Usage:      usage,
			}
			a.emitAgentEnd(result)
			return result, err
		}

		a.emitter.Emit(EventIterationStart, map[string]any{"iteration": iteration})

		if a.cfg.EnableLoopDetection && DetectLoop(a.memory.History(), a.cfg.LoopWindow) {
			a.emitter.Emit(EventLoopDetection, map[string]any{"iteration": iteration})
			if loopNudged {
				a.state = StateTerminated
				result := &Result{
					State:      StateTerminated,
					Message:    a.partialProgress(lastAnswer, iteration-1, "the agent kept repeating the same tool calls"),
					Iterations: iteration - 1,
					Usage:      usage,
				}
				a.emitAgentEnd(result)
				return result, nil
			}
			loopNudged = true
			a.memory.Append(NewUserTurn(
				"You are repeating the same tool calls without making progress. " +
					"Change your approach, or call terminate with what you have so far."))
		}

		if tokens := a.memory.EstimateTokens(a.counter); tokens > a.cfg.ContextWindow {
			a.emitter.Emit(EventWarning, map[string]any{
				"message": fmt.Sprintf("conversation window at %d tokens exceeds the %d budget", tokens, a.cfg.ContextWindow),
			})
		}

		resp, err := a.complete(ctx, systemPrompt)
		if err != nil {
			a.state = StateAborted
			a.emitter.Emit(EventError, map[string]any{"error": err.Error()})
			result := &Result{
				State:      StateAborted,
				Message:    fmt.Sprintf("backend failure: %v", err),
				Iterations: iteration,
				Usage:      usage,
			}
			a.emitAgentEnd(result)
			return result, err
		}
		usage = usage.Add(resp.Usage)

		parsed, err := ParseResponse(resp, a.registry.Has)
		if err != nil {
			// Feed the parse failure back so the model can correct itself.
			a.emitter.Emit(EventWarning, map[string]any{"error": err.Error()})
			a.memory.Append(NewAssistantTurn(resp.Content, nil, resp.Usage, resp.ID))
			a.memory.Append(NewUserTurn(a.correctiveMessage(err)))
			continue
		}

		if parsed.Kind == KindDirectAnswer {
			// A direct answer does not end the run; only terminate does.
			// The answer is kept and reported when the cap is reached.
			a.memory.Append(NewAssistantTurn(parsed.Answer, nil, resp.Usage, resp.ID))
			a.emitter.Emit(EventAssistantText, map[string]any{"content": parsed.Answer})
			if parsed.Answer != "" {
				lastAnswer = parsed.Answer
			}
			continue
		}

		call := parsed.Call
		a.memory.Append(NewAssistantTurn(resp.Content, call, resp.Usage, resp.ID))
		if resp.Content != "" {
			lastAnswer = resp.Content
		}

		a.emitter.Emit(EventToolCallStart, map[string]any{
			"tool": call.Name, "call_id": call.ID, "arguments": call.Arguments,
		})
		a.state = StateExecutingTool

		outcome := a.env.Execute(ctx, call)
		rendered := TruncateToolOutput(outcome.Render(), call.Name, a.cfg.OutcomeCharLimits, a.cfg.OutcomeLineLimits)

		// Exactly one tool result per dispatched call, error or not.
		a.memory.Append(NewToolResultTurn(call.ID, call.Name, rendered, outcome.IsError()))

		a.emitter.Emit(EventToolCallEnd, map[string]any{
			"tool": call.Name, "call_id": call.ID,
			"status": string(outcome.Status), "duration_ms": outcome.Duration.Milliseconds(),
		})
		a.state = StateRunning

		if outcome.Terminal && !outcome.IsError() {
			a.state = StateTerminated
			result := &Result{
				State:      StateTerminated,
				Message:    rendered,
				Iterations: iteration,
				Usage:      usage,
			}
			a.emitAgentEnd(result)
			return result, nil
		}
	}

	a.emitter.Emit(EventIterationLimit, map[string]any{"max_iterations": a.cfg.MaxIterations})
	a.state = StateTerminated
	result := &Result{
		State:      StateTerminated,
		Message:    a.partialProgress(lastAnswer, a.cfg.MaxIterations, fmt.Sprintf("the iteration limit of %d was reached", a.cfg.MaxIterations)),
		Iterations: a.cfg.MaxIterations,
		Usage:      usage,
	}
	a.emitAgentEnd(result)
	return result, nil
}

func (a *Agent) complete(ctx context.Context, systemPrompt string) (*llmclient.Response, error) {
	a.state = StateAwaitingModel
	defer func() { a.state = StateRunning }()

	messages := append([]llmclient.Message{llmclient.SystemMessage(systemPrompt)}, a.memory.ToMessages()...)
	return a.client.Complete(ctx, llmclient.Request{
		Model:       a.cfg.Model,
		Provider:    a.cfg.Provider,
		Messages:    messages,
		Tools:       a.registry.Definitions(),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
}

// correctiveMessage phrases a parse failure as an instruction the model can
// act on in the next turn.
func (a *Agent) correctiveMessage(err error) string {
	var unknown *UnknownToolError
	if errors.As(err, &unknown) {
		return fmt.Sprintf("Tool %q does not exist. Available tools: %s.",
			unknown.Name, strings.Join(a.registry.Names(), ", "))
	}
	return fmt.Sprintf("Your last response could not be understood (%v). "+
		"Reply with exactly one tool call JSON object, or call terminate when done.", err)
}

// partialProgress builds the final message for a session that ended without
// an explicit terminate.
func (a *Agent) partialProgress(lastAnswer string, iterations int, reason string) string {
	if lastAnswer != "" {
		return fmt.Sprintf("Session ended after %d iterations because %s. Last progress report:\n\n%s",
			iterations, reason, lastAnswer)
	}
	if last, ok := a.memory.Last(); ok && last.Kind == TurnToolResult && last.ToolResult != nil {
		return fmt.Sprintf("Session ended after %d iterations because %s. The last action was %s.",
			iterations, reason, last.ToolResult.Tool)
	}
	return fmt.Sprintf("Session ended after %d iterations because %s.", iterations, reason)
}

func (a *Agent) emitAgentEnd(result *Result) {
	a.emitter.Emit(EventAgentEnd, map[string]any{
		"state":      string(result.State),
		"iterations": result.Iterations,
		"tokens":     result.Usage.TotalTokens,
	})
}
