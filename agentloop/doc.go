// Package agentloop implements the autonomous documentation agent: a
// synchronous loop that sends the conversation to an LLM backend, interprets
// the response as either a direct answer or a tool-call request, executes the
// requested tool against the project workspace, and feeds the outcome back
// into the conversation until the model terminates or the iteration cap is
// reached.
//
// The main components:
//
//   - Registry: named tools with JSON Schema parameter metadata.
//   - Memory: append-only conversation history with an optional sliding window.
//   - Parser: classifies backend responses into direct answers or tool calls,
//     repairing near-JSON and recognizing convention-based calls in plain text.
//   - Environment: executes tool calls, converting every failure into an
//     error-shaped outcome instead of propagating it.
//   - Agent: the loop itself, with loop detection, output truncation, and a
//     typed event stream for observability.
//
// Tool registration for the documentation domain lives in tools_file.go and
// tools_system.go; the workspace sandbox they operate on is in workspace.go.
package agentloop
