package agentloop

import "fmt"

// DuplicateToolError is returned when a tool name is registered twice.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError is returned when a lookup or a model request names a tool
// that is not in the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// MalformedResponseError is returned when a backend response cannot be
// classified as either a direct answer or a tool call.
type MalformedResponseError struct {
	Raw   string
	Cause error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed model response: %v", e.Cause)
	}
	return "malformed model response"
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// InvalidArgumentsError is returned when a tool call's arguments fail
// structural validation against the tool's parameter schema.
type InvalidArgumentsError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("invalid arguments for tool %q: parameter %q %s", e.Tool, e.Param, e.Reason)
	}
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Reason)
}
