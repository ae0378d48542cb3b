package agentloop

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutcomeStatus classifies a tool execution result.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// FailureKind identifies why a tool execution failed.
type FailureKind string

const (
	FailUnknownTool      FailureKind = "unknown_tool"
	FailInvalidArguments FailureKind = "invalid_arguments"
	FailExecution        FailureKind = "execution"
)

// ToolOutcome is the record of one tool execution. Execution never surfaces a
// Go error to the loop; failures are captured here and rendered back to the
// model so it can correct course.
type ToolOutcome struct {
	Tool        string        `json:"tool"`
	Status      OutcomeStatus `json:"status"`
	FailureKind FailureKind   `json:"failure_kind,omitempty"`
	Value       any           `json:"value,omitempty"`
	ErrorText   string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`

	// Terminal is set when the executed tool ends the session.
	Terminal bool `json:"terminal,omitempty"`
}

// IsError reports whether the outcome is a failure.
func (o ToolOutcome) IsError() bool {
	return o.Status == OutcomeFailure
}

// Render produces the text form fed back to the model. Successful string
// values pass through unchanged; other values are JSON-encoded; failures
// render as a tagged error line.
func (o ToolOutcome) Render() string {
	if o.IsError() {
		return fmt.Sprintf("ERROR (%s): %s", o.FailureKind, o.ErrorText)
	}
	switch v := o.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
