package agentloop

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Environment executes tool calls against a registry. Execution never returns
// a Go error or lets a panic escape: every failure becomes an error-shaped
// ToolOutcome so the loop can feed it back to the model.
type Environment struct {
	registry *Registry
}

// NewEnvironment creates an Environment over the given registry.
func NewEnvironment(registry *Registry) *Environment {
	return &Environment{registry: registry}
}

// Execute runs one tool call and returns its outcome.
func (e *Environment) Execute(ctx context.Context, call *ToolCallRequest) (outcome ToolOutcome) {
	start := time.Now()
	outcome = ToolOutcome{Tool: call.Name, Status: OutcomeSuccess}
	defer func() {
		if r := recover(); r != nil {
			outcome = ToolOutcome{
				Tool:        call.Name,
				Status:      OutcomeFailure,
				FailureKind: FailExecution,
				ErrorText:   fmt.Sprintf("tool panicked: %v", r),
			}
		}
		outcome.Duration = time.Since(start)
	}()

	spec, err := e.registry.Lookup(call.Name)
	if err != nil {
		outcome.Status = OutcomeFailure
		outcome.FailureKind = FailUnknownTool
		outcome.ErrorText = fmt.Sprintf("%v; available tools: %v", err, e.registry.Names())
		return outcome
	}
	outcome.Terminal = spec.Terminal

	args, err := coerceArguments(spec, call.Arguments)
	if err != nil {
		outcome.Status = OutcomeFailure
		outcome.FailureKind = FailInvalidArguments
		outcome.ErrorText = err.Error()
		return outcome
	}

	value, err := spec.Run(ctx, args)
	if err != nil {
		outcome.Status = OutcomeFailure
		outcome.FailureKind = FailExecution
		outcome.ErrorText = err.Error()
		return outcome
	}

	outcome.Value = value
	return outcome
}

// coerceArguments validates call arguments against the tool's parameter
// schema and coerces JSON-decoded values to the declared types. Unknown
// arguments are dropped; absent optional parameters take their defaults.
func coerceArguments(spec *ToolSpec, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(spec.Params))
	for _, p := range spec.Params {
		v, present := raw[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, &InvalidArgumentsError{Tool: spec.Name, Param: p.Name, Reason: "is required"}
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}

		coerced, err := coerceValue(p.Type, v)
		if err != nil {
			return nil, &InvalidArgumentsError{Tool: spec.Name, Param: p.Name, Reason: err.Error()}
		}
		out[p.Name] = coerced
	}
	return out, nil
}

func coerceValue(t ParamType, v any) (any, error) {
	switch t {
	case ParamString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string, got %T", v)
		}
		return s, nil

	case ParamInteger:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("must be an integer, got %v", n)
			}
			return int(n), nil
		case int:
			return n, nil
		case string:
			i, err := strconv.Atoi(n)
			if err != nil {
				return nil, fmt.Errorf("must be an integer, got %q", n)
			}
			return i, nil
		default:
			return nil, fmt.Errorf("must be an integer, got %T", v)
		}

	case ParamNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("must be a number, got %q", n)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("must be a number, got %T", v)
		}

	case ParamBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("must be a boolean, got %q", b)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("must be a boolean, got %T", v)
		}

	default:
		return v, nil
	}
}
