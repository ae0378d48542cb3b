package agentloop

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// defaultPersona is the base instruction block for the documentation agent.
const defaultPersona = `You are an autonomous documentation agent. Your job is to explore the
project, understand its structure, and produce or improve documentation as
the user's goal requires.

Work in small steps: inspect files before writing about them, and verify a
written file by reading it back when accuracy matters. When the goal is
complete, call the terminate tool with a summary of what you did.`

// toolConvention tells text-only backends how to request a tool when the
// provider does not support structured tool calls.
const toolConvention = `When you need a tool, respond with exactly one JSON object and nothing else:

{"tool": "<tool_name>", "args": {<arguments>}}

When you are done, call the terminate tool with your final summary. A plain
text reply is recorded as progress, not as completion.`

// BuildSystemPrompt assembles the system prompt: persona, tool roster with
// the call convention, and the environment context block.
func BuildSystemPrompt(registry *Registry, ws *Workspace, model string) string {
	var sb strings.Builder
	sb.WriteString(defaultPersona)
	sb.WriteString("\n\n")
	sb.WriteString(renderToolRoster(registry))
	sb.WriteString("\n\n")
	sb.WriteString(toolConvention)
	sb.WriteString("\n\n")
	sb.WriteString(BuildEnvironmentContext(ws, model))
	return sb.String()
}

// renderToolRoster lists the registered tools with their parameters so
// text-only backends know what is callable.
func renderToolRoster(registry *Registry) string {
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, spec := range registry.Specs() {
		fmt.Fprintf(&sb, "- %s: %s\n", spec.Name, spec.Description)
		for _, p := range spec.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&sb, "    %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// BuildEnvironmentContext generates the structured environment context block.
func BuildEnvironmentContext(ws *Workspace, model string) string {
	var sb strings.Builder
	sb.WriteString("<environment>\n")
	fmt.Fprintf(&sb, "Project root: %s\n", ws.Root())
	fmt.Fprintf(&sb, "Platform: %s\n", runtime.GOOS)
	fmt.Fprintf(&sb, "Today's date: %s\n", time.Now().Format("2006-01-02"))
	if model != "" {
		fmt.Fprintf(&sb, "Model: %s\n", model)
	}
	sb.WriteString("</environment>")
	return sb.String()
}
