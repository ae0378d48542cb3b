package agentloop

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncationMode specifies how oversized tool output is cut.
type TruncationMode string

const (
	TruncateHeadTail TruncationMode = "head_tail"
	TruncateTail     TruncationMode = "tail"
)

// Default character limits per tool. File reads keep both ends so the model
// sees imports and trailing definitions; listings keep the tail where the
// most deeply nested paths land.
var DefaultToolCharLimits = map[string]int{
	"read_project_file":          50000,
	"list_project_files":         20000,
	"write_project_file":         1000,
	"find_todos":                 20000,
	"analyze_imports":            20000,
	"list_environment_variables": 10000,
}

// Default truncation modes per tool.
var DefaultTruncationModes = map[string]TruncationMode{
	"read_project_file":          TruncateHeadTail,
	"list_project_files":         TruncateTail,
	"write_project_file":         TruncateTail,
	"find_todos":                 TruncateTail,
	"analyze_imports":            TruncateTail,
	"list_environment_variables": TruncateTail,
}

// Default line limits per tool, applied after character truncation.
var DefaultToolLineLimits = map[string]int{
	"list_project_files": 500,
	"find_todos":         200,
}

// TruncateOutput applies character-based truncation to output.
func TruncateOutput(output string, maxChars int, mode TruncationMode) string {
	if len(output) <= maxChars {
		return output
	}

	removed := len(output) - maxChars

	switch mode {
	case TruncateTail:
		return fmt.Sprintf("[WARNING: Tool output was truncated. First %d characters were removed. "+
			"Re-run the tool with more targeted parameters to see the rest.]\n\n",
			removed) +
			output[nextRuneBoundary(output, len(output)-maxChars):]

	default:
		half := maxChars / 2
		return output[:prevRuneBoundary(output, half)] +
			fmt.Sprintf("\n\n[WARNING: Tool output was truncated. %d characters were removed from the middle. "+
				"Re-run the tool with more targeted parameters to see specific parts.]\n\n",
				removed) +
			output[nextRuneBoundary(output, len(output)-half):]
	}
}

// prevRuneBoundary moves a byte offset back to the nearest rune start so a
// cut never splits a multi-byte rune.
func prevRuneBoundary(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// nextRuneBoundary moves a byte offset forward to the nearest rune start.
func nextRuneBoundary(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

// TruncateLines applies line-based truncation using a head/tail split.
func TruncateLines(output string, maxLines int) string {
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}

	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount

	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateToolOutput applies the full truncation pipeline for a tool:
// character-based truncation first (handles pathological sizes), then
// line-based truncation for readability.
func TruncateToolOutput(output string, toolName string, charLimits map[string]int, lineLimits map[string]int) string {
	maxChars, ok := charLimits[toolName]
	if !ok {
		maxChars, ok = DefaultToolCharLimits[toolName]
		if !ok {
			maxChars = 30000
		}
	}

	mode, ok := DefaultTruncationModes[toolName]
	if !ok {
		mode = TruncateHeadTail
	}

	result := TruncateOutput(output, maxChars, mode)

	maxLines := 0
	if lineLimits != nil {
		if ml, ok := lineLimits[toolName]; ok {
			maxLines = ml
		}
	}
	if maxLines == 0 {
		if ml, ok := DefaultToolLineLimits[toolName]; ok {
			maxLines = ml
		}
	}
	if maxLines > 0 {
		result = TruncateLines(result, maxLines)
	}

	return result
}
