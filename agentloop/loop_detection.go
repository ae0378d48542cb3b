package agentloop

import (
	"crypto/sha256"
	"fmt"
)

// toolCallSignature computes a deterministic signature for a tool call
// (name + hash of raw arguments).
func toolCallSignature(call *ToolCallRequest) string {
	h := sha256.Sum256(call.RawArguments())
	return fmt.Sprintf("%s:%x", call.Name, h[:8])
}

// extractToolCallSignatures collects signatures of the most recent tool calls
// in the history, oldest first.
func extractToolCallSignatures(history []Turn, count int) []string {
	var sigs []string
	for i := len(history) - 1; i >= 0 && len(sigs) < count; i-- {
		turn := history[i]
		if turn.Kind == TurnAssistant && turn.Assistant != nil && turn.Assistant.ToolCall != nil {
			sigs = append(sigs, toolCallSignature(turn.Assistant.ToolCall))
		}
	}
	for i, j := 0, len(sigs)-1; i < j; i, j = i+1, j-1 {
		sigs[i], sigs[j] = sigs[j], sigs[i]
	}
	return sigs
}

// DetectLoop reports whether the last windowSize tool calls follow a
// repeating pattern of length 1, 2, or 3. Identical read-modify-verify cycles
// are the most common stuck state for a documentation agent.
func DetectLoop(history []Turn, windowSize int) bool {
	sigs := extractToolCallSignatures(history, windowSize)
	if len(sigs) < windowSize {
		return false
	}

	for patternLen := 1; patternLen <= 3; patternLen++ {
		if windowSize%patternLen != 0 {
			continue
		}
		pattern := sigs[:patternLen]
		allMatch := true
		for i := patternLen; i < windowSize; i += patternLen {
			for j := 0; j < patternLen; j++ {
				if sigs[i+j] != pattern[j] {
					allMatch = false
					break
				}
			}
			if !allMatch {
				break
			}
		}
		if allMatch {
			return true
		}
	}

	return false
}
