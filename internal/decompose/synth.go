package decompose

import (
	"fmt"
	"strings"
)

const synthesisTruncateLen = 300

// BuildSynthesisPrompt assembles spec §4.6 step 5's synthesis prompt: the
// original request, an enumerated list of sub-goal outcomes (each
// truncated to 300 chars, marked ✓/✗), and an integration directive.
func BuildSynthesisPrompt(originalPrompt string, results []SubGoalResult) string {
	var b strings.Builder
	b.WriteString("Original request:\n")
	b.WriteString(originalPrompt)
	b.WriteString("\n\nSub-goal outcomes:\n")
	for i, r := range results {
		mark := "✓"
		content := r.Content
		if !r.Success {
			mark = "✗"
			content = errString(r.Err)
		}
		if len(content) > synthesisTruncateLen {
			content = content[:synthesisTruncateLen] + "…"
		}
		fmt.Fprintf(&b, "%d. [%s] %s: %s\n", i+1, mark, r.GoalID, content)
	}
	b.WriteString("\nIntegrate these outcomes into one coherent final response.")
	return b.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// DegradedSynthesis builds the fallback response when the synthesizer call
// itself fails (spec §4.6 step 5): successful sub-goal contents
// concatenated, separated by blank lines.
func DegradedSynthesis(results []SubGoalResult) string {
	var parts []string
	for _, r := range results {
		if r.Success && r.Content != "" {
			parts = append(parts, r.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
