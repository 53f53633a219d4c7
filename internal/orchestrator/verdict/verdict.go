// Package verdict turns free-text model replies into a yes/no decision
package verdict

import "strings"

// Result pairs a raw model reply with the verdict derived from it.
type Result struct {
	ModelOutput string
	Verdict     bool
}

// NewResult builds a Result whose verdict is extracted from output.
func NewResult(output string) Result {
	return Result{ModelOutput: output, Verdict: Extract(output)}
}

// Extract reports whether output contains "yes" in any casing, anywhere.
// Negations and answer position are deliberately ignored.
func Extract(output string) bool {
	return strings.Contains(strings.ToLower(output), "yes")
}
