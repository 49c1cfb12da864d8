package changelog

import (
	"fmt"
	"strings"
)

const (
	TruncationMarker = "... (truncated)"

	DefaultSummaryBudget = 12000
)

// Summarize writes one line per file with the count of added and removed segments.
func Summarize(files []*FileChange) string {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		additions, removals := f.Stats()
		lines = append(lines, fmt.Sprintf("%s: %d additions, %d removals", f.Path, additions, removals))
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts text to budget characters and appends TruncationMarker.
// Text within budget, or a non positive budget, is returned unchanged.
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget]) + TruncationMarker
}

// Digest summarizes the files and bounds the result to budget characters.
func Digest(files []*FileChange, budget int) string {
	return Truncate(Summarize(files), budget)
}
