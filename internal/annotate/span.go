// Package annotate implements the merge-and-render pipeline: it collects
// correction candidates from the grammar checker, the legal fix table and
// the optional reviewer, reconciles them into a non-overlapping annotation
// set over one line of text, and renders that set into an inline-markup
// preview and a styled run sequence from a single traversal.
package annotate

import "regexp"

// Category identifies which source produced a span.
type Category string

const (
	CategoryGrammar Category = "grammar"
	CategoryLegal   Category = "legal"
	CategoryLLM     Category = "llm"
)

// Span is a half-open byte range [Start, End) in a line, with the matched
// text, the chosen suggestion and provenance. A span with an empty
// Suggestion is informational only and is never rendered as an actionable
// annotation.
type Span struct {
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Original   string   `json:"original"`
	Suggestion string   `json:"suggestion,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message,omitempty"`
	Meaning    string   `json:"meaning,omitempty"`
}

// Valid reports whether the span's bounds land inside line and the text at
// those bounds equals Original. Spans failing this are discarded silently.
func (s Span) Valid(line string) bool {
	if s.Start < 0 || s.End <= s.Start || s.End > len(line) {
		return false
	}
	return line[s.Start:s.End] == s.Original
}

// AnnotationSet is the reconciled annotation list for one line: spans are
// sorted ascending by Start and no two spans share a character position.
type AnnotationSet []Span

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)
