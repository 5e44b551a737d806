package annotate

import (
	"html"
	"strings"
)

// Sink receives the pieces of one line during a render walk. Both output
// backends implement it, so the two renderings are built from the exact
// same traversal and can never diverge.
type Sink interface {
	// Literal receives a run of unannotated text, verbatim.
	Literal(text string)
	// Annotated receives one resolved span in place of its original text.
	Annotated(sp Span)
}

// Walk traverses line left to right, feeding unannotated text and
// annotated spans to sink in order. set must be a reconciled
// AnnotationSet; spans that would break the walk invariant are skipped.
func Walk(line string, set AnnotationSet, sink Sink) {
	pos := 0
	for _, sp := range set {
		if sp.Start < pos || sp.End > len(line) {
			continue
		}
		if sp.Start > pos {
			sink.Literal(line[pos:sp.Start])
		}
		sink.Annotated(sp)
		pos = sp.End
	}
	if pos < len(line) {
		sink.Literal(line[pos:])
	}
}

// MarkupSink renders a line as an HTML fragment: a <p> wrapper holding
// text nodes and one <mark> per span. The marker carries the span metadata
// as data attributes so a UI can read wrong/suggestion/source/meaning
// without re-parsing. All interpolated text is escaped.
type MarkupSink struct {
	b strings.Builder
}

func (s *MarkupSink) Literal(text string) {
	s.b.WriteString(html.EscapeString(text))
}

func (s *MarkupSink) Annotated(sp Span) {
	s.b.WriteString(`<mark class="annot" data-wrong="`)
	s.b.WriteString(html.EscapeString(sp.Original))
	s.b.WriteString(`" data-suggestion="`)
	s.b.WriteString(html.EscapeString(sp.Suggestion))
	s.b.WriteString(`" data-source="`)
	s.b.WriteString(string(sp.Category))
	s.b.WriteString(`"`)
	if sp.Meaning != "" {
		s.b.WriteString(` data-meaning="`)
		s.b.WriteString(html.EscapeString(sp.Meaning))
		s.b.WriteString(`"`)
	}
	if sp.Message != "" {
		s.b.WriteString(` title="`)
		s.b.WriteString(html.EscapeString(sp.Message))
		s.b.WriteString(`"`)
	}
	s.b.WriteString(`>`)
	s.b.WriteString(html.EscapeString(sp.Original))
	s.b.WriteString(`</mark>`)
}

// RenderMarkup walks one line and returns its inline-markup form.
func RenderMarkup(line string, set AnnotationSet) string {
	var sink MarkupSink
	Walk(line, set, &sink)
	return `<p class="line">` + sink.b.String() + `</p>`
}

// Style classifies a rendered text run.
type Style int

const (
	StyleNormal Style = iota
	// StyleWrong marks the original flagged text (red, bold).
	StyleWrong
	// StyleSuggestion marks the appended "(suggestion)" run (green, italic).
	StyleSuggestion
)

// Run is one styled text segment of a rendered line.
type Run struct {
	Text  string
	Style Style
}

// RunSink renders a line as a styled run sequence for the document writer.
// The wrong text keeps its place in the line; the suggestion follows as a
// separate parenthesized run rather than replacing anything.
type RunSink struct {
	runs []Run
}

func (s *RunSink) Literal(text string) {
	s.runs = append(s.runs, Run{Text: text, Style: StyleNormal})
}

func (s *RunSink) Annotated(sp Span) {
	s.runs = append(s.runs, Run{Text: sp.Original, Style: StyleWrong})
	if sp.Suggestion != "" {
		s.runs = append(s.runs, Run{Text: "(" + sp.Suggestion + ")", Style: StyleSuggestion})
	}
}

// RenderRuns walks one line and returns its styled run sequence.
func RenderRuns(line string, set AnnotationSet) []Run {
	var sink RunSink
	Walk(line, set, &sink)
	return sink.runs
}

// PlainText is the plain projection of a run sequence: every run except
// the supplementary suggestion runs, concatenated. For any reconciled set
// this reproduces the original line exactly.
func PlainText(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		if r.Style == StyleSuggestion {
			continue
		}
		b.WriteString(r.Text)
	}
	return b.String()
}
