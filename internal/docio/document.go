// Package docio reads uploaded documents into a line-oriented model and
// writes annotated or corrected .docx output. A Line is the unit of
// annotation: line boundaries, including blank lines, are preserved
// verbatim through the pipeline.
package docio

import "strings"

// Document is a parsed upload: a title and the ordered lines of text.
type Document struct {
	Title string
	Lines []string
}

// Text joins the document lines back into a single body.
func (d *Document) Text() string {
	return strings.Join(d.Lines, "\n")
}

// IsEmpty reports whether the document holds no non-blank text at all.
func (d *Document) IsEmpty() bool {
	for _, line := range d.Lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// splitLines converts a flat text body into Lines, normalizing CRLF and
// keeping blank lines in place.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
