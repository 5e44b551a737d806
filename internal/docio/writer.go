package docio

import (
	"bytes"
	"fmt"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/redline/internal/annotate"
)

// Run colors follow the download rendering: wrong text red and bold,
// suggestions green and italic.
const (
	colorWrong      = "FF0000"
	colorSuggestion = "008000"
)

// BuildAnnotated produces a .docx where each element of paragraphs is one
// document paragraph carrying the styled run sequence of a rendered line.
func BuildAnnotated(paragraphs [][]annotate.Run) ([]byte, error) {
	w := docx.New().WithDefaultTheme()
	for _, runs := range paragraphs {
		para := w.AddParagraph()
		for _, run := range runs {
			if run.Text == "" {
				continue
			}
			r := para.AddText(run.Text)
			switch run.Style {
			case annotate.StyleWrong:
				r.Color(colorWrong).Bold()
			case annotate.StyleSuggestion:
				r.Color(colorSuggestion).Italic()
			}
		}
	}
	return marshalDocx(w)
}

// BuildPlain produces a .docx with one plain paragraph per line. Used by
// the replacement path, which emits corrected text without styling.
func BuildPlain(lines []string) ([]byte, error) {
	w := docx.New().WithDefaultTheme()
	for _, line := range lines {
		para := w.AddParagraph()
		if line != "" {
			para.AddText(line)
		}
	}
	return marshalDocx(w)
}

func marshalDocx(w *docx.Docx) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}
