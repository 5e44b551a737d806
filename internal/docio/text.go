package docio

import (
	"fmt"
	"io"
)

// TextReader handles plain text files. Unlike structured formats, the
// bytes are taken as-is: one text line per Line, blanks kept.
type TextReader struct{}

func (p *TextReader) Read(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return &Document{
		Title: titleFromFilename(filename),
		Lines: splitLines(string(data)),
	}, nil
}
