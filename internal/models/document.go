// Package models defines data structures for the register extraction pipeline.
package models

import "strings"

// Document is one OCR'd newspaper text file.
type Document struct {
	Path string
	Name string
	Text string
}

// IsBlank reports whether the document has no non-whitespace content.
func (d Document) IsBlank() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Chunk is a word window over a document.
// Start and End index the document's whitespace tokens, End exclusive.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// Words returns the number of words in the chunk window.
func (c Chunk) Words() int {
	return c.End - c.Start
}
