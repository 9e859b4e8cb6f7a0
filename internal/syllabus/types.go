// Package syllabus models syllabus documents as ordered content elements and
// provides topic sources that feed the question pipeline.
package syllabus

// Element types found in a syllabus document.
const (
	ElementParagraph = "paragraph"
	ElementTable     = "table"
)

// Element is a single piece of syllabus content in document order.
// Paragraphs carry Text, tables carry Rows of cell texts.
type Element struct {
	Type string     `json:"type" yaml:"type"`
	Text string     `json:"text,omitempty" yaml:"text,omitempty"`
	Rows [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Topic is a syllabus topic: a title plus the content elements that belong
// to it, in the order they appear in the source document.
type Topic struct {
	Title    string    `json:"title" yaml:"title"`
	Elements []Element `json:"elements" yaml:"elements"`
}

// Paragraph returns a paragraph element.
func Paragraph(text string) Element {
	return Element{Type: ElementParagraph, Text: text}
}

// TableOf returns a table element with the given rows.
func TableOf(rows ...[]string) Element {
	return Element{Type: ElementTable, Rows: rows}
}
