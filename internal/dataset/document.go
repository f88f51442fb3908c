package dataset

import (
	"strings"
	"unicode"
)

// Document holds free-form text extracted from PDF or plain text files.
type Document struct {
	Text string
}

// Lines splits the document into non-empty trimmed lines.
func (d *Document) Lines() []string {
	var lines []string
	for _, line := range strings.Split(d.Text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Words returns the lowercased word tokens of the document. Tokens are
// runs of letters and digits; punctuation is a separator.
func (d *Document) Words() []string {
	return strings.FieldsFunc(strings.ToLower(d.Text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Sentences splits the text on sentence-ending punctuation, dropping
// empty fragments.
func (d *Document) Sentences() []string {
	var sentences []string
	for _, s := range strings.FieldsFunc(d.Text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
