package dataset

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfParser extracts the plain text of a PDF as a Document.
type pdfParser struct{}

func (p *pdfParser) Parse(ctx context.Context, path string) (*Dataset, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: extract text: %v", ErrMalformed, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("%w: read text: %v", ErrMalformed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil, fmt.Errorf("%w: document contains no extractable text", ErrMalformed)
	}

	return &Dataset{
		Format:   FormatPDF,
		Document: &Document{Text: text},
	}, nil
}
