package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Dataset is the parsed content of an uploaded file. Exactly one of
// Table or Document is set, according to Format.Tabular().
type Dataset struct {
	Format   Format
	Table    *Table
	Document *Document
}

// Parser extracts a Dataset from a file on disk.
type Parser interface {
	Parse(ctx context.Context, path string) (*Dataset, error)
}

// ParserFor returns the parser for the given format.
func ParserFor(format Format) (Parser, error) {
	switch format {
	case FormatCSV:
		return &delimitedParser{format: FormatCSV, delimiter: ','}, nil
	case FormatTSV:
		return &delimitedParser{format: FormatTSV, delimiter: '\t'}, nil
	case FormatExcel:
		return &excelParser{}, nil
	case FormatPDF:
		return &pdfParser{}, nil
	case FormatText:
		return &textParser{}, nil
	default:
		return nil, ErrUnknownFormat
	}
}

// Parse detects the format of path by extension and parses it.
func Parse(ctx context.Context, path string) (*Dataset, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	parser, err := ParserFor(format)
	if err != nil {
		return nil, err
	}
	return parser.Parse(ctx, path)
}

// delimitedParser reads CSV and TSV files. The first record is the
// header; records with a different field count are kept as ragged rows.
type delimitedParser struct {
	format    Format
	delimiter rune
}

func (p *delimitedParser) Parse(ctx context.Context, path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s file: %w", p.format, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = p.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file has no records", ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.TrimSpace(c)
	}

	return &Dataset{
		Format: p.format,
		Table: &Table{
			Columns: columns,
			Rows:    records[1:],
		},
	}, nil
}

// textParser reads a plain text file as a Document.
type textParser struct{}

func (p *textParser) Parse(ctx context.Context, path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%w: file is empty", ErrMalformed)
	}
	return &Dataset{
		Format:   FormatText,
		Document: &Document{Text: text},
	}, nil
}
