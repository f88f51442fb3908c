package dataset

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format identifies a supported file format. The set is closed: every
// format has exactly one parser and unknown extensions are rejected at
// the boundary instead of being dispatched by string downstream.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
	FormatText  Format = "txt"
)

// ErrUnknownFormat indicates a filename whose extension maps to no parser.
var ErrUnknownFormat = errors.New("unknown file format")

// ErrMalformed indicates file content that could not be parsed as its
// declared format. Wrapped errors carry the cause.
var ErrMalformed = errors.New("malformed file content")

// DetectFormat maps a filename to its format by extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv":
		return FormatTSV, nil
	case ".xlsx", ".xls":
		return FormatExcel, nil
	case ".pdf":
		return FormatPDF, nil
	case ".txt":
		return FormatText, nil
	default:
		return "", ErrUnknownFormat
	}
}

// Tabular reports whether the format parses into a Table rather than a
// Document.
func (f Format) Tabular() bool {
	return f == FormatCSV || f == FormatTSV || f == FormatExcel
}
