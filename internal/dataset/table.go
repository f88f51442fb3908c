package dataset

import (
	"strconv"
	"strings"
)

// Table holds tabular data as a header row plus string cells. Cells keep
// their raw text; numeric interpretation happens on demand so that mixed
// columns degrade gracefully instead of failing the whole parse.
type Table struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of data rows (the header is not counted).
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, col), or "" when the row is ragged.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// NumericColumn extracts the values of column col that parse as numbers.
// Thousands separators are stripped and surrounding whitespace ignored.
// The second return value is the count of cells that were present but
// not numeric.
func (t *Table) NumericColumn(col int) ([]float64, int) {
	values := make([]float64, 0, len(t.Rows))
	nonNumeric := 0
	for i := range t.Rows {
		cell := strings.TrimSpace(t.Cell(i, col))
		if cell == "" {
			continue
		}
		v, err := parseNumeric(cell)
		if err != nil {
			nonNumeric++
			continue
		}
		values = append(values, v)
	}
	return values, nonNumeric
}

// NumericCell parses the cell at (row, col) as a number. The second
// return value is false for empty or non-numeric cells.
func (t *Table) NumericCell(row, col int) (float64, bool) {
	cell := strings.TrimSpace(t.Cell(row, col))
	if cell == "" {
		return 0, false
	}
	v, err := parseNumeric(cell)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MissingCount returns the number of empty cells in column col, counting
// ragged rows as missing.
func (t *Table) MissingCount(col int) int {
	missing := 0
	for i := range t.Rows {
		if strings.TrimSpace(t.Cell(i, col)) == "" {
			missing++
		}
	}
	return missing
}

// IsNumericColumn reports whether column col holds mostly numbers: at
// least one numeric cell and more numeric than non-numeric cells.
func (t *Table) IsNumericColumn(col int) bool {
	values, nonNumeric := t.NumericColumn(col)
	return len(values) > 0 && len(values) >= nonNumeric
}

// parseNumeric parses a cell as a float after stripping thousands
// separators. Currency symbols and percent suffixes are not handled.
func parseNumeric(s string) (float64, error) {
	cleaned := strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(cleaned, 64)
}
