package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// excelParser reads the first sheet that contains data. The first
// non-empty row is the header; rows below it become data rows.
type excelParser struct{}

func (p *excelParser) Parse(ctx context.Context, path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	var rows [][]string
	for _, name := range f.GetSheetList() {
		sheetRows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if hasData(sheetRows) {
			rows = sheetRows
			break
		}
	}
	if rows == nil {
		return nil, fmt.Errorf("%w: workbook has no sheet with data", ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	headerIdx := -1
	for i, row := range rows {
		if !rowEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: sheet has no header row", ErrMalformed)
	}

	columns := make([]string, len(rows[headerIdx]))
	for i, c := range rows[headerIdx] {
		columns[i] = strings.TrimSpace(c)
	}

	var dataRows [][]string
	for _, row := range rows[headerIdx+1:] {
		if rowEmpty(row) {
			continue
		}
		dataRows = append(dataRows, row)
	}

	return &Dataset{
		Format: FormatExcel,
		Table: &Table{
			Columns: columns,
			Rows:    dataRows,
		},
	}, nil
}

func hasData(rows [][]string) bool {
	for _, row := range rows {
		if !rowEmpty(row) {
			return true
		}
	}
	return false
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
