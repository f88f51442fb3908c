package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Format
		wantErr  bool
	}{
		{"csv", "report.csv", FormatCSV, false},
		{"csv uppercase", "REPORT.CSV", FormatCSV, false},
		{"tsv", "data.tsv", FormatTSV, false},
		{"xlsx", "book.xlsx", FormatExcel, false},
		{"legacy xls", "book.xls", FormatExcel, false},
		{"pdf", "statement.pdf", FormatPDF, false},
		{"txt", "notes.txt", FormatText, false},
		{"unknown", "image.png", "", true},
		{"no extension", "README", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCSV(t *testing.T) {
	path := writeFile(t, "sales.csv", "Revenue,Region\n1000,North\n\"2,500\",South\n,East\n")

	ds, err := Parse(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, ds.Table)
	assert.Nil(t, ds.Document)
	assert.Equal(t, FormatCSV, ds.Format)
	assert.Equal(t, []string{"Revenue", "Region"}, ds.Table.Columns)
	assert.Equal(t, 3, ds.Table.RowCount())

	values, nonNumeric := ds.Table.NumericColumn(0)
	assert.Equal(t, []float64{1000, 2500}, values)
	assert.Equal(t, 0, nonNumeric)
	assert.Equal(t, 1, ds.Table.MissingCount(0))
}

func TestParseTSV(t *testing.T) {
	path := writeFile(t, "data.tsv", "Name\tValue\nalpha\t1\nbeta\t2\n")

	ds, err := Parse(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, ds.Table)
	assert.Equal(t, FormatTSV, ds.Format)
	assert.Equal(t, 2, ds.Table.RowCount())
	assert.True(t, ds.Table.IsNumericColumn(1))
	assert.False(t, ds.Table.IsNumericColumn(0))
}

func TestParseCSVEmpty(t *testing.T) {
	path := writeFile(t, "empty.csv", "")

	_, err := Parse(context.Background(), path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseText(t *testing.T) {
	path := writeFile(t, "notes.txt", "Revenue grew strongly. Debt declined!\n\nOutlook positive.\n")

	ds, err := Parse(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, ds.Document)
	assert.Nil(t, ds.Table)

	assert.Len(t, ds.Document.Sentences(), 3)
	assert.Len(t, ds.Document.Lines(), 2)
	assert.Contains(t, ds.Document.Words(), "revenue")
	assert.Contains(t, ds.Document.Words(), "debt")
}

func TestParseTextEmpty(t *testing.T) {
	path := writeFile(t, "blank.txt", "  \n\t\n")

	_, err := Parse(context.Background(), path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Quarter", "Profit"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Q1", 120.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Q2", 98}))
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := Parse(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, ds.Table)
	assert.Equal(t, []string{"Quarter", "Profit"}, ds.Table.Columns)
	assert.Equal(t, 2, ds.Table.RowCount())

	values, _ := ds.Table.NumericColumn(1)
	assert.Equal(t, []float64{120.5, 98}, values)
}

func TestParseExcelEmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := Parse(context.Background(), path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParsePDFMalformed(t *testing.T) {
	path := writeFile(t, "broken.pdf", "not a pdf at all")

	_, err := Parse(context.Background(), path)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestTableColumnIndex(t *testing.T) {
	table := &Table{Columns: []string{"Revenue", "Total Debt"}}
	assert.Equal(t, 0, table.ColumnIndex("revenue"))
	assert.Equal(t, 1, table.ColumnIndex("Total Debt"))
	assert.Equal(t, -1, table.ColumnIndex("missing"))
}

func TestTableRaggedRows(t *testing.T) {
	table := &Table{
		Columns: []string{"A", "B"},
		Rows:    [][]string{{"1", "2"}, {"3"}},
	}
	assert.Equal(t, "", table.Cell(1, 1))
	assert.Equal(t, 1, table.MissingCount(1))
}
