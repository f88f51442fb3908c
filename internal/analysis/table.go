package analysis

import (
	"sort"
	"strings"

	"finsight/internal/dataset"
)

// NumericSummary holds describe-style statistics for one numeric column.
type NumericSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"25%"`
	Median float64 `json:"50%"`
	Q3     float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// CategoricalSummary holds value-count statistics for one text column.
type CategoricalSummary struct {
	UniqueValues int            `json:"unique_values"`
	MostCommon   map[string]int `json:"most_common"`
}

// OutlierInfo reports IQR-fence outliers for one numeric column.
type OutlierInfo struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TableMetrics is the full descriptive analysis of a tabular dataset.
type TableMetrics struct {
	Rows               int                           `json:"rows"`
	Columns            int                           `json:"columns"`
	MissingValues      map[string]int                `json:"missing_values"`
	DataTypes          map[string]string             `json:"data_types"`
	NumericSummary     map[string]NumericSummary     `json:"numeric_summary,omitempty"`
	CategoricalSummary map[string]CategoricalSummary `json:"categorical_summary,omitempty"`
	CorrelationMatrix  map[string]map[string]float64 `json:"correlation_matrix,omitempty"`
	Outliers           map[string]OutlierInfo        `json:"outliers"`
	DataQualityScore   float64                       `json:"data_quality_score"`
}

// QualityMetrics is the data-quality view of a tabular dataset.
type QualityMetrics struct {
	MissingCounts      map[string]int         `json:"missing_counts"`
	MissingPercentages map[string]float64     `json:"missing_percentages"`
	Outliers           map[string]OutlierInfo `json:"outliers"`
	DataQualityScore   float64                `json:"data_quality_score"`
}

// DescribeTable computes the full descriptive metrics for a table.
func DescribeTable(table *dataset.Table) *TableMetrics {
	metrics := &TableMetrics{
		Rows:          table.RowCount(),
		Columns:       table.ColumnCount(),
		MissingValues: make(map[string]int, table.ColumnCount()),
		DataTypes:     make(map[string]string, table.ColumnCount()),
		Outliers:      make(map[string]OutlierInfo),
	}

	numericCols := make(map[string][]float64)
	for i, name := range table.Columns {
		metrics.MissingValues[name] = table.MissingCount(i)

		if table.IsNumericColumn(i) {
			metrics.DataTypes[name] = "numeric"
			values, _ := table.NumericColumn(i)
			numericCols[name] = values
		} else {
			metrics.DataTypes[name] = "text"
			summary := describeCategorical(table, i)
			if metrics.CategoricalSummary == nil {
				metrics.CategoricalSummary = make(map[string]CategoricalSummary)
			}
			metrics.CategoricalSummary[name] = summary
		}
	}

	if len(numericCols) > 0 {
		metrics.NumericSummary = make(map[string]NumericSummary, len(numericCols))
		for name, values := range numericCols {
			metrics.NumericSummary[name] = describeNumeric(values)
			metrics.Outliers[name] = detectOutliers(values, table.RowCount())
		}
	}
	if len(numericCols) > 1 {
		metrics.CorrelationMatrix = correlationMatrix(table)
	}

	metrics.DataQualityScore = qualityScore(table)
	return metrics
}

// AssessQuality computes the quality metrics for a table.
func AssessQuality(table *dataset.Table) *QualityMetrics {
	metrics := &QualityMetrics{
		MissingCounts:      make(map[string]int, table.ColumnCount()),
		MissingPercentages: make(map[string]float64, table.ColumnCount()),
		Outliers:           make(map[string]OutlierInfo),
	}

	rows := table.RowCount()
	for i, name := range table.Columns {
		missing := table.MissingCount(i)
		metrics.MissingCounts[name] = missing
		if rows > 0 {
			metrics.MissingPercentages[name] = round2(float64(missing) / float64(rows) * 100)
		}
		if table.IsNumericColumn(i) {
			values, _ := table.NumericColumn(i)
			metrics.Outliers[name] = detectOutliers(values, rows)
		}
	}

	metrics.DataQualityScore = qualityScore(table)
	return metrics
}

func describeNumeric(values []float64) NumericSummary {
	sorted := sortedCopy(values)
	return NumericSummary{
		Count:  len(values),
		Mean:   round3(mean(values)),
		Std:    round3(stdDev(values)),
		Min:    quantile(sorted, 0),
		Q1:     round3(quantile(sorted, 0.25)),
		Median: round3(quantile(sorted, 0.5)),
		Q3:     round3(quantile(sorted, 0.75)),
		Max:    quantile(sorted, 1),
	}
}

func describeCategorical(table *dataset.Table, col int) CategoricalSummary {
	counts := make(map[string]int)
	for i := 0; i < table.RowCount(); i++ {
		cell := strings.TrimSpace(table.Cell(i, col))
		if cell == "" {
			continue
		}
		counts[cell]++
	}
	return CategoricalSummary{
		UniqueValues: len(counts),
		MostCommon:   topCounts(counts, 5),
	}
}

// detectOutliers flags values outside the 1.5*IQR fences. The
// percentage is relative to the table's row count.
func detectOutliers(values []float64, rows int) OutlierInfo {
	if len(values) == 0 || rows == 0 {
		return OutlierInfo{}
	}
	sorted := sortedCopy(values)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	count := 0
	for _, v := range values {
		if v < lower || v > upper {
			count++
		}
	}
	return OutlierInfo{
		Count:      count,
		Percentage: round2(float64(count) / float64(rows) * 100),
	}
}

// correlationMatrix computes pairwise Pearson correlations over rows
// where both columns hold numeric values.
func correlationMatrix(table *dataset.Table) map[string]map[string]float64 {
	var numericIdx []int
	for i := range table.Columns {
		if table.IsNumericColumn(i) {
			numericIdx = append(numericIdx, i)
		}
	}
	if len(numericIdx) < 2 {
		return nil
	}

	matrix := make(map[string]map[string]float64, len(numericIdx))
	for _, a := range numericIdx {
		row := make(map[string]float64, len(numericIdx))
		for _, b := range numericIdx {
			if a == b {
				row[table.Columns[b]] = 1
				continue
			}
			xs, ys := alignedValues(table, a, b)
			row[table.Columns[b]] = round3(pearson(xs, ys))
		}
		matrix[table.Columns[a]] = row
	}
	return matrix
}

// alignedValues returns the value pairs of two columns over rows where
// both cells parse as numbers.
func alignedValues(table *dataset.Table, a, b int) ([]float64, []float64) {
	var xs, ys []float64
	for i := 0; i < table.RowCount(); i++ {
		x, okA := table.NumericCell(i, a)
		y, okB := table.NumericCell(i, b)
		if okA && okB {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

// qualityScore is non-missing cells over total cells as a percentage.
func qualityScore(table *dataset.Table) float64 {
	total := table.RowCount() * table.ColumnCount()
	if total == 0 {
		return 0
	}
	missing := 0
	for i := range table.Columns {
		missing += table.MissingCount(i)
	}
	return round2(float64(total-missing) / float64(total) * 100)
}

func topCounts(counts map[string]int, n int) map[string]int {
	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, entry{k, c})
	}
	// ties break lexically so output is deterministic
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	top := make(map[string]int, len(entries))
	for _, e := range entries {
		top[e.key] = e.count
	}
	return top
}
