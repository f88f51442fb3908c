package prediction

import (
	"math"

	"finsight/internal/dataset"
)

// ColumnAnomalies lists the z-score outliers of one numeric column.
// Indices are row positions within the column's numeric values.
type ColumnAnomalies struct {
	Count   int       `json:"count"`
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// AnomalyDetails is the details payload of an anomaly prediction.
type AnomalyDetails struct {
	Anomalies map[string]ColumnAnomalies `json:"anomalies"`
	Total     int                        `json:"total_anomalies"`
	Message   string                     `json:"message,omitempty"`
}

// anomaliesFromTable flags values more than three standard deviations
// from their column mean. The risk score amplifies the anomalous
// fraction so a handful of outliers in a small file still registers.
func anomaliesFromTable(table *dataset.Table) (float64, float64, *AnomalyDetails) {
	anomalies := make(map[string]ColumnAnomalies)
	total := 0
	sampled := 0

	for i, name := range table.Columns {
		if !table.IsNumericColumn(i) {
			continue
		}
		values, _ := table.NumericColumn(i)
		if len(values) < 3 {
			continue
		}
		sampled += len(values)

		m := mean(values)
		sd := stdDev(values)
		if sd == 0 {
			continue
		}

		var col ColumnAnomalies
		for idx, v := range values {
			if math.Abs(v-m)/sd > 3 {
				col.Count++
				col.Indices = append(col.Indices, idx)
				col.Values = append(col.Values, v)
			}
		}
		if col.Count > 0 {
			anomalies[name] = col
			total += col.Count
		}
	}

	if sampled == 0 {
		return 0.5, 0.1, &AnomalyDetails{
			Anomalies: anomalies,
			Message:   "No numeric columns with enough data for anomaly detection",
		}
	}

	score := round3(min1(float64(total) / float64(sampled) * 10))
	completeness := tableCompleteness(table)
	confidence := round3((completeness + min1(float64(table.RowCount())/1000)) / 2)

	return score, confidence, &AnomalyDetails{Anomalies: anomalies, Total: total}
}
