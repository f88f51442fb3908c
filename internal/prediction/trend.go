package prediction

import (
	"math"

	"finsight/internal/dataset"
)

// ColumnTrend is the fitted trend of one numeric column.
type ColumnTrend struct {
	Slope     float64 `json:"slope"`
	Direction string  `json:"direction"`
	Strength  float64 `json:"strength"`
}

// TrendDetails is the details payload of a trend prediction.
type TrendDetails struct {
	Trends  map[string]ColumnTrend `json:"trends"`
	Message string                 `json:"message,omitempty"`
}

// trendFromTable fits a least-squares line over row order for each
// numeric column. Strength is the absolute correlation with row index,
// so a noisy flat series scores near zero and a clean ramp near one.
// The risk score rewards declines: columns trending down push it up.
func trendFromTable(table *dataset.Table) (float64, float64, *TrendDetails) {
	trends := make(map[string]ColumnTrend)
	var declineRisks []float64

	for i, name := range table.Columns {
		if !table.IsNumericColumn(i) {
			continue
		}
		values, _ := table.NumericColumn(i)
		if len(values) < 2 {
			continue
		}

		slope, strength := fitLine(values)
		direction := "flat"
		switch {
		case slope > 0 && strength > 0.1:
			direction = "increasing"
		case slope < 0 && strength > 0.1:
			direction = "decreasing"
		}
		trends[name] = ColumnTrend{
			Slope:     round3(slope),
			Direction: direction,
			Strength:  round3(strength),
		}

		// relative first-to-last change, negated so declines raise risk
		if values[0] != 0 {
			change := (values[len(values)-1] - values[0]) / values[0]
			declineRisks = append(declineRisks, clamp01(-change))
		}
	}

	if len(trends) == 0 {
		return 0.5, 0.1, &TrendDetails{
			Trends:  trends,
			Message: "No numeric columns with enough data for trend fitting",
		}
	}

	score := round3(mean(declineRisks))
	if len(declineRisks) == 0 {
		score = 0.5
	}
	completeness := tableCompleteness(table)
	confidence := round3((completeness + min1(float64(table.RowCount())/1000)) / 2)

	return score, confidence, &TrendDetails{Trends: trends}
}

// fitLine returns the least-squares slope of values over their index
// and the absolute Pearson correlation as strength.
func fitLine(values []float64) (slope, strength float64) {
	n := float64(len(values))
	meanX := (n - 1) / 2
	meanY := mean(values)

	var sxy, sxx, syy float64
	for i, v := range values {
		dx := float64(i) - meanX
		dy := v - meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 {
		return 0, 0
	}
	slope = sxy / sxx
	if syy == 0 {
		return slope, 0
	}
	strength = math.Abs(sxy / math.Sqrt(sxx*syy))
	return slope, strength
}
