package prediction

import (
	"fmt"
	"sort"
	"strings"

	"finsight/internal/dataset"
)

var positiveWords = []string{
	"good", "great", "excellent", "positive", "profit", "growth", "increase", "success",
}

var negativeWords = []string{
	"bad", "poor", "negative", "loss", "decline", "decrease", "risk", "failure", "debt",
}

var riskKeywords = []string{
	"risk", "debt", "loss", "decline", "decrease", "failure", "default",
	"bankruptcy", "liquidation", "restructuring", "write-off", "impairment",
}

// DataQuality is the quality assessment attached to table predictions.
type DataQuality struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
}

// TableRiskDetails is the details payload of a table risk prediction.
type TableRiskDetails struct {
	RiskIndicators map[string]float64 `json:"risk_indicators"`
	DataQuality    DataQuality        `json:"data_quality"`
	RiskFactors    []string           `json:"risk_factors"`
}

// TextRiskDetails is the details payload of a document risk prediction.
type TextRiskDetails struct {
	SentimentScore  float64        `json:"sentiment_score"`
	RiskKeywords    map[string]int `json:"risk_keywords"`
	WordCount       int            `json:"word_count"`
	SentenceCount   int            `json:"sentence_count"`
	KeywordDensity  float64        `json:"risk_keyword_density"`
	ComplexityScore float64        `json:"complexity_score"`
}

// riskFromTable runs the column-name heuristics: debt and liability
// columns score on level and volatility, revenue and income on the
// first-to-last change, ratio columns on dispersion.
func riskFromTable(table *dataset.Table) (float64, float64, *TableRiskDetails) {
	indicators := make(map[string]float64)

	for i, name := range table.Columns {
		if !table.IsNumericColumn(i) {
			continue
		}
		values, _ := table.NumericColumn(i)
		lower := strings.ToLower(name)

		switch {
		case strings.Contains(lower, "debt") || strings.Contains(lower, "liability"):
			indicators[name+"_risk"] = debtRisk(values)
		case strings.Contains(lower, "revenue") || strings.Contains(lower, "income"):
			indicators[name+"_risk"] = revenueRisk(values)
		case strings.Contains(lower, "ratio"):
			indicators[name+"_risk"] = ratioRisk(values)
		}
	}

	score := 0.5
	if len(indicators) > 0 {
		total := 0.0
		for _, v := range indicators {
			total += v
		}
		score = round3(total / float64(len(indicators)))
	}

	completeness := tableCompleteness(table)
	confidence := round3((completeness + min1(float64(table.RowCount())/1000)) / 2)

	details := &TableRiskDetails{
		RiskIndicators: indicators,
		DataQuality: DataQuality{
			Completeness: round3(completeness),
			Consistency:  round3(tableConsistency(table)),
		},
		RiskFactors: riskFactors(table),
	}
	return score, confidence, details
}

// riskFromText scores a document by sentiment and risk-keyword density.
func riskFromText(doc *dataset.Document) (float64, float64, *TextRiskDetails) {
	sentiment := sentimentScore(doc.Text)
	keywords := countRiskKeywords(doc.Text)

	keywordTotal := 0
	for _, c := range keywords {
		keywordTotal += c
	}
	score := round3(((1 - sentiment) + min1(float64(keywordTotal)/10)) / 2)

	words := doc.Words()
	confidence := round3(min1(float64(len(words)) / 1000))

	density := 0.0
	if len(words) > 0 {
		density = round3(float64(len(keywords)) / float64(len(words)) * 1000)
	}

	details := &TextRiskDetails{
		SentimentScore:  sentiment,
		RiskKeywords:    keywords,
		WordCount:       len(words),
		SentenceCount:   len(doc.Sentences()),
		KeywordDensity:  density,
		ComplexityScore: complexityScore(words),
	}
	return score, confidence, details
}

func debtRisk(values []float64) float64 {
	if len(values) == 0 {
		return 0.5
	}
	avg := mean(values)
	volatility := stdDev(values)
	return round3(min1((avg/1_000_000 + volatility/100_000) / 2))
}

func revenueRisk(values []float64) float64 {
	if len(values) < 2 || values[0] == 0 {
		return 0.5
	}
	change := (values[len(values)-1] - values[0]) / values[0]
	return round3(clamp01(0.5 - change))
}

func ratioRisk(values []float64) float64 {
	if len(values) == 0 {
		return 0.5
	}
	return round3(min1(stdDev(values) / (abs(mean(values)) + 1e-6)))
}

func sentimentScore(text string) float64 {
	lower := strings.ToLower(text)

	positive := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	negative := 0
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}
	if positive+negative == 0 {
		return 0.5
	}
	return round3(float64(positive) / float64(positive+negative))
}

func countRiskKeywords(text string) map[string]int {
	lower := strings.ToLower(text)
	counts := make(map[string]int)
	for _, keyword := range riskKeywords {
		if n := strings.Count(lower, keyword); n > 0 {
			counts[keyword] = n
		}
	}
	return counts
}

func complexityScore(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	totalLen := 0
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		totalLen += len(w)
		unique[w] = struct{}{}
	}
	avgLen := float64(totalLen) / float64(len(words))
	ratio := float64(len(unique)) / float64(len(words))
	return round3((avgLen + ratio) / 2)
}

func tableCompleteness(table *dataset.Table) float64 {
	total := table.RowCount() * table.ColumnCount()
	if total == 0 {
		return 0
	}
	missing := 0
	for i := range table.Columns {
		missing += table.MissingCount(i)
	}
	return 1 - float64(missing)/float64(total)
}

// tableConsistency scores 1.0 for numeric columns with spread and 0.5
// for constant ones, averaged. Tables without numeric columns score 1.0.
func tableConsistency(table *dataset.Table) float64 {
	var scores []float64
	for i := range table.Columns {
		if !table.IsNumericColumn(i) {
			continue
		}
		values, _ := table.NumericColumn(i)
		if stdDev(values) > 0 {
			scores = append(scores, 1.0)
		} else {
			scores = append(scores, 0.5)
		}
	}
	if len(scores) == 0 {
		return 1.0
	}
	return mean(scores)
}

func riskFactors(table *dataset.Table) []string {
	var factors []string

	missingCols := 0
	for i := range table.Columns {
		if table.MissingCount(i) > 0 {
			missingCols++
		}
	}
	if missingCols > 0 {
		factors = append(factors, fmt.Sprintf("Missing data in %d columns", missingCols))
	}

	var volatile []string
	for i, name := range table.Columns {
		if !table.IsNumericColumn(i) {
			continue
		}
		values, _ := table.NumericColumn(i)
		if stdDev(values) > mean(values)*2 {
			volatile = append(volatile, name)
		}
	}
	sort.Strings(volatile)
	for _, name := range volatile {
		factors = append(factors, fmt.Sprintf("High volatility in %s", name))
	}

	return factors
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
