package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"finsight/internal/dataset"
	"finsight/pkg/contracts/domain"
)

// Engine dispatches analysis kinds over a parsed dataset and returns
// the metrics as JSON, ready for caching and persistence.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an analysis engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Run executes the given analysis kind over the dataset.
func (e *Engine) Run(ctx context.Context, kind domain.AnalysisKind, ds *dataset.Dataset) (json.RawMessage, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown analysis kind %q", kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var metrics any
	switch kind {
	case domain.AnalysisDescriptive:
		if ds.Table != nil {
			metrics = DescribeTable(ds.Table)
		} else {
			metrics = DescribeText(ds.Document)
		}
	case domain.AnalysisQuality:
		if ds.Table != nil {
			metrics = AssessQuality(ds.Table)
		} else {
			metrics = assessTextQuality(ds.Document)
		}
	case domain.AnalysisSentiment:
		metrics = Sentiment(documentOf(ds))
	case domain.AnalysisTopics:
		metrics = ExtractTopics(documentOf(ds))
	case domain.AnalysisSummary:
		if ds.Table != nil {
			metrics = summarizeTable(ds.Table)
		} else {
			metrics = summarizeText(ds.Document)
		}
	}

	payload, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("encode %s metrics: %w", kind, err)
	}

	e.logger.Debug("Analysis computed",
		slog.String("kind", string(kind)),
		slog.String("format", string(ds.Format)),
		slog.Int("payload_bytes", len(payload)))
	return payload, nil
}

// documentOf returns the dataset's document, synthesizing one from the
// text columns when the dataset is tabular. Sentiment and topics work
// on words, so a joined view of the text cells is good enough.
func documentOf(ds *dataset.Dataset) *dataset.Document {
	if ds.Document != nil {
		return ds.Document
	}

	var sb strings.Builder
	table := ds.Table
	for i, name := range table.Columns {
		if table.IsNumericColumn(i) {
			continue
		}
		sb.WriteString(name)
		sb.WriteString("\n")
		for row := 0; row < table.RowCount(); row++ {
			cell := strings.TrimSpace(table.Cell(row, i))
			if cell != "" {
				sb.WriteString(cell)
				sb.WriteString("\n")
			}
		}
	}
	return &dataset.Document{Text: sb.String()}
}

// TextQualityMetrics is the quality view of a document. Completeness is
// the share of sentences with at least three words.
type TextQualityMetrics struct {
	TotalCharacters  int     `json:"total_characters"`
	TotalWords       int     `json:"total_words"`
	TotalSentences   int     `json:"total_sentences"`
	WellFormedRatio  float64 `json:"well_formed_ratio"`
	DataQualityScore float64 `json:"data_quality_score"`
}

func assessTextQuality(doc *dataset.Document) *TextQualityMetrics {
	sentences := doc.Sentences()
	wellFormed := 0
	for _, s := range sentences {
		if len(strings.Fields(s)) >= 3 {
			wellFormed++
		}
	}
	ratio := 0.0
	if len(sentences) > 0 {
		ratio = float64(wellFormed) / float64(len(sentences))
	}
	return &TextQualityMetrics{
		TotalCharacters:  len(doc.Text),
		TotalWords:       len(doc.Words()),
		TotalSentences:   len(sentences),
		WellFormedRatio:  round3(ratio),
		DataQualityScore: round2(ratio * 100),
	}
}

// TableSummary condenses a descriptive run into the headline numbers.
type TableSummary struct {
	RowCount         int     `json:"row_count"`
	ColumnCount      int     `json:"column_count"`
	NumericColumns   int     `json:"numeric_columns"`
	TextColumns      int     `json:"text_columns"`
	MissingCells     int     `json:"missing_cells"`
	DataQualityScore float64 `json:"data_quality_score"`
}

func summarizeTable(table *dataset.Table) *TableSummary {
	numeric := 0
	missing := 0
	for i := range table.Columns {
		if table.IsNumericColumn(i) {
			numeric++
		}
		missing += table.MissingCount(i)
	}
	return &TableSummary{
		RowCount:         table.RowCount(),
		ColumnCount:      table.ColumnCount(),
		NumericColumns:   numeric,
		TextColumns:      table.ColumnCount() - numeric,
		MissingCells:     missing,
		DataQualityScore: qualityScore(table),
	}
}

// TextSummary condenses a text run into the headline numbers. The
// complexity score averages word length with the unique-word ratio.
type TextSummary struct {
	WordCount       int     `json:"word_count"`
	SentenceCount   int     `json:"sentence_count"`
	SentimentRatio  float64 `json:"sentiment_ratio"`
	ComplexityScore float64 `json:"complexity_score"`
}

func summarizeText(doc *dataset.Document) *TextSummary {
	complexity := Complexity(doc)
	return &TextSummary{
		WordCount:       len(doc.Words()),
		SentenceCount:   len(doc.Sentences()),
		SentimentRatio:  Sentiment(doc).SentimentRatio,
		ComplexityScore: round3((complexity.AvgWordLength + complexity.UniqueWordRatio) / 2),
	}
}
