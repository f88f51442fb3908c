// Package prediction computes heuristic risk, trend, and anomaly
// predictions over parsed datasets, with an optional AI-generated
// narrative on top of the numbers.
package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"finsight/internal/dataset"
	"finsight/pkg/contracts/domain"
)

// Outcome is one computed prediction before persistence. Details is a
// kind-specific JSON document.
type Outcome struct {
	RiskScore  float64         `json:"risk_score"`
	Confidence float64         `json:"confidence"`
	Details    json.RawMessage `json:"prediction_data"`
}

// Engine dispatches prediction kinds over a parsed dataset.
type Engine struct {
	logger   *slog.Logger
	narrator Narrator
}

// NewEngine creates a prediction engine. narrator may be nil.
func NewEngine(logger *slog.Logger, narrator Narrator) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, narrator: narrator}
}

// Run executes the given prediction kind over the dataset.
func (e *Engine) Run(ctx context.Context, kind domain.PredictionKind, ds *dataset.Dataset) (*Outcome, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown prediction kind %q", kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		score, confidence float64
		details           any
	)
	switch kind {
	case domain.PredictionRisk:
		if ds.Table != nil {
			score, confidence, details = riskFromTable(ds.Table)
		} else {
			score, confidence, details = riskFromText(ds.Document)
		}
	case domain.PredictionTrend:
		if ds.Table != nil {
			score, confidence, details = trendFromTable(ds.Table)
		} else {
			score, confidence, details = 0.5, 0.1, &TrendDetails{
				Message: "Trend prediction needs tabular data",
			}
		}
	case domain.PredictionAnomaly:
		if ds.Table != nil {
			score, confidence, details = anomaliesFromTable(ds.Table)
		} else {
			score, confidence, details = 0.5, 0.1, &AnomalyDetails{
				Message: "Anomaly detection needs tabular data",
			}
		}
	}

	score = clamp01(score)
	confidence = clamp01(confidence)

	payload, err := e.encodeDetails(ctx, kind, score, confidence, details)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Prediction computed",
		slog.String("kind", string(kind)),
		slog.String("format", string(ds.Format)),
		slog.Float64("risk_score", score),
		slog.Float64("confidence", confidence))

	return &Outcome{RiskScore: score, Confidence: confidence, Details: payload}, nil
}

// encodeDetails marshals the details and, when a narrator is wired,
// attaches its assessment. Narration failures are logged and dropped;
// the numeric result always survives.
func (e *Engine) encodeDetails(ctx context.Context, kind domain.PredictionKind, score, confidence float64, details any) (json.RawMessage, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode %s details: %w", kind, err)
	}
	if e.narrator == nil {
		return raw, nil
	}

	narrative, err := e.narrator.Narrate(ctx, kind, score, confidence)
	if err != nil {
		e.logger.Warn("Narrative generation failed, returning heuristic result",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		return raw, nil
	}

	var merged map[string]any
	if err := json.Unmarshal(raw, &merged); err != nil {
		return raw, nil
	}
	merged["narrative"] = narrative
	enriched, err := json.Marshal(merged)
	if err != nil {
		return raw, nil
	}
	return enriched, nil
}
