package domain

import (
	"encoding/json"
	"time"
)

// AnalysisResult is the persisted outcome of one analysis run. One logical
// result exists per (file, kind) pair; a re-run supersedes it.
type AnalysisResult struct {
	FileID     string          `json:"file_id" db:"file_id"`
	Kind       AnalysisKind    `json:"analysis_type" db:"kind"`
	Metrics    json.RawMessage `json:"metrics" db:"metrics"`
	ComputedAt time.Time       `json:"computed_at" db:"computed_at"`
}

// PredictionResult is the persisted outcome of one prediction run. Same
// lifecycle shape as AnalysisResult: latest wins.
type PredictionResult struct {
	FileID     string          `json:"file_id" db:"file_id"`
	Kind       PredictionKind  `json:"prediction_type" db:"kind"`
	RiskScore  float64         `json:"risk_score" db:"risk_score"`
	Confidence float64         `json:"confidence" db:"confidence"`
	Details    json.RawMessage `json:"prediction_data" db:"details"`
	ComputedAt time.Time       `json:"computed_at" db:"computed_at"`
}

// RiskLevel buckets a risk score for summaries.
func RiskLevel(score float64) string {
	switch {
	case score < 0.3:
		return "Low"
	case score < 0.7:
		return "Medium"
	default:
		return "High"
	}
}

// ConfidenceLevel buckets a confidence value for summaries.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence > 0.7:
		return "High"
	case confidence > 0.4:
		return "Medium"
	default:
		return "Low"
	}
}
