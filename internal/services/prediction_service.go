package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	apierrors "finsight/internal/errors"
	"finsight/internal/pipeline"
	"finsight/internal/prediction"
	"finsight/internal/validation"
	"finsight/pkg/contracts/domain"
)

// PredictionResultStore persists prediction results.
type PredictionResultStore interface {
	UpsertPrediction(ctx context.Context, res *domain.PredictionResult) error
}

// PredictionService binds prediction kinds to the cache-backed pipeline.
type PredictionService struct {
	stage     *pipeline.Stage
	engine    *prediction.Engine
	results   PredictionResultStore
	validator *validation.UploadValidator
	logger    *slog.Logger
}

// NewPredictionService creates a prediction service.
func NewPredictionService(stage *pipeline.Stage, engine *prediction.Engine, results PredictionResultStore, validator *validation.UploadValidator, logger *slog.Logger) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictionService{stage: stage, engine: engine, results: results, validator: validator, logger: logger}
}

// Run executes one prediction kind for a file through the pipeline.
// The payload is the serialized prediction.Outcome.
func (s *PredictionService) Run(ctx context.Context, fileID string, kind domain.PredictionKind, force bool) (*pipeline.StageResult, error) {
	if !kind.Valid() {
		return nil, apierrors.ErrValidation("prediction_type",
			fmt.Sprintf("unknown prediction type %q", kind))
	}

	return s.stage.Run(ctx, pipeline.Request{
		FileID: fileID,
		Op:     domain.PredictionOperation(kind),
		Force:  force,
		Compute: func(ctx context.Context, file *domain.FileRecord) (json.RawMessage, error) {
			ds, err := parseStoredFile(ctx, s.validator, file)
			if err != nil {
				return nil, err
			}
			outcome, err := s.engine.Run(ctx, kind, ds)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(outcome)
			if err != nil {
				return nil, fmt.Errorf("encode %s outcome: %w", kind, err)
			}
			return payload, nil
		},
		Persist: func(ctx context.Context, payload json.RawMessage, computedAt time.Time) error {
			var outcome prediction.Outcome
			if err := json.Unmarshal(payload, &outcome); err != nil {
				return fmt.Errorf("decode %s outcome: %w", kind, err)
			}
			return s.results.UpsertPrediction(ctx, &domain.PredictionResult{
				FileID:     fileID,
				Kind:       kind,
				RiskScore:  outcome.RiskScore,
				Confidence: outcome.Confidence,
				Details:    outcome.Details,
				ComputedAt: computedAt,
			})
		},
	})
}

// Summary runs (or reuses) the risk prediction and reduces it to the
// bucketed levels used by the summary endpoint.
func (s *PredictionService) Summary(ctx context.Context, fileID string) (*PredictionSummary, error) {
	result, err := s.Run(ctx, fileID, domain.PredictionRisk, false)
	if err != nil {
		return nil, err
	}

	var outcome prediction.Outcome
	if err := json.Unmarshal(result.Payload, &outcome); err != nil {
		return nil, fmt.Errorf("decode risk outcome: %w", err)
	}

	return &PredictionSummary{
		FileID:          fileID,
		RiskScore:       outcome.RiskScore,
		RiskLevel:       domain.RiskLevel(outcome.RiskScore),
		Confidence:      outcome.Confidence,
		ConfidenceLevel: domain.ConfidenceLevel(outcome.Confidence),
		Cached:          result.Cached,
		ComputedAt:      result.ComputedAt,
	}, nil
}

// PredictionSummary is the bucketed view of a risk prediction.
type PredictionSummary struct {
	FileID          string    `json:"file_id"`
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       string    `json:"risk_level"`
	Confidence      float64   `json:"confidence"`
	ConfidenceLevel string    `json:"confidence_level"`
	Cached          bool      `json:"cached"`
	ComputedAt      time.Time `json:"computed_at"`
}
