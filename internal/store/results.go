package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsight/pkg/contracts/domain"
)

// ResultRepository persists computed analysis and prediction results.
// One row exists per (file, kind); a re-run replaces the previous row.
type ResultRepository struct {
	db *sql.DB
}

// UpsertAnalysis stores res, replacing any earlier result of the same
// kind for the same file.
func (r *ResultRepository) UpsertAnalysis(ctx context.Context, res *domain.AnalysisResult) error {
	query := `
		INSERT INTO analysis_results (file_id, kind, metrics, computed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_id, kind)
		DO UPDATE SET metrics = EXCLUDED.metrics, computed_at = EXCLUDED.computed_at
	`
	_, err := r.db.ExecContext(ctx, query, res.FileID, res.Kind, []byte(res.Metrics), res.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert analysis result: %w", err)
	}
	return nil
}

// GetAnalysis returns the stored result for (fileID, kind), or ErrNotFound.
func (r *ResultRepository) GetAnalysis(ctx context.Context, fileID string, kind domain.AnalysisKind) (*domain.AnalysisResult, error) {
	query := `
		SELECT file_id, kind, metrics, computed_at
		FROM analysis_results
		WHERE file_id = $1 AND kind = $2
	`
	var res domain.AnalysisResult
	var metrics []byte
	err := r.db.QueryRowContext(ctx, query, fileID, kind).Scan(
		&res.FileID, &res.Kind, &metrics, &res.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select analysis result: %w", err)
	}
	res.Metrics = metrics
	return &res, nil
}

// UpsertPrediction stores res, replacing any earlier result of the same
// kind for the same file.
func (r *ResultRepository) UpsertPrediction(ctx context.Context, res *domain.PredictionResult) error {
	query := `
		INSERT INTO prediction_results (file_id, kind, risk_score, confidence, details, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_id, kind)
		DO UPDATE SET
			risk_score = EXCLUDED.risk_score,
			confidence = EXCLUDED.confidence,
			details = EXCLUDED.details,
			computed_at = EXCLUDED.computed_at
	`
	_, err := r.db.ExecContext(ctx, query,
		res.FileID, res.Kind, res.RiskScore, res.Confidence, []byte(res.Details), res.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert prediction result: %w", err)
	}
	return nil
}

// GetPrediction returns the stored result for (fileID, kind), or ErrNotFound.
func (r *ResultRepository) GetPrediction(ctx context.Context, fileID string, kind domain.PredictionKind) (*domain.PredictionResult, error) {
	query := `
		SELECT file_id, kind, risk_score, confidence, details, computed_at
		FROM prediction_results
		WHERE file_id = $1 AND kind = $2
	`
	var res domain.PredictionResult
	var details []byte
	err := r.db.QueryRowContext(ctx, query, fileID, kind).Scan(
		&res.FileID, &res.Kind, &res.RiskScore, &res.Confidence, &details, &res.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select prediction result: %w", err)
	}
	res.Details = details
	return &res, nil
}

// DeleteForFile removes every stored result for the file. Used when a
// file is deleted while its results are being recomputed; the cascade
// handles the common path.
func (r *ResultRepository) DeleteForFile(ctx context.Context, fileID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM analysis_results WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("delete analysis results: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM prediction_results WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("delete prediction results: %w", err)
	}
	return nil
}
