package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finsight/internal/analysis"
	"finsight/internal/dataset"
	apierrors "finsight/internal/errors"
	"finsight/internal/pipeline"
	"finsight/internal/validation"
	"finsight/pkg/contracts/domain"
)

// AnalysisResultStore persists analysis results.
type AnalysisResultStore interface {
	UpsertAnalysis(ctx context.Context, res *domain.AnalysisResult) error
}

// AnalysisService binds analysis kinds to the cache-backed pipeline.
type AnalysisService struct {
	stage     *pipeline.Stage
	engine    *analysis.Engine
	results   AnalysisResultStore
	validator *validation.UploadValidator
	logger    *slog.Logger
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(stage *pipeline.Stage, engine *analysis.Engine, results AnalysisResultStore, validator *validation.UploadValidator, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{stage: stage, engine: engine, results: results, validator: validator, logger: logger}
}

// Run executes one analysis kind for a file through the pipeline.
func (s *AnalysisService) Run(ctx context.Context, fileID string, kind domain.AnalysisKind, force bool) (*pipeline.StageResult, error) {
	if !kind.Valid() {
		return nil, apierrors.ErrValidation("analysis_type",
			fmt.Sprintf("unknown analysis type %q", kind))
	}

	return s.stage.Run(ctx, pipeline.Request{
		FileID: fileID,
		Op:     domain.AnalysisOperation(kind),
		Force:  force,
		Compute: func(ctx context.Context, file *domain.FileRecord) (json.RawMessage, error) {
			ds, err := parseStoredFile(ctx, s.validator, file)
			if err != nil {
				return nil, err
			}
			return s.engine.Run(ctx, kind, ds)
		},
		Persist: func(ctx context.Context, payload json.RawMessage, computedAt time.Time) error {
			return s.results.UpsertAnalysis(ctx, &domain.AnalysisResult{
				FileID:     fileID,
				Kind:       kind,
				Metrics:    payload,
				ComputedAt: computedAt,
			})
		},
	})
}

// parseStoredFile parses an uploaded file into a dataset, mapping
// malformed content to a processing error the handler can render. The
// stored bytes are re-checked first: metadata can outlive the file
// when the upload directory is pruned out of band.
func parseStoredFile(ctx context.Context, v *validation.UploadValidator, file *domain.FileRecord) (*dataset.Dataset, error) {
	if v != nil {
		if err := v.ValidateStoredFile(file.StoragePath); err != nil {
			return nil, apierrors.FileSystemError("read", err)
		}
	}
	parser, err := dataset.ParserFor(dataset.Format(file.Format))
	if err != nil {
		return nil, apierrors.ErrUnsupportedFormat.WithDetails(file.Format)
	}
	ds, err := parser.Parse(ctx, file.StoragePath)
	if errors.Is(err, dataset.ErrMalformed) {
		return nil, apierrors.ProcessingError(err)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file.ID, err)
	}
	return ds, nil
}
