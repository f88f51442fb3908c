package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "finsight/internal/errors"
	"finsight/internal/middleware"
	"finsight/internal/pipeline"
	"finsight/internal/services"
	api "finsight/pkg/contracts/api/v1"
	"finsight/pkg/contracts/domain"
)

// AnalysisHandler handles analysis operation requests
type AnalysisHandler struct {
	service      *services.AnalysisService
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *services.AnalysisService, validator *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "analysis")),
		errorHandler: errorHandler,
	}
}

// Analyze handles POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	kind := domain.AnalysisKind(req.AnalysisType)
	if req.AnalysisType == "" {
		kind = domain.AnalysisDescriptive
	}

	h.run(w, r, req.FileID, kind, req.Force)
}

// GetDefault handles GET /api/v1/analysis/{file_id}. Without a type
// parameter it returns the descriptive analysis.
func (h *AnalysisHandler) GetDefault(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	h.run(w, r, chi.URLParam(r, "file_id"), kind, false)
}

// Refresh handles POST /api/v1/analysis/{file_id}. It recomputes the
// result even when a cached entry exists.
func (h *AnalysisHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	h.run(w, r, chi.URLParam(r, "file_id"), kind, true)
}

// Summary handles GET /api/v1/analysis/{file_id}/summary
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, chi.URLParam(r, "file_id"), domain.AnalysisSummary, false)
}

// kindParam reads the optional "type" query parameter, defaulting to
// the descriptive analysis.
func (h *AnalysisHandler) kindParam(w http.ResponseWriter, r *http.Request) (domain.AnalysisKind, bool) {
	value := r.URL.Query().Get("type")
	if value == "" {
		return domain.AnalysisDescriptive, true
	}

	kind := domain.AnalysisKind(value)
	if !kind.Valid() {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("type", "Unknown analysis type: "+value))
		return "", false
	}
	return kind, true
}

func (h *AnalysisHandler) run(w http.ResponseWriter, r *http.Request, fileID string, kind domain.AnalysisKind, force bool) {
	ctx := r.Context()

	result, err := h.service.Run(ctx, fileID, kind, force)
	if err != nil {
		h.logger.ErrorContext(ctx, "analysis failed",
			slog.String("file_id", fileID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	renderOperation(w, r, fileID, string(kind), result)
}

// renderOperation writes the shared success envelope for pipeline results
func renderOperation(w http.ResponseWriter, r *http.Request, fileID, kind string, result *pipeline.StageResult) {
	render.JSON(w, r, api.OperationResponse{
		Status: "success",
		FileID: fileID,
		Kind:   kind,
		Cached: result.Cached,
		Data:   result.Payload,
	})
}
