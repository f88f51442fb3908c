package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "finsight/internal/errors"
	"finsight/internal/middleware"
	"finsight/internal/services"
	api "finsight/pkg/contracts/api/v1"
	"finsight/pkg/contracts/domain"
)

// PredictionHandler handles prediction operation requests
type PredictionHandler struct {
	service      *services.PredictionService
	validator    *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(service *services.PredictionService, validator *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PredictionHandler {
	return &PredictionHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("handler", "prediction")),
		errorHandler: errorHandler,
	}
}

// Predict handles POST /api/v1/predict
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req api.PredictRequest
	if !h.validator.DecodeAndValidate(w, r, &req) {
		return
	}

	kind := domain.PredictionKind(req.PredictionType)
	if req.PredictionType == "" {
		kind = domain.PredictionRisk
	}

	h.run(w, r, req.FileID, kind, req.Force)
}

// RunDefault handles POST /api/v1/predict/{file_id}. Without a type
// parameter it runs the risk prediction.
func (h *PredictionHandler) RunDefault(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	h.run(w, r, chi.URLParam(r, "file_id"), kind, false)
}

// Force handles POST /api/v1/predict/{file_id}/force, recomputing the
// prediction even when a cached entry exists.
func (h *PredictionHandler) Force(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	h.run(w, r, chi.URLParam(r, "file_id"), kind, true)
}

// Summary handles GET /api/v1/predict/{file_id}/summary
func (h *PredictionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID := chi.URLParam(r, "file_id")

	summary, err := h.service.Summary(ctx, fileID)
	if err != nil {
		h.logger.ErrorContext(ctx, "prediction summary failed",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// kindParam reads the optional "type" query parameter, defaulting to
// the risk prediction.
func (h *PredictionHandler) kindParam(w http.ResponseWriter, r *http.Request) (domain.PredictionKind, bool) {
	value := r.URL.Query().Get("type")
	if value == "" {
		return domain.PredictionRisk, true
	}

	kind := domain.PredictionKind(value)
	if !kind.Valid() {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("type", "Unknown prediction type: "+value))
		return "", false
	}
	return kind, true
}

func (h *PredictionHandler) run(w http.ResponseWriter, r *http.Request, fileID string, kind domain.PredictionKind, force bool) {
	ctx := r.Context()

	result, err := h.service.Run(ctx, fileID, kind, force)
	if err != nil {
		h.logger.ErrorContext(ctx, "prediction failed",
			slog.String("file_id", fileID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	renderOperation(w, r, fileID, string(kind), result)
}
