package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "finsight/internal/errors"
	"finsight/internal/middleware"
	"finsight/internal/services"
	api "finsight/pkg/contracts/api/v1"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing.
// Larger parts spill to temporary files.
const maxMultipartMemory = 8 << 20

// UploadHandler handles file upload and file management requests
type UploadHandler struct {
	service      *services.UploadService
	queryParams  *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service *services.UploadService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *UploadHandler {
	return &UploadHandler{
		service:      service,
		queryParams:  middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("handler", "upload")),
		errorHandler: errorHandler,
	}
}

// Upload handles POST /api/v1/upload. The file travels as the "file"
// part of a multipart form.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Bound the whole request body so an oversized or lying client is cut
	// off during the read, not after a full spool to disk. The slack over
	// the file limit covers multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxUploadBytes()+maxMultipartMemory)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrFileTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusBadRequest,
			"INVALID_MULTIPART",
			"Request body must be multipart/form-data with a file part",
		))
		return
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Missing file part in upload"))
		return
	}
	defer part.Close()

	record, err := h.service.Upload(ctx, header.Filename, header.Size, part)
	if err != nil {
		h.logger.ErrorContext(ctx, "upload failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "file uploaded",
		slog.String("file_id", record.ID),
		slog.String("filename", record.OriginalName),
		slog.Int64("size_bytes", record.SizeBytes),
	)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.UploadResponse{
		FileID:   record.ID,
		Filename: record.OriginalName,
		Status:   "uploaded",
		FileType: record.Format,
		FileSize: record.SizeBytes,
	})
}

// List handles GET /api/v1/files with limit/offset pagination
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryParams.ValidateInt(w, r, "limit", 1, 200, 50)
	if !ok {
		return
	}
	offset, ok := h.queryParams.ValidateInt(w, r, "offset", 0, 1<<30, 0)
	if !ok {
		return
	}

	files, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   files,
		"count":  len(files),
		"total":  total,
	})
}

// Get handles GET /api/v1/files/{file_id}
func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "file_id")

	record, err := h.service.Get(r.Context(), fileID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   record,
	})
}

// Delete handles DELETE /api/v1/files/{file_id}. Removal covers the
// stored content, the database record and every cached result.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileID := chi.URLParam(r, "file_id")

	if err := h.service.Delete(ctx, fileID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "file deleted", slog.String("file_id", fileID))

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"file_id": fileID,
		"state":   "deleted",
	})
}
