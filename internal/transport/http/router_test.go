package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/analysis"
	"finsight/internal/cache"
	apierrors "finsight/internal/errors"
	"finsight/internal/middleware"
	"finsight/internal/pipeline"
	"finsight/internal/prediction"
	"finsight/internal/services"
	"finsight/internal/store"
	"finsight/internal/validation"
	api "finsight/pkg/contracts/api/v1"
	"finsight/pkg/contracts/domain"
)

type memFiles struct {
	records map[string]*domain.FileRecord
}

func newMemFiles() *memFiles {
	return &memFiles{records: make(map[string]*domain.FileRecord)}
}

func (m *memFiles) Insert(_ context.Context, file *domain.FileRecord) error {
	m.records[file.ID] = file
	return nil
}

func (m *memFiles) Get(_ context.Context, id string) (*domain.FileRecord, error) {
	if rec, ok := m.records[id]; ok {
		return rec, nil
	}
	return nil, store.ErrNotFound
}

func (m *memFiles) List(_ context.Context, limit, offset int) ([]*domain.FileRecord, error) {
	var out []*domain.FileRecord
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memFiles) Count(_ context.Context) (int, error) {
	return len(m.records), nil
}

func (m *memFiles) Delete(_ context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

type memResults struct {
	analyses    []*domain.AnalysisResult
	predictions []*domain.PredictionResult
}

func (m *memResults) UpsertAnalysis(_ context.Context, res *domain.AnalysisResult) error {
	m.analyses = append(m.analyses, res)
	return nil
}

func (m *memResults) UpsertPrediction(_ context.Context, res *domain.PredictionResult) error {
	m.predictions = append(m.predictions, res)
	return nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

// newTestRouter wires real services over in-memory stores behind the
// full router. secret enables bearer token authentication.
func newTestRouter(t *testing.T, secret string) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidationMiddleware(logger, errorHandler)

	files := newMemFiles()
	results := &memResults{}

	c := cache.NewMemoryCache(100)
	t.Cleanup(func() { c.Close() })
	stage := pipeline.NewStage(files, c, time.Minute, logger)

	uploadValidator := validation.NewUploadValidator(logger, []string{".csv", ".tsv", ".xlsx", ".pdf", ".txt"}, 1<<20)
	uploadSvc := services.NewUploadService(files, uploadValidator, stage, t.TempDir(), logger)
	analysisSvc := services.NewAnalysisService(stage, analysis.NewEngine(logger), results, uploadValidator, logger)
	predictionSvc := services.NewPredictionService(stage, prediction.NewEngine(logger, nil), results, uploadValidator, logger)
	healthSvc := services.NewHealthService("test", okPinger{}, c, t.TempDir(), false, nil, logger)

	tokenAuth := middleware.NewTokenAuthenticator(secret, time.Minute, logger)

	return NewRouter(RouterConfig{
		Upload:       NewUploadHandler(uploadSvc, logger, errorHandler),
		Analysis:     NewAnalysisHandler(analysisSvc, validator, logger, errorHandler),
		Prediction:   NewPredictionHandler(predictionSvc, validator, logger, errorHandler),
		Auth:         NewAuthHandler(tokenAuth, validator, logger, errorHandler),
		Health:       NewHealthHandler(healthSvc, logger),
		TokenAuth:    tokenAuth,
		Logger:       logger,
		ErrorHandler: errorHandler,

		RequestTimeout: 5 * time.Second,
	})
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadFile(t *testing.T, router http.Handler, filename, content string) api.UploadResponse {
	t.Helper()
	body, contentType := multipartUpload(t, filename, content)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func postJSON(router http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterUploadAndFileManagement(t *testing.T) {
	router := newTestRouter(t, "")

	resp := uploadFile(t, router, "sales.csv", "Revenue,Region\n100,North\n200,South\n")
	assert.Equal(t, "uploaded", resp.Status)
	assert.Equal(t, "csv", resp.FileType)
	assert.Equal(t, "sales.csv", resp.Filename)
	require.NotEmpty(t, resp.FileID)

	t.Run("get file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+resp.FileID, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), resp.FileID)
	})

	t.Run("list files", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files?limit=10", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var listing struct {
			Status string            `json:"status"`
			Count  int               `json:"count"`
			Total  int               `json:"total"`
			Data   []json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
		assert.Equal(t, "success", listing.Status)
		assert.Equal(t, 1, listing.Count)
		assert.Equal(t, 1, listing.Total)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files?limit=nope", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	})

	t.Run("oversized upload", func(t *testing.T) {
		body, contentType := multipartUpload(t, "big.txt", strings.Repeat("x", 1<<20+1))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
		req.Header.Set("Content-Type", contentType)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE_TOO_LARGE")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		body, contentType := multipartUpload(t, "malware.exe", "nope")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
		req.Header.Set("Content-Type", contentType)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("delete file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/files/"+resp.FileID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files/"+resp.FileID, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouterAnalyze(t *testing.T) {
	router := newTestRouter(t, "")
	resp := uploadFile(t, router, "sales.csv", "Revenue,Region\n100,North\n200,South\n")

	rec := postJSON(router, "/api/v1/analyze", api.AnalyzeRequest{
		FileID:       resp.FileID,
		AnalysisType: "descriptive",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var op api.OperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
	assert.Equal(t, "success", op.Status)
	assert.Equal(t, "descriptive", op.Kind)
	assert.False(t, op.Cached)

	// second run hits the cache
	rec = postJSON(router, "/api/v1/analyze", api.AnalyzeRequest{
		FileID:       resp.FileID,
		AnalysisType: "descriptive",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
	assert.True(t, op.Cached)

	t.Run("get default analysis", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+resp.FileID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var op api.OperationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
		assert.Equal(t, "descriptive", op.Kind)
		assert.True(t, op.Cached, "descriptive result was already computed")
	})

	t.Run("typed analysis", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+resp.FileID+"?type=quality", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var op api.OperationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
		assert.Equal(t, "quality", op.Kind)
	})

	t.Run("unknown type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+resp.FileID+"?type=vibes", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("force recompute", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/"+resp.FileID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var op api.OperationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
		assert.False(t, op.Cached, "forced runs always recompute")
	})

	t.Run("summary", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+resp.FileID+"/summary", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var op api.OperationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
		assert.Equal(t, "summary", op.Kind)
	})

	t.Run("unknown file", func(t *testing.T) {
		rec := postJSON(router, "/api/v1/analyze", api.AnalyzeRequest{FileID: uuid.NewString()})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "FILE_NOT_FOUND")
	})

	t.Run("invalid file id", func(t *testing.T) {
		rec := postJSON(router, "/api/v1/analyze", api.AnalyzeRequest{FileID: "not-a-uuid"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("{nope"))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouterPredict(t *testing.T) {
	router := newTestRouter(t, "")
	resp := uploadFile(t, router, "fin.csv", "Revenue\n1000\n900\n500\n")

	rec := postJSON(router, "/api/v1/predict", api.PredictRequest{
		FileID:         resp.FileID,
		PredictionType: "risk",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var op api.OperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
	assert.Equal(t, "risk", op.Kind)
	assert.False(t, op.Cached)

	t.Run("default kind", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/"+resp.FileID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var op api.OperationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
		assert.Equal(t, "risk", op.Kind)
		assert.True(t, op.Cached, "risk was already computed")
	})

	t.Run("force", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/"+resp.FileID+"/force?type=trend", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var op api.OperationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &op))
		assert.Equal(t, "trend", op.Kind)
		assert.False(t, op.Cached)
	})

	t.Run("summary", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/predict/"+resp.FileID+"/summary", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Status string                     `json:"status"`
			Data   services.PredictionSummary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "High", body.Data.RiskLevel)
	})
}

func TestRouterAuth(t *testing.T) {
	router := newTestRouter(t, "test-secret")

	t.Run("api requires token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("health stays open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	rec := postJSON(router, "/api/v1/auth/token", api.TokenRequest{Subject: "analyst"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token api.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, "Bearer", token.TokenType)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, 60, token.ExpiresIn)

	t.Run("token grants access", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouterAuthDisabled(t *testing.T) {
	router := newTestRouter(t, "")

	rec := postJSON(router, "/api/v1/auth/token", api.TokenRequest{Subject: "analyst"})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRouterOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t, "")

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var health services.HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "test", health.Version)
	})

	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("live", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("version", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "test")
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "/errors/not-found")
	})

	t.Run("request id echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
		req.Header.Set("X-Request-ID", "req-123")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})
}
