// Package api contains API contract definitions for the financial analytics
// service. Version v1 represents the current stable API version.
package api

// AnalyzeRequest represents a request to run an analysis over a file
type AnalyzeRequest struct {
	FileID       string `json:"file_id" validate:"required,uuid"`
	AnalysisType string `json:"analysis_type" validate:"omitempty,oneof=descriptive quality sentiment topics summary"`
	Force        bool   `json:"force"`
}

// PredictRequest represents a request to run a prediction over a file
type PredictRequest struct {
	FileID         string `json:"file_id" validate:"required,uuid"`
	PredictionType string `json:"prediction_type" validate:"omitempty,oneof=risk trend anomaly"`
	Force          bool   `json:"force"`
}

// TokenRequest represents a request for an API access token
type TokenRequest struct {
	Subject string `json:"subject" validate:"required,min=2,max=64"`
}

// TokenResponse represents an issued access token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// UploadResponse represents a successful file upload
type UploadResponse struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// OperationResponse wraps a pipeline result with its cache disposition
type OperationResponse struct {
	Status string      `json:"status"`
	FileID string      `json:"file_id"`
	Kind   string      `json:"kind"`
	Cached bool        `json:"cached"`
	Data   interface{} `json:"data"`
}
