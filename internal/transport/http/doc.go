// Package http provides the HTTP transport layer for the financial
// analytics API.
//
// Handlers are thin adapters between chi routes and the service layer.
// Each handler owns a slog.Logger scoped with its name and delegates
// error rendering to the shared RFC 7807 error handler, so every failure
// leaves the server as an application/problem+json response with a
// trace_id extension.
//
// Route groups:
//
//	/api/v1/upload        file ingestion (multipart)
//	/api/v1/files         uploaded file management
//	/api/v1/analyze       analysis operations
//	/api/v1/analysis      per-file analysis shortcuts
//	/api/v1/predict       prediction operations
//	/api/v1/auth          token issuance (when a secret is configured)
//	/health               liveness, readiness and dependency checks
//	/metrics              Prometheus scrape endpoint
package http
