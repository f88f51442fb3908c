// Package services implements the business logic layer of the API.
// It provides a clean separation between HTTP handlers and data access,
// ensuring that business rules are centralized and testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// # Available Services
//
// The package provides these core services:
//
//	- UploadService: Stores uploaded files and their metadata
//	- AnalysisService: Runs analysis operations through the pipeline
//	- PredictionService: Runs prediction operations through the pipeline
//	- HealthService: Provides composite system health checks
//
// # Error Handling
//
// Services return *errors.APIError values that handlers render as
// problem+json directly:
//
//	- Validation errors for invalid input
//	- Not found errors for missing resources
//	- Processing errors for unparseable content
//	- Internal errors for unexpected failures
package services
