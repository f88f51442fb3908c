package domain

import "fmt"

// AnalysisKind enumerates the analysis operations the service can run over
// an uploaded file. The set is closed; handlers reject anything else before
// it reaches the pipeline.
type AnalysisKind string

const (
	AnalysisDescriptive AnalysisKind = "descriptive"
	AnalysisQuality     AnalysisKind = "quality"
	AnalysisSentiment   AnalysisKind = "sentiment"
	AnalysisTopics      AnalysisKind = "topics"
	AnalysisSummary     AnalysisKind = "summary"
)

// AnalysisKinds returns the closed set of analysis kinds.
func AnalysisKinds() []AnalysisKind {
	return []AnalysisKind{
		AnalysisDescriptive, AnalysisQuality, AnalysisSentiment,
		AnalysisTopics, AnalysisSummary,
	}
}

// Valid reports whether the kind is a member of the closed set.
func (k AnalysisKind) Valid() bool {
	switch k {
	case AnalysisDescriptive, AnalysisQuality, AnalysisSentiment, AnalysisTopics, AnalysisSummary:
		return true
	}
	return false
}

// PredictionKind enumerates the prediction operations.
type PredictionKind string

const (
	PredictionRisk    PredictionKind = "risk"
	PredictionTrend   PredictionKind = "trend"
	PredictionAnomaly PredictionKind = "anomaly"
)

// PredictionKinds returns the closed set of prediction kinds.
func PredictionKinds() []PredictionKind {
	return []PredictionKind{PredictionRisk, PredictionTrend, PredictionAnomaly}
}

// Valid reports whether the kind is a member of the closed set.
func (k PredictionKind) Valid() bool {
	switch k {
	case PredictionRisk, PredictionTrend, PredictionAnomaly:
		return true
	}
	return false
}

// OperationKind identifies one cacheable computation: an operation group
// (analysis or prediction) plus the kind within it. Group and name both
// appear in the cache key, so analysis and prediction kinds sharing a
// file id can never collide.
type OperationKind struct {
	Group string `json:"group"`
	Name  string `json:"name"`
}

// AnalysisOperation builds the operation kind for an analysis run.
func AnalysisOperation(k AnalysisKind) OperationKind {
	return OperationKind{Group: "analysis", Name: string(k)}
}

// PredictionOperation builds the operation kind for a prediction run.
func PredictionOperation(k PredictionKind) OperationKind {
	return OperationKind{Group: "prediction", Name: string(k)}
}

// String returns the canonical "group:name" form.
func (o OperationKind) String() string {
	return fmt.Sprintf("%s:%s", o.Group, o.Name)
}

// CacheKey returns the cache key for this operation over a file. The
// file id leads so every result for one file shares a prefix.
func (o OperationKind) CacheKey(fileID string) string {
	return fmt.Sprintf("result:%s:%s:%s", fileID, o.Group, o.Name)
}

// FileCachePrefix is the common prefix of every cached result for a
// file, used for prefix invalidation.
func FileCachePrefix(fileID string) string {
	return fmt.Sprintf("result:%s:", fileID)
}
