package models

// GenerateRequest is a raw generation request against the inference backend.
type GenerateRequest struct {
	Prompt     string         `json:"prompt"`
	Target     string         `json:"target,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// GenerateResponse is the shared response shape for all assist calls.
type GenerateResponse struct {
	Response   string `json:"response"`
	DurationMs int64  `json:"durationMs"`
	Cached     bool   `json:"cached"`
}

// AnalysisSummary holds the structured document-analysis data that the
// insights adapter turns into a prompt.
type AnalysisSummary struct {
	Production    string         `json:"production"`
	DocumentCount int            `json:"documentCount"`
	Categories    map[string]int `json:"categories,omitempty"`
	Flagged       []string       `json:"flagged,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}

// InsightsRequest wraps an analysis summary for the insights endpoint.
type InsightsRequest struct {
	Summary AnalysisSummary `json:"analysisSummary"`
}

// Gap describes a missing or incomplete item surfaced by document analysis.
type Gap struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"`
}

// RecommendationsContext carries production context for recommendation prompts.
type RecommendationsContext struct {
	Production string `json:"production,omitempty"`
	Phase      string `json:"phase,omitempty"`
}

// RecommendationsRequest is the input to the recommendations endpoint.
type RecommendationsRequest struct {
	Gaps    []Gap                  `json:"gaps"`
	Context RecommendationsContext `json:"context"`
}

// RecommendationsResponse carries the post-processed recommendation list.
type RecommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
	DurationMs      int64    `json:"durationMs"`
	Cached          bool     `json:"cached"`
}
