package models

import "time"

// Request kinds recorded by the tracker.
const (
	KindGenerate        = "generate"
	KindInsights        = "insights"
	KindRecommendations = "recommendations"
)

// Request outcomes recorded by the tracker.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// RequestRecord is one completed assist request as stored in the request log.
type RequestRecord struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Target        string    `json:"target"`
	PromptChars   int       `json:"prompt_chars"`
	ResponseChars int       `json:"response_chars"`
	DurationMs    int64     `json:"duration_ms"`
	Cached        bool      `json:"cached"`
	Outcome       string    `json:"outcome"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RequestSummary aggregates the request log per kind.
type RequestSummary struct {
	Kind          string `json:"kind"`
	Requests      int64  `json:"requests"`
	CacheHits     int64  `json:"cache_hits"`
	Errors        int64  `json:"errors"`
	Timeouts      int64  `json:"timeouts"`
	AvgDurationMs int64  `json:"avg_duration_ms"`
}
