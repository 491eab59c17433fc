package models

// QueueStats is a point-in-time snapshot of broker state.
type QueueStats struct {
	QueueLength   int `json:"queueLength"`
	InFlightCount int `json:"inFlightCount"`
	MaxConcurrent int `json:"maxConcurrent"`
	CacheSize     int `json:"cacheSize"`
}

// TargetInfo describes one model available on the inference backend.
type TargetInfo struct {
	Name     string `json:"name"`
	SizeHint string `json:"sizeHint,omitempty"`
}

// StatusResponse reports backend liveness and broker load.
type StatusResponse struct {
	BackendAvailable bool         `json:"backendAvailable"`
	BackendEndpoint  string       `json:"backendEndpoint"`
	AvailableTargets []TargetInfo `json:"availableTargets"`
	Queue            QueueStats   `json:"queue"`
}

// CacheStats reports cache performance counters.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
