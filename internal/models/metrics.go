package models

import "time"

// SystemMetrics is the JSON snapshot of instrumentation counters.
type SystemMetrics struct {
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	SolverRuns               uint64            `json:"solver_runs"`
	SolverOutcomes           map[string]uint64 `json:"solver_outcomes"`
	AverageSolveDurationMs   float64           `json:"average_solve_duration_ms"`
	NodesVisited             uint64            `json:"nodes_visited"`
	StoredSchedules          int               `json:"stored_schedules"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
