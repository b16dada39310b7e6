package metrics

import (
	"sync"
	"time"
)

// DataPoint is one periodic snapshot of the collector, used for
// time-series charts in reports.
type DataPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	AvgLoadTimeMs float64   `json:"avg_load_time_ms"`
	P50LoadTimeMs float64   `json:"p50_load_time_ms"`
	P90LoadTimeMs float64   `json:"p90_load_time_ms"`
	P99LoadTimeMs float64   `json:"p99_load_time_ms"`
	Score         int       `json:"score"`
	SamplesPerSec float64   `json:"samples_per_sec"`
}

// History accumulates periodic collector snapshots.
type History struct {
	mu     sync.Mutex
	points []DataPoint
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Append records a snapshot taken from the given stats.
func (h *History) Append(stats Stats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.points = append(h.points, DataPoint{
		Timestamp:     time.Now(),
		AvgLoadTimeMs: stats.AvgLoadTimeMs,
		P50LoadTimeMs: stats.P50LoadTimeMs,
		P90LoadTimeMs: stats.P90LoadTimeMs,
		P99LoadTimeMs: stats.P99LoadTimeMs,
		Score:         stats.Score,
		SamplesPerSec: stats.SamplesPerSec,
	})
}

// Snapshot returns a copy of the recorded points.
func (h *History) Snapshot() []DataPoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DataPoint(nil), h.points...)
}
