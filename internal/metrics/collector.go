package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// BufferSize is the fixed capacity of the sample buffer. Once exceeded the
// oldest samples are evicted first; eviction is strictly FIFO, never by value.
const BufferSize = 100

// Collector accumulates performance samples in a thread-safe manner.
//
// The buffer holds the most recent BufferSize samples in insertion order.
// The histogram is cumulative across the whole collection run so percentile
// stats are not limited to the buffer window.
type Collector struct {
	mu          sync.Mutex
	samples     []Sample
	hist        *hdrhistogram.Histogram
	recorded    int64
	minLoadTime float64
	maxLoadTime float64
	start       time.Time
	now         func() time.Time
}

// VitalStats aggregates the values of one named web vital currently buffered.
type VitalStats struct {
	Count int     `json:"count"`
	Last  float64 `json:"last"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Stats represents aggregated metrics at a point in time.
type Stats struct {
	TotalRecorded int64 `json:"total_recorded"`
	Buffered      int   `json:"buffered"`
	TimingSamples int   `json:"timing_samples"`
	VitalSamples  int   `json:"vital_samples"`

	AvgLoadTimeMs float64 `json:"avg_load_time_ms"`
	MinLoadTimeMs float64 `json:"min_load_time_ms"`
	MaxLoadTimeMs float64 `json:"max_load_time_ms"`
	P50LoadTimeMs float64 `json:"p50_load_time_ms"`
	P90LoadTimeMs float64 `json:"p90_load_time_ms"`
	P99LoadTimeMs float64 `json:"p99_load_time_ms"`

	Score         int                   `json:"score"`
	SamplesPerSec float64               `json:"samples_per_sec"`
	DurationMs    float64               `json:"duration_ms"`
	Vitals        map[string]VitalStats `json:"vitals,omitempty"`
}

// NewCollector creates a collector with an empty buffer.
func NewCollector() *Collector {
	// Track load times from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		samples: make([]Sample, 0, BufferSize),
		hist:    h,
		start:   time.Now(),
		now:     time.Now,
	}
}

// Start marks the beginning of the collection run for rate calculation.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.now()
}

// Record appends a timing sample stamped with the current time.
// memoryBytes may be nil when the reporting source cannot measure heap usage.
func (c *Collector) Record(loadTime, renderTime float64, memoryBytes *uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.push(Sample{
		Kind:        SampleKindTiming,
		LoadTime:    loadTime,
		RenderTime:  renderTime,
		MemoryBytes: memoryBytes,
		Timestamp:   c.now(),
	})

	if loadTime > 0 {
		us := int64(loadTime * 1000)
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}

	if c.minLoadTime == 0 || loadTime < c.minLoadTime {
		c.minLoadTime = loadTime
	}
	if loadTime > c.maxLoadTime {
		c.maxLoadTime = loadTime
	}
}

// RecordVital appends a named web-vital sample stamped with the current time.
// Vital samples share the buffer with timing samples but are excluded from
// load-time aggregates.
func (c *Collector) RecordVital(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.push(Sample{
		Kind:      SampleKindVital,
		Name:      name,
		Value:     value,
		Timestamp: c.now(),
	})
}

// push appends a sample and evicts from the front past BufferSize.
// Caller holds c.mu.
func (c *Collector) push(s Sample) {
	c.samples = append(c.samples, s)
	if len(c.samples) > BufferSize {
		excess := len(c.samples) - BufferSize
		c.samples = append(c.samples[:0], c.samples[excess:]...)
	}
	c.recorded++
}

// Samples returns a copy of the current buffer in insertion order.
// Mutating the returned slice does not affect collector state.
func (c *Collector) Samples() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// AverageLoadTime returns the arithmetic mean of LoadTime across the timing
// samples currently buffered. Vital samples do not participate. Returns 0
// when no timing samples are buffered.
func (c *Collector) AverageLoadTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.averageLoadTimeLocked()
}

func (c *Collector) averageLoadTimeLocked() float64 {
	var sum float64
	var n int
	for _, s := range c.samples {
		if s.IsTiming() {
			sum += s.LoadTime
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Clear empties the buffer and resets all cumulative aggregates.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples = c.samples[:0]
	c.hist.Reset()
	c.recorded = 0
	c.minLoadTime = 0
	c.maxLoadTime = 0
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		TotalRecorded: c.recorded,
		Buffered:      len(c.samples),
		AvgLoadTimeMs: c.averageLoadTimeLocked(),
		MinLoadTimeMs: c.minLoadTime,
		MaxLoadTimeMs: c.maxLoadTime,
	}

	vitals := map[string]VitalStats{}
	for _, s := range c.samples {
		if s.IsTiming() {
			stats.TimingSamples++
			continue
		}
		stats.VitalSamples++
		v := vitals[s.Name]
		if v.Count == 0 || s.Value < v.Min {
			v.Min = s.Value
		}
		if s.Value > v.Max {
			v.Max = s.Value
		}
		v.Mean = (v.Mean*float64(v.Count) + s.Value) / float64(v.Count+1)
		v.Count++
		v.Last = s.Value
		vitals[s.Name] = v
	}
	if len(vitals) > 0 {
		stats.Vitals = vitals
	}

	if c.hist.TotalCount() > 0 {
		stats.P50LoadTimeMs = float64(c.hist.ValueAtQuantile(50)) / 1000
		stats.P90LoadTimeMs = float64(c.hist.ValueAtQuantile(90)) / 1000
		stats.P99LoadTimeMs = float64(c.hist.ValueAtQuantile(99)) / 1000
	}

	stats.Score = scoreLocked(stats.TimingSamples, stats.AvgLoadTimeMs, vitals)

	stats.DurationMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 && c.recorded > 0 {
		stats.SamplesPerSec = float64(c.recorded) / elapsed.Seconds()
	}

	return stats
}

// Score derives the 0-100 performance score from the current buffer.
func (c *Collector) Score() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var timing int
	vitals := map[string]VitalStats{}
	for _, s := range c.samples {
		if s.IsTiming() {
			timing++
			continue
		}
		v := vitals[s.Name]
		v.Mean = (v.Mean*float64(v.Count) + s.Value) / float64(v.Count+1)
		v.Count++
		vitals[s.Name] = v
	}
	return scoreLocked(timing, c.averageLoadTimeLocked(), vitals)
}
