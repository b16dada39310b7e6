package output

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/torosent/pagepulse/internal/metrics"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(collector *metrics.Collector, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			elapsed := time.Since(p.start)
			stats := p.collector.Stats(elapsed)
			line := fmt.Sprintf("\rBeacons: %d | Avg Load: %.1fms | P90: %.1fms | Score: %d | Rate: %.1f/s",
				stats.TotalRecorded, stats.AvgLoadTimeMs, stats.P90LoadTimeMs, stats.Score, stats.SamplesPerSec)
			if name, vital, ok := worstVitalSnapshot(stats); ok {
				line += fmt.Sprintf(" | %s mean %.1f (n=%d)", name, vital.Mean, vital.Count)
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}

// worstVitalSnapshot picks the vital with the most samples, keeping the
// progress line to a single entry.
func worstVitalSnapshot(stats metrics.Stats) (string, metrics.VitalStats, bool) {
	if len(stats.Vitals) == 0 {
		return "", metrics.VitalStats{}, false
	}
	names := make([]string, 0, len(stats.Vitals))
	for name := range stats.Vitals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if stats.Vitals[names[i]].Count == stats.Vitals[names[j]].Count {
			return names[i] < names[j]
		}
		return stats.Vitals[names[i]].Count > stats.Vitals[names[j]].Count
	})
	name := names[0]
	return name, stats.Vitals[name], true
}
