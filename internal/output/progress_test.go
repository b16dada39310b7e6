package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torosent/pagepulse/internal/metrics"
)

func TestProgressReporterBasic(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()

	for i := 0; i < 5; i++ {
		collector.Record(800, 200, nil)
	}

	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 100*time.Millisecond, &buf)

	if reporter == nil {
		t.Fatal("Expected non-nil reporter")
	}

	reporter.Stop()
}

func TestProgressReporterFormatting(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()

	collector.Record(1200, 300, nil)
	collector.RecordVital("lcp", 2100)

	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 50*time.Millisecond, &buf)
	reporter.Start()

	time.Sleep(120 * time.Millisecond)
	reporter.Stop()

	output := buf.String()
	if !strings.Contains(output, "Beacons:") {
		t.Error("Expected 'Beacons:' in progress output")
	}
	if !strings.Contains(output, "Score:") {
		t.Error("Expected 'Score:' in progress output")
	}
	if !strings.Contains(output, "lcp") {
		t.Error("Expected vital snapshot in progress output")
	}
}

func TestProgressReporterStartTwice(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()

	var buf bytes.Buffer
	reporter := NewProgressReporter(collector, 50*time.Millisecond, &buf)
	reporter.Start()
	reporter.Start()
	reporter.Stop()
}

func TestWorstVitalSnapshot(t *testing.T) {
	stats := metrics.Stats{
		Vitals: map[string]metrics.VitalStats{
			"lcp": {Count: 3, Mean: 2100},
			"cls": {Count: 5, Mean: 0.05},
		},
	}

	name, vital, ok := worstVitalSnapshot(stats)
	if !ok {
		t.Fatal("expected a vital snapshot")
	}
	if name != "cls" || vital.Count != 5 {
		t.Errorf("expected cls with 5 samples, got %s with %d", name, vital.Count)
	}

	if _, _, ok := worstVitalSnapshot(metrics.Stats{}); ok {
		t.Error("expected no snapshot for empty vitals")
	}
}
