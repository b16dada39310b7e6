package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/torosent/pagepulse/internal/metrics"
)

func sampleStats() metrics.Stats {
	collector := metrics.NewCollector()
	collector.Start()
	collector.Record(1200, 300, nil)
	collector.Record(1800, 450, nil)
	collector.RecordVital("lcp", 2100)
	collector.RecordVital("cls", 0.08)
	return collector.Stats(10 * time.Second)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleStats())

	output := buf.String()
	for _, want := range []string{
		"Page Performance Results",
		"Beacons Recorded:  4",
		"Timing Samples:    2",
		"Vital Samples:     2",
		"Performance Score:",
		"Avg:             1500.00ms",
		"Web Vitals:",
		"LCP",
		"CLS",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected report to contain %q\ngot:\n%s", want, output)
		}
	}
}

func TestPrintReportWithoutVitals(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()
	collector.Record(900, 200, nil)

	var buf bytes.Buffer
	PrintReport(&buf, collector.Stats(time.Second))

	if strings.Contains(buf.String(), "Web Vitals:") {
		t.Error("vitals section should be omitted when no vitals recorded")
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleStats()); err != nil {
		t.Fatalf("PrintJSONReport failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["total_recorded"].(float64) != 4 {
		t.Errorf("unexpected total_recorded %v", decoded["total_recorded"])
	}
	if _, ok := decoded["avg_load_time_ms"]; !ok {
		t.Error("expected avg_load_time_ms field")
	}
	if _, ok := decoded["vitals"]; !ok {
		t.Error("expected vitals field")
	}
}

func TestFormatVital(t *testing.T) {
	if got := formatVital(0.083); got != "0.083" {
		t.Errorf("formatVital(0.083) = %s", got)
	}
	if got := formatVital(2100); got != "2100.00ms" {
		t.Errorf("formatVital(2100) = %s", got)
	}
}
