package ingest_test

import (
	"testing"

	"github.com/torosent/pagepulse/internal/ingest"
)

func TestParseBeaconTiming(t *testing.T) {
	body := []byte(`{
		"url": "https://example.com/checkout",
		"load_time_ms": 1240.5,
		"render_time_ms": 380.2,
		"memory_bytes": 33554432
	}`)

	b, err := ingest.ParseBeacon(body)
	if err != nil {
		t.Fatalf("ParseBeacon failed: %v", err)
	}
	if !b.HasTiming {
		t.Error("expected HasTiming")
	}
	if b.URL != "https://example.com/checkout" {
		t.Errorf("unexpected URL %q", b.URL)
	}
	if b.LoadTime != 1240.5 {
		t.Errorf("expected load time 1240.5, got %v", b.LoadTime)
	}
	if b.RenderTime != 380.2 {
		t.Errorf("expected render time 380.2, got %v", b.RenderTime)
	}
	if b.MemoryBytes == nil || *b.MemoryBytes != 33554432 {
		t.Errorf("expected memory bytes 33554432, got %v", b.MemoryBytes)
	}
}

func TestParseBeaconWithoutMemory(t *testing.T) {
	b, err := ingest.ParseBeacon([]byte(`{"load_time_ms": 900}`))
	if err != nil {
		t.Fatalf("ParseBeacon failed: %v", err)
	}
	if b.MemoryBytes != nil {
		t.Errorf("expected nil memory bytes, got %v", *b.MemoryBytes)
	}
	if b.RenderTime != 0 {
		t.Errorf("expected zero render time, got %v", b.RenderTime)
	}
}

func TestParseBeaconVitalsArray(t *testing.T) {
	body := []byte(`{"vitals": [{"name": "lcp", "value": 2100}, {"name": "cls", "value": 0.08}]}`)

	b, err := ingest.ParseBeacon(body)
	if err != nil {
		t.Fatalf("ParseBeacon failed: %v", err)
	}
	if b.HasTiming {
		t.Error("expected no timing data")
	}
	if len(b.Vitals) != 2 {
		t.Fatalf("expected 2 vitals, got %d", len(b.Vitals))
	}
	if b.Vitals[0].Name != "lcp" || b.Vitals[0].Value != 2100 {
		t.Errorf("unexpected first vital %+v", b.Vitals[0])
	}
	if b.Vitals[1].Name != "cls" || b.Vitals[1].Value != 0.08 {
		t.Errorf("unexpected second vital %+v", b.Vitals[1])
	}
}

func TestParseBeaconVitalsObject(t *testing.T) {
	b, err := ingest.ParseBeacon([]byte(`{"vitals": {"fcp": 1500, "ttfb": 420}}`))
	if err != nil {
		t.Fatalf("ParseBeacon failed: %v", err)
	}
	if len(b.Vitals) != 2 {
		t.Fatalf("expected 2 vitals, got %d", len(b.Vitals))
	}
	got := map[string]float64{}
	for _, v := range b.Vitals {
		got[v.Name] = v.Value
	}
	if got["fcp"] != 1500 || got["ttfb"] != 420 {
		t.Errorf("unexpected vitals %v", got)
	}
}

func TestParseBeaconSkipsMalformedVitalEntries(t *testing.T) {
	body := []byte(`{"vitals": [{"name": "lcp", "value": 2100}, {"value": 5}, {"name": "inp"}]}`)

	b, err := ingest.ParseBeacon(body)
	if err != nil {
		t.Fatalf("ParseBeacon failed: %v", err)
	}
	if len(b.Vitals) != 1 {
		t.Fatalf("expected 1 vital, got %d", len(b.Vitals))
	}
}

func TestParseBeaconInvalidJSON(t *testing.T) {
	if _, err := ingest.ParseBeacon([]byte(`{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseBeaconEmptyPayload(t *testing.T) {
	if _, err := ingest.ParseBeacon([]byte(`{"url": "https://example.com"}`)); err == nil {
		t.Error("expected error for payload with neither timing nor vitals")
	}
}
