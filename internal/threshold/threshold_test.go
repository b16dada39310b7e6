package threshold

import (
	"testing"

	"github.com/torosent/pagepulse/internal/metrics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "valid p90 load time threshold",
			input: "page_load:p90 < 3000",
			want: Threshold{
				Metric:    "page_load",
				Aggregate: "p90",
				Operator:  "<",
				Value:     3000,
				Raw:       "page_load:p90 < 3000",
			},
			wantError: false,
		},
		{
			name:  "valid score threshold",
			input: "score:value >= 80",
			want: Threshold{
				Metric:    "score",
				Aggregate: "value",
				Operator:  ">=",
				Value:     80,
				Raw:       "score:value >= 80",
			},
			wantError: false,
		},
		{
			name:  "valid p99 load time with <=",
			input: "page_load:p99 <= 8000",
			want: Threshold{
				Metric:    "page_load",
				Aggregate: "p99",
				Operator:  "<=",
				Value:     8000,
				Raw:       "page_load:p99 <= 8000",
			},
			wantError: false,
		},
		{
			name:  "valid sample rate threshold with >",
			input: "samples:rate > 1",
			want: Threshold{
				Metric:    "samples",
				Aggregate: "rate",
				Operator:  ">",
				Value:     1,
				Raw:       "samples:rate > 1",
			},
			wantError: false,
		},
		{
			name:  "valid vital threshold",
			input: "vital_lcp:mean < 2500",
			want: Threshold{
				Metric:    "vital_lcp",
				Aggregate: "mean",
				Operator:  "<",
				Value:     2500,
				Raw:       "vital_lcp:mean < 2500",
			},
			wantError: false,
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
		{
			name:      "invalid format - missing operator",
			input:     "page_load:p90 3000",
			wantError: true,
		},
		{
			name:      "invalid metric",
			input:     "invalid:p90 < 3000",
			wantError: true,
		},
		{
			name:      "invalid aggregate",
			input:     "page_load:p85 < 3000",
			wantError: true,
		},
		{
			name:      "invalid operator",
			input:     "page_load:p90 << 3000",
			wantError: true,
		},
		{
			name:      "invalid value - not a number",
			input:     "page_load:p90 < abc",
			wantError: true,
		},
		{
			name:      "bare vital prefix",
			input:     "vital_:mean < 10",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("Parse() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError {
				if got.Metric != tt.want.Metric {
					t.Errorf("Parse() Metric = %v, want %v", got.Metric, tt.want.Metric)
				}
				if got.Aggregate != tt.want.Aggregate {
					t.Errorf("Parse() Aggregate = %v, want %v", got.Aggregate, tt.want.Aggregate)
				}
				if got.Operator != tt.want.Operator {
					t.Errorf("Parse() Operator = %v, want %v", got.Operator, tt.want.Operator)
				}
				if got.Value != tt.want.Value {
					t.Errorf("Parse() Value = %v, want %v", got.Value, tt.want.Value)
				}
				if got.Raw != tt.want.Raw {
					t.Errorf("Parse() Raw = %v, want %v", got.Raw, tt.want.Raw)
				}
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		wantCount int
		wantError bool
	}{
		{
			name: "multiple valid thresholds",
			input: []string{
				"page_load:p90 < 3000",
				"score:value >= 80",
				"samples:rate > 1",
			},
			wantCount: 3,
			wantError: false,
		},
		{
			name:      "empty slice",
			input:     []string{},
			wantCount: 0,
			wantError: false,
		},
		{
			name: "one valid, one invalid",
			input: []string{
				"page_load:p90 < 3000",
				"invalid threshold",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMultiple(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseMultiple() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && len(got) != tt.wantCount {
				t.Errorf("ParseMultiple() returned %d thresholds, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestEvaluator(t *testing.T) {
	stats := metrics.Stats{
		TotalRecorded: 1000,
		Buffered:      100,
		TimingSamples: 90,
		VitalSamples:  10,
		AvgLoadTimeMs: 1800,
		MinLoadTimeMs: 400,
		MaxLoadTimeMs: 5200,
		P50LoadTimeMs: 1500,
		P90LoadTimeMs: 2800,
		P99LoadTimeMs: 4500,
		Score:         85,
		SamplesPerSec: 12.5,
		Vitals: map[string]metrics.VitalStats{
			"lcp": {Count: 10, Last: 2400, Min: 1800, Max: 3200, Mean: 2300},
		},
	}

	tests := []struct {
		name       string
		thresholds []string
		wantPass   []bool
	}{
		{
			name: "all thresholds pass",
			thresholds: []string{
				"page_load:p99 < 5000",
				"score:value >= 80",
				"samples:rate > 5",
			},
			wantPass: []bool{true, true, true},
		},
		{
			name: "some thresholds fail",
			thresholds: []string{
				"page_load:p99 < 3000",
				"score:value >= 90",
				"samples:rate > 5",
			},
			wantPass: []bool{false, false, true},
		},
		{
			name: "load time percentiles",
			thresholds: []string{
				"page_load:p50 < 2000",
				"page_load:p90 < 3000",
				"page_load:p99 < 5000",
			},
			wantPass: []bool{true, true, true},
		},
		{
			name: "avg and max load time",
			thresholds: []string{
				"page_load:avg < 2500",
				"page_load:max < 6000",
				"page_load:min > 100",
			},
			wantPass: []bool{true, true, true},
		},
		{
			name: "sample count",
			thresholds: []string{
				"samples:count > 900",
			},
			wantPass: []bool{true},
		},
		{
			name: "vital aggregates",
			thresholds: []string{
				"vital_lcp:mean < 2500",
				"vital_lcp:max < 3000",
				"vital_lcp:count >= 10",
			},
			wantPass: []bool{true, false, true},
		},
		{
			name: "vital with no samples fails",
			thresholds: []string{
				"vital_cls:mean < 0.1",
			},
			wantPass: []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := ParseMultiple(tt.thresholds)
			if err != nil {
				t.Fatalf("ParseMultiple() error = %v", err)
			}

			evaluator := NewEvaluator(thresholds)
			results := evaluator.Evaluate(stats)

			if len(results) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.wantPass))
			}

			for i, result := range results {
				if result.Pass != tt.wantPass[i] {
					t.Errorf("threshold[%d] %q: got pass=%v, want %v (actual=%.2f)",
						i, result.Threshold.Raw, result.Pass, tt.wantPass[i], result.Actual)
				}
			}
		})
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than false", 100, "<", 50, false},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal true", 50, "<=", 100, true},
		{"less than or equal equal", 100, "<=", 100, true},
		{"less than or equal false", 150, "<=", 100, false},
		{"greater than true", 150, ">", 100, true},
		{"greater than false", 50, ">", 100, false},
		{"greater than equal", 100, ">", 100, false},
		{"greater than or equal true", 150, ">=", 100, true},
		{"greater than or equal equal", 100, ">=", 100, true},
		{"greater than or equal false", 50, ">=", 100, false},
		{"equal true", 100, "==", 100, true},
		{"equal false", 100, "==", 101, false},
		{"equal with floating point precision", 100.0000000001, "==", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.actual, tt.operator, tt.expected)
			if got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}

func TestExtractMetricValue(t *testing.T) {
	stats := metrics.Stats{
		TotalRecorded: 1000,
		AvgLoadTimeMs: 1800.75,
		MinLoadTimeMs: 410.5,
		MaxLoadTimeMs: 5200.25,
		P50LoadTimeMs: 1500.5,
		P90LoadTimeMs: 2800.25,
		P99LoadTimeMs: 4500.5,
		Score:         85,
		SamplesPerSec: 123.45,
		Vitals: map[string]metrics.VitalStats{
			"cls": {Count: 4, Last: 0.05, Min: 0.02, Max: 0.09, Mean: 0.055},
		},
	}

	tests := []struct {
		name      string
		threshold Threshold
		want      float64
		wantError bool
	}{
		{
			name:      "page_load p50",
			threshold: Threshold{Metric: "page_load", Aggregate: "p50"},
			want:      1500.5,
		},
		{
			name:      "page_load p90",
			threshold: Threshold{Metric: "page_load", Aggregate: "p90"},
			want:      2800.25,
		},
		{
			name:      "page_load p95 approximated",
			threshold: Threshold{Metric: "page_load", Aggregate: "p95"},
			want:      (2800.25 + 4500.5) / 2,
		},
		{
			name:      "page_load avg",
			threshold: Threshold{Metric: "page_load", Aggregate: "avg"},
			want:      1800.75,
		},
		{
			name:      "page_load min",
			threshold: Threshold{Metric: "page_load", Aggregate: "min"},
			want:      410.5,
		},
		{
			name:      "page_load max",
			threshold: Threshold{Metric: "page_load", Aggregate: "max"},
			want:      5200.25,
		},
		{
			name:      "score value",
			threshold: Threshold{Metric: "score", Aggregate: "value"},
			want:      85,
		},
		{
			name:      "samples rate",
			threshold: Threshold{Metric: "samples", Aggregate: "rate"},
			want:      123.45,
		},
		{
			name:      "samples count",
			threshold: Threshold{Metric: "samples", Aggregate: "count"},
			want:      1000,
		},
		{
			name:      "vital mean",
			threshold: Threshold{Metric: "vital_cls", Aggregate: "mean"},
			want:      0.055,
		},
		{
			name:      "vital count",
			threshold: Threshold{Metric: "vital_cls", Aggregate: "count"},
			want:      4,
		},
		{
			name:      "unsupported metric",
			threshold: Threshold{Metric: "invalid_metric", Aggregate: "p90"},
			wantError: true,
		},
		{
			name:      "unsupported aggregate for metric",
			threshold: Threshold{Metric: "samples", Aggregate: "p90"},
			wantError: true,
		},
		{
			name:      "unknown vital",
			threshold: Threshold{Metric: "vital_inp", Aggregate: "mean"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractMetricValue(tt.threshold, stats)
			if (err != nil) != tt.wantError {
				t.Errorf("extractMetricValue() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("extractMetricValue() = %v, want %v", got, tt.want)
			}
		})
	}
}
