package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/pagepulse/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "page_load", "score", "vital_lcp"
	Aggregate string  // e.g., "p90", "p99", "avg", "max", "rate"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against collected metrics.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided stats.
func (e *Evaluator) Evaluate(stats metrics.Stats) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		result := e.evaluateOne(t, stats)
		results = append(results, result)
	}
	return results
}

func (e *Evaluator) evaluateOne(t Threshold, stats metrics.Stats) Result {
	actual, err := extractMetricValue(t, stats)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "page_load:p90 < 3000"      (load time percentile in ms)
// - "page_load:avg < 2500"      (average load time in ms)
// - "page_load:max < 8000"      (max load time in ms)
// - "score:value >= 80"         (performance score 0-100)
// - "samples:count > 50"        (total recorded samples)
// - "samples:rate > 1"          (samples per second)
// - "vital_lcp:mean < 2500"     (mean of a named web vital)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	// Pattern: metric:aggregate operator value
	// e.g., "page_load:p90 < 3000"
	pattern := regexp.MustCompile(`^([a-z][a-z0-9_]*):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'page_load:p90 < 3000')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	// Validate metric
	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: page_load, score, samples, vital_<name>)", metric)
	}

	// Validate aggregate
	if !isValidAggregate(metric, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for metric %q", aggregate, metric)
	}

	// Validate operator
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

const vitalMetricPrefix = "vital_"

func isValidMetric(metric string) bool {
	switch metric {
	case "page_load", "score", "samples":
		return true
	}
	return strings.HasPrefix(metric, vitalMetricPrefix) && len(metric) > len(vitalMetricPrefix)
}

func isValidAggregate(metric, aggregate string) bool {
	var valid []string
	switch metric {
	case "page_load":
		valid = []string{"p50", "p90", "p95", "p99", "avg", "min", "max"}
	case "score":
		valid = []string{"value"}
	case "samples":
		valid = []string{"count", "rate"}
	default:
		valid = []string{"mean", "last", "min", "max", "count"}
	}
	for _, v := range valid {
		if aggregate == v {
			return true
		}
	}
	return false
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, stats metrics.Stats) (float64, error) {
	switch {
	case t.Metric == "page_load":
		return extractLoadTimeMetric(t.Aggregate, stats)
	case t.Metric == "score":
		return float64(stats.Score), nil
	case t.Metric == "samples":
		return extractSampleMetric(t.Aggregate, stats)
	case strings.HasPrefix(t.Metric, vitalMetricPrefix):
		return extractVitalMetric(strings.TrimPrefix(t.Metric, vitalMetricPrefix), t.Aggregate, stats)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLoadTimeMetric(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "p50":
		return stats.P50LoadTimeMs, nil
	case "p90":
		return stats.P90LoadTimeMs, nil
	case "p95":
		// Approximate p95 from p90 and p99
		return (stats.P90LoadTimeMs + stats.P99LoadTimeMs) / 2, nil
	case "p99":
		return stats.P99LoadTimeMs, nil
	case "avg", "mean":
		return stats.AvgLoadTimeMs, nil
	case "min":
		return stats.MinLoadTimeMs, nil
	case "max":
		return stats.MaxLoadTimeMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for page_load", aggregate)
	}
}

func extractSampleMetric(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "count":
		return float64(stats.TotalRecorded), nil
	case "rate":
		return stats.SamplesPerSec, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for samples (use 'count' or 'rate')", aggregate)
	}
}

func extractVitalMetric(name, aggregate string, stats metrics.Stats) (float64, error) {
	vital, ok := stats.Vitals[name]
	if !ok {
		return 0, fmt.Errorf("no samples recorded for vital %q", name)
	}
	switch aggregate {
	case "mean":
		return vital.Mean, nil
	case "last":
		return vital.Last, nil
	case "min":
		return vital.Min, nil
	case "max":
		return vital.Max, nil
	case "count":
		return float64(vital.Count), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for vital %q", aggregate, name)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
