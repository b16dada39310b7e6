package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/torosent/pagepulse/internal/metrics"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Page Performance Results ---")
	fmt.Fprintf(w, "Beacons Recorded:  %d\n", stats.TotalRecorded)
	fmt.Fprintf(w, "Buffered Samples:  %d\n", stats.Buffered)
	fmt.Fprintf(w, "Timing Samples:    %d\n", stats.TimingSamples)
	fmt.Fprintf(w, "Vital Samples:     %d\n", stats.VitalSamples)
	fmt.Fprintf(w, "Duration:          %.1fs\n", stats.DurationMs/1000)
	fmt.Fprintf(w, "Samples/sec:       %.2f\n", stats.SamplesPerSec)
	fmt.Fprintf(w, "Performance Score: %d / 100\n", stats.Score)
	fmt.Fprintln(w, "\nLoad Time:")
	fmt.Fprintf(w, "  Min:             %.2fms\n", stats.MinLoadTimeMs)
	fmt.Fprintf(w, "  Max:             %.2fms\n", stats.MaxLoadTimeMs)
	fmt.Fprintf(w, "  Avg:             %.2fms\n", stats.AvgLoadTimeMs)
	fmt.Fprintf(w, "  P50:             %.2fms\n", stats.P50LoadTimeMs)
	fmt.Fprintf(w, "  P90:             %.2fms\n", stats.P90LoadTimeMs)
	fmt.Fprintf(w, "  P99:             %.2fms\n", stats.P99LoadTimeMs)

	if len(stats.Vitals) > 0 {
		fmt.Fprintln(w, "\nWeb Vitals:")
		names := make([]string, 0, len(stats.Vitals))
		for name := range stats.Vitals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v := stats.Vitals[name]
			fmt.Fprintf(
				w,
				"  - %s: count=%d, last=%s, mean=%s, min=%s, max=%s\n",
				strings.ToUpper(name),
				v.Count,
				formatVital(v.Last),
				formatVital(v.Mean),
				formatVital(v.Min),
				formatVital(v.Max),
			)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func formatVital(value float64) string {
	if value < 10 {
		return fmt.Sprintf("%.3f", value)
	}
	return fmt.Sprintf("%.2fms", value)
}
