package metrics

// ratingBand holds the good/poor cutoffs for one metric, mirroring the
// standard web-vital rating thresholds. Values at or below Good score 100,
// values at or above Poor score 0, with linear interpolation between.
type ratingBand struct {
	Good float64
	Poor float64
}

var vitalBands = map[string]ratingBand{
	VitalLCP:  {Good: 2500, Poor: 4000},
	VitalFCP:  {Good: 1800, Poor: 3000},
	VitalCLS:  {Good: 0.1, Poor: 0.25},
	VitalFID:  {Good: 100, Poor: 300},
	VitalINP:  {Good: 200, Poor: 500},
	VitalTTFB: {Good: 800, Poor: 1800},
}

// loadTimeBand rates the generic page load time.
var loadTimeBand = ratingBand{Good: 2500, Poor: 6000}

func (b ratingBand) score(value float64) float64 {
	switch {
	case value <= b.Good:
		return 100
	case value >= b.Poor:
		return 0
	default:
		return 100 * (b.Poor - value) / (b.Poor - b.Good)
	}
}

// scoreLocked computes the 0-100 score from buffered aggregates. The score
// is the mean of the per-metric scores that have data: average load time
// (when timing samples exist) and the mean of each recognized vital.
// Returns 0 when nothing scoreable has been recorded.
func scoreLocked(timingSamples int, avgLoadTimeMs float64, vitals map[string]VitalStats) int {
	var sum float64
	var n int

	if timingSamples > 0 {
		sum += loadTimeBand.score(avgLoadTimeMs)
		n++
	}
	for name, v := range vitals {
		band, ok := vitalBands[name]
		if !ok {
			// Custom vitals have no standard rating bands.
			continue
		}
		sum += band.score(v.Mean)
		n++
	}

	if n == 0 {
		return 0
	}
	return int(sum/float64(n) + 0.5)
}
