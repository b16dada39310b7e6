package metrics

import "time"

// SampleKind distinguishes the two sample shapes stored in the buffer.
type SampleKind string

const (
	// SampleKindTiming is a generic page-timing observation (load/render).
	SampleKindTiming SampleKind = "timing"
	// SampleKindVital is a named web-vital value (e.g. layout-shift score).
	SampleKindVital SampleKind = "vital"
)

// Canonical web-vital names. Beacons may report additional custom names;
// only these participate in score calculation.
const (
	VitalLCP  = "lcp"  // largest contentful paint, ms
	VitalFCP  = "fcp"  // first contentful paint, ms
	VitalCLS  = "cls"  // cumulative layout shift, unitless
	VitalFID  = "fid"  // first input delay, ms
	VitalINP  = "inp"  // interaction to next paint, ms
	VitalTTFB = "ttfb" // time to first byte, ms
)

// Sample is one recorded performance observation.
//
// Timing samples carry LoadTime/RenderTime (and optionally MemoryBytes when
// the reporting platform can measure heap usage). Vital samples carry a
// Name/Value pair instead. Both kinds share one buffer; consumers filter by
// Kind.
type Sample struct {
	Kind SampleKind `json:"kind"`

	// Timing shape.
	LoadTime    float64 `json:"load_time_ms,omitempty"`
	RenderTime  float64 `json:"render_time_ms,omitempty"`
	MemoryBytes *uint64 `json:"memory_bytes,omitempty"`

	// Vital shape.
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// IsTiming reports whether the sample carries the generic timing shape.
func (s Sample) IsTiming() bool {
	return s.Kind == SampleKindTiming
}
