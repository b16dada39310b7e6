package ingest

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// NamedValue is one web-vital name/value pair reported by a beacon.
type NamedValue struct {
	Name  string
	Value float64
}

// Beacon is one decoded performance payload.
//
// All fields are optional on the wire: a beacon may carry only timing data,
// only vitals, or both. HasTiming reports whether the timing shape was
// present.
type Beacon struct {
	URL         string
	HasTiming   bool
	LoadTime    float64
	RenderTime  float64
	MemoryBytes *uint64
	Vitals      []NamedValue
}

// ParseBeacon decodes a beacon payload. The wire format uses snake_case
// JSON fields:
//
//	{
//	  "url": "https://example.com/checkout",
//	  "load_time_ms": 1240.5,
//	  "render_time_ms": 380.2,
//	  "memory_bytes": 33554432,
//	  "vitals": [{"name": "cls", "value": 0.08}]
//	}
//
// vitals may alternatively be an object of name->value pairs. Unknown fields
// are ignored. Only structurally invalid JSON or a payload carrying neither
// timing nor vitals is an error.
func ParseBeacon(body []byte) (Beacon, error) {
	if !gjson.ValidBytes(body) {
		return Beacon{}, fmt.Errorf("invalid JSON payload")
	}

	var b Beacon
	b.URL = gjson.GetBytes(body, "url").String()

	if load := gjson.GetBytes(body, "load_time_ms"); load.Exists() {
		b.HasTiming = true
		b.LoadTime = load.Float()
		b.RenderTime = gjson.GetBytes(body, "render_time_ms").Float()
		if mem := gjson.GetBytes(body, "memory_bytes"); mem.Exists() && mem.Type == gjson.Number {
			v := mem.Uint()
			b.MemoryBytes = &v
		}
	}

	vitals := gjson.GetBytes(body, "vitals")
	switch {
	case vitals.IsArray():
		vitals.ForEach(func(_, entry gjson.Result) bool {
			name := entry.Get("name").String()
			value := entry.Get("value")
			if name != "" && value.Exists() {
				b.Vitals = append(b.Vitals, NamedValue{Name: name, Value: value.Float()})
			}
			return true
		})
	case vitals.IsObject():
		vitals.ForEach(func(key, value gjson.Result) bool {
			if key.String() != "" && value.Type == gjson.Number {
				b.Vitals = append(b.Vitals, NamedValue{Name: key.String(), Value: value.Float()})
			}
			return true
		})
	}

	if !b.HasTiming && len(b.Vitals) == 0 {
		return Beacon{}, fmt.Errorf("beacon carries neither timing nor vitals")
	}

	return b, nil
}
