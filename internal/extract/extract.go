// Package extract evaluates user-configured vital rules against raw beacon
// JSON, turning arbitrary payload fields into named web-vital values.
package extract

import (
	"github.com/tidwall/gjson"
)

// Logger interface for warning output.
type Logger interface {
	Warn(format string, args ...interface{})
}

// Rule maps a JSON path in the beacon payload to a custom vital name.
type Rule struct {
	// Name is the vital name the extracted value is recorded under.
	Name string

	// Path is a JSON path expression (e.g., "$.timing.checkout_ms",
	// "timing.checkout_ms").
	Path string
}

// Vital is one extracted name/value pair.
type Vital struct {
	Name  string
	Value float64
}

// Apply evaluates all rules against the beacon body and returns the vitals
// that resolved to numeric values. Missing or non-numeric paths are logged
// as warnings and skipped. The logger may be nil to suppress warnings.
func Apply(body []byte, rules []Rule, logger Logger) []Vital {
	if len(rules) == 0 {
		return nil
	}

	vitals := make([]Vital, 0, len(rules))
	for _, rule := range rules {
		result := lookup(body, rule.Path)
		if !result.Exists() {
			if logger != nil {
				logger.Warn("vital %q: path not found: %s", rule.Name, rule.Path)
			}
			continue
		}
		if result.Type != gjson.Number {
			if logger != nil {
				logger.Warn("vital %q: value at %s is not numeric", rule.Name, rule.Path)
			}
			continue
		}
		vitals = append(vitals, Vital{Name: rule.Name, Value: result.Float()})
	}
	return vitals
}

// lookup resolves a path with support for $.field and bare field syntax.
func lookup(body []byte, path string) gjson.Result {
	if len(path) > 0 && path[0] == '$' {
		if len(path) > 1 && path[1] == '.' {
			path = path[2:]
		} else if len(path) == 1 {
			// Bare "$" means the entire document.
			path = "@this"
		}
	}
	return gjson.GetBytes(body, path)
}
