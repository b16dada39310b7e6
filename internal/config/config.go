package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the full pagepulse runtime configuration.
type Config struct {
	Listen         string        `mapstructure:"listen"`
	AuthToken      string        `mapstructure:"auth_token"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	Duration       time.Duration `mapstructure:"duration"`
	Dashboard      bool          `mapstructure:"dashboard"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	StreamInterval time.Duration `mapstructure:"stream_interval"`
	JSONOutput     bool          `mapstructure:"json_output"`
	HTMLOutput     string        `mapstructure:"html_output"`
	LogBeacons     bool          `mapstructure:"log_beacons"`
	Thresholds     []string      `mapstructure:"thresholds"`
	Vitals         []VitalRule   `mapstructure:"vitals"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	ConfigFile     string        `mapstructure:"-"`
}

// VitalRule maps a JSON path in beacon payloads to a custom vital name.
type VitalRule struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

// TracingConfig controls the OpenTelemetry exporter.
type TracingConfig struct {
	Enable      bool    `mapstructure:"enable"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   bool    `mapstructure:"propagate"`
}

// Enabled reports whether tracing should be initialized.
func (c TracingConfig) Enabled() bool {
	return c.Enable
}

// ShouldPropagate reports whether W3C trace context on incoming beacon
// requests should be extracted into ingest spans.
func (c TracingConfig) ShouldPropagate() bool {
	return c.Propagate
}

// ValidationError aggregates all configuration issues found by Validate.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Listen) == "" {
		issues = append(issues, "listen address is required")
	}
	if c.RateLimit < 0 {
		issues = append(issues, "rate_limit must be >= 0")
	}
	if c.RateBurst < 0 {
		issues = append(issues, "rate_burst must be >= 0")
	}
	if c.MaxBodyBytes < 1 {
		issues = append(issues, "max_body_bytes must be >= 1")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.PollInterval <= 0 {
		issues = append(issues, "poll_interval must be > 0")
	}
	if c.StreamInterval <= 0 {
		issues = append(issues, "stream_interval must be > 0")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, "tracing.sample_rate must be between 0.0 and 1.0")
	}

	issues = append(issues, validateVitalRules(c.Vitals)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateVitalRules(rules []VitalRule) []string {
	var issues []string
	seenNames := map[string]int{}
	for idx, rule := range rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			issues = append(issues, fmt.Sprintf("vitals[%d]: name is required", idx))
		}
		if strings.TrimSpace(rule.Path) == "" {
			issues = append(issues, fmt.Sprintf("vitals[%d]: path is required", idx))
		}
		if name != "" {
			key := strings.ToLower(name)
			if prev, ok := seenNames[key]; ok {
				issues = append(issues, fmt.Sprintf("vitals[%d]: duplicate name also defined at index %d", idx, prev))
			} else {
				seenNames[key] = idx
			}
		}
	}
	return issues
}
