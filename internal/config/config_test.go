package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Listen:         ":8077",
		MaxBodyBytes:   64 * 1024,
		PollInterval:   5 * time.Second,
		StreamInterval: 5 * time.Second,
		Tracing:        TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "empty listen",
			mutate:  func(c *Config) { c.Listen = " " },
			wantMsg: "listen address is required",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.RateLimit = -1 },
			wantMsg: "rate_limit must be >= 0",
		},
		{
			name:    "zero body cap",
			mutate:  func(c *Config) { c.MaxBodyBytes = 0 },
			wantMsg: "max_body_bytes must be >= 1",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.PollInterval = 0 },
			wantMsg: "poll_interval must be > 0",
		},
		{
			name:    "dashboard with json output",
			mutate:  func(c *Config) { c.Dashboard = true; c.JSONOutput = true },
			wantMsg: "mutually exclusive",
		},
		{
			name:    "sample rate out of range",
			mutate:  func(c *Config) { c.Tracing.SampleRate = 1.5 },
			wantMsg: "sample_rate must be between",
		},
		{
			name:    "vital missing path",
			mutate:  func(c *Config) { c.Vitals = []VitalRule{{Name: "x"}} },
			wantMsg: "path is required",
		},
		{
			name: "duplicate vital names",
			mutate: func(c *Config) {
				c.Vitals = []VitalRule{
					{Name: "x", Path: "a"},
					{Name: "X", Path: "b"},
				}
			},
			wantMsg: "duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidationErrorIssues(t *testing.T) {
	cfg := validConfig()
	cfg.Listen = ""
	cfg.RateLimit = -1

	err := cfg.Validate()
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Issues()) != 2 {
		t.Errorf("expected 2 issues, got %d: %v", len(verr.Issues()), verr.Issues())
	}
}
