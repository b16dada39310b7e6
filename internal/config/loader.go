package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Listen:         ":8077",
		MaxBodyBytes:   64 * 1024,
		PollInterval:   5 * time.Second,
		StreamInterval: 5 * time.Second,
		ConfigFile:     configPath,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Listen = strings.TrimSpace(cfg.Listen)
	cfg.HTMLOutput = strings.TrimSpace(cfg.HTMLOutput)

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "listen"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		if val != "" {
			cfg.Listen = strings.TrimSpace(val)
		}
	}

	if raw, ok := lookupSetting(settings, "auth_token", "auth-token", "authtoken"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("auth_token: %w", err)
		}
		cfg.AuthToken = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "rate_limit", "rate-limit", "ratelimit", "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate_limit: %w", err)
		}
		cfg.RateLimit = val
	}

	if raw, ok := lookupSetting(settings, "rate_burst", "rate-burst", "rateburst"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate_burst: %w", err)
		}
		cfg.RateBurst = val
	}

	if raw, ok := lookupSetting(settings, "max_body_bytes", "max-body-bytes", "maxbodybytes"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("max_body_bytes: %w", err)
		}
		cfg.MaxBodyBytes = int64(val)
	}

	if raw, ok := lookupSetting(settings, "duration"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = val
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "poll_interval", "poll-interval", "pollinterval"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
		cfg.PollInterval = val
	}

	if raw, ok := lookupSetting(settings, "stream_interval", "stream-interval", "streaminterval"); ok {
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("stream_interval: %w", err)
		}
		cfg.StreamInterval = val
	}

	if raw, ok := lookupSetting(settings, "json_output", "json-output", "jsonoutput"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("json_output: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "html_output", "html-output", "htmloutput"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("html_output: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "log_beacons", "log-beacons", "logbeacons"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("log_beacons: %w", err)
		}
		cfg.LogBeacons = val
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = vals
	}

	if raw, ok := lookupSetting(settings, "vitals"); ok {
		rules, err := parseVitalRules(raw)
		if err != nil {
			return fmt.Errorf("vitals: %w", err)
		}
		cfg.Vitals = rules
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := parseTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

// parseVitalRules converts a config-file list into VitalRule entries.
func parseVitalRules(value interface{}) ([]VitalRule, error) {
	items, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	rules := make([]VitalRule, 0, len(items))
	for idx, item := range items {
		entry, err := toStringKeyMap(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", idx, err)
		}

		var rule VitalRule
		if raw, ok := lookupSetting(entry, "name"); ok {
			val, err := asString(raw)
			if err != nil {
				return nil, fmt.Errorf("index %d: name: %w", idx, err)
			}
			rule.Name = strings.TrimSpace(val)
		}
		if raw, ok := lookupSetting(entry, "path"); ok {
			val, err := asString(raw)
			if err != nil {
				return nil, fmt.Errorf("index %d: path: %w", idx, err)
			}
			rule.Path = strings.TrimSpace(val)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// parseTracingSettings applies a tracing config-file block.
func parseTracingSettings(cfg *TracingConfig, value interface{}) error {
	entry, err := toStringKeyMap(value)
	if err != nil {
		return err
	}

	if raw, ok := lookupSetting(entry, "enable", "enabled"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("enable: %w", err)
		}
		cfg.Enable = val
	}
	if raw, ok := lookupSetting(entry, "service_name", "service-name", "servicename"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		cfg.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		cfg.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		if val != "" {
			cfg.Protocol = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(entry, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		cfg.Insecure = val
	}
	if raw, ok := lookupSetting(entry, "sample_rate", "sample-rate", "samplerate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		cfg.SampleRate = val
	}
	if raw, ok := lookupSetting(entry, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		cfg.Propagate = val
	}

	return nil
}
