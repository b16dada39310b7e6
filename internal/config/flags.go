package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pagepulse",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Ingest flags
	flags.StringP("listen", "l", ":8077", "Address the beacon server listens on")
	flags.String("auth-token", "", "Require this bearer token on beacon requests")
	flags.IntP("rate", "r", 0, "Beacons per second limit (0 means unlimited)")
	flags.Int("rate-burst", 0, "Rate limiter burst size (0 means same as rate)")
	flags.Int64("max-body-bytes", 64*1024, "Maximum accepted beacon payload size")

	// Collection flags
	flags.DurationP("duration", "d", 0, "How long to collect before reporting (0 means until interrupted)")
	flags.StringSlice("vital", nil, "Custom vital in name=jsonpath form (repeatable)")

	// Output flags
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Duration("poll-interval", 5*time.Second, "How often the dashboard polls the collector")
	flags.Duration("stream-interval", 5*time.Second, "How often the SSE stats stream pushes a snapshot")
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.Bool("log-beacons", false, "Log each accepted beacon to stderr")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Performance thresholds (repeatable, e.g., 'page_load:p99 < 4000')")

	// Tracing flags
	flags.Bool("tracing", false, "Enable OpenTelemetry tracing of beacon ingest")
	flags.String("tracing-endpoint", "", "OTLP endpoint (defaults to OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Trace sample rate between 0.0 and 1.0")
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("listen") {
		val, err := fs.GetString("listen")
		if err != nil {
			return err
		}
		cfg.Listen = strings.TrimSpace(val)
	}
	if fs.Changed("auth-token") {
		val, err := fs.GetString("auth-token")
		if err != nil {
			return err
		}
		cfg.AuthToken = strings.TrimSpace(val)
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.RateLimit = val
	}
	if fs.Changed("rate-burst") {
		val, err := fs.GetInt("rate-burst")
		if err != nil {
			return err
		}
		cfg.RateBurst = val
	}
	if fs.Changed("max-body-bytes") {
		val, err := fs.GetInt64("max-body-bytes")
		if err != nil {
			return err
		}
		cfg.MaxBodyBytes = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("poll-interval") {
		val, err := fs.GetDuration("poll-interval")
		if err != nil {
			return err
		}
		cfg.PollInterval = val
	}
	if fs.Changed("stream-interval") {
		val, err := fs.GetDuration("stream-interval")
		if err != nil {
			return err
		}
		cfg.StreamInterval = val
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("log-beacons") {
		val, err := fs.GetBool("log-beacons")
		if err != nil {
			return err
		}
		cfg.LogBeacons = val
	}
	if fs.Changed("tracing") {
		val, err := fs.GetBool("tracing")
		if err != nil {
			return err
		}
		cfg.Tracing.Enable = val
	}
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}

	thresholds, err := fs.GetStringSlice("threshold")
	if err != nil {
		return err
	}
	if len(thresholds) > 0 {
		cfg.Thresholds = append(cfg.Thresholds, thresholds...)
	}

	vitals, err := fs.GetStringSlice("vital")
	if err != nil {
		return err
	}
	for _, entry := range vitals {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("vital must be in name=jsonpath format: %s", entry)
		}
		cfg.Vitals = append(cfg.Vitals, VitalRule{
			Name: strings.TrimSpace(parts[0]),
			Path: strings.TrimSpace(parts[1]),
		})
	}

	return nil
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}
