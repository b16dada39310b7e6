package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/pagepulse/internal/config"
	"github.com/torosent/pagepulse/internal/dashboard"
	"github.com/torosent/pagepulse/internal/ingest"
	"github.com/torosent/pagepulse/internal/metrics"
	"github.com/torosent/pagepulse/internal/observer"
	"github.com/torosent/pagepulse/internal/output"
	"github.com/torosent/pagepulse/internal/threshold"
	"github.com/torosent/pagepulse/internal/tracing"
)

const progressInterval = time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "[pagepulse] ", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var tp *tracing.Provider
	if cfg.Tracing.Enabled() {
		tp, err = tracing.Init(ctx, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Printf("warning: tracing shutdown: %v", err)
			}
		}()
	}

	collector := metrics.NewCollector()
	server := ingest.New(cfg, collector, tp, logger)

	manager := observer.NewManager(logger)
	manager.Register(server)

	history := metrics.NewHistory()

	collector.Start()
	start := time.Now()
	manager.Start(ctx)
	defer func() {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelStop()
		manager.Stop(stopCtx)
	}()

	go recordHistory(ctx, collector, history, cfg.PollInterval, start)

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, buildMonitorConfig(cfg), cfg.PollInterval, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, progressInterval, os.Stdout)
		progress.Start()
		defer func() {
			progress.Stop()
			fmt.Fprintln(os.Stdout)
		}()
	}

	if cfg.Duration > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(cfg.Duration):
			cancel()
		}
	} else {
		<-ctx.Done()
	}

	stats := collector.Stats(time.Since(start))

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, stats); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, stats)
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(stats)
	for _, result := range results {
		fmt.Fprintln(os.Stderr, result.Message)
	}

	if cfg.HTMLOutput != "" {
		writeCtx, cancelWrite := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelWrite()
		metadata := output.ReportMetadata{
			ListenAddr: cfg.Listen,
			VitalRules: vitalRuleInfo(cfg.Vitals),
		}
		if err := output.WriteHTMLReport(writeCtx, cfg.HTMLOutput, stats, history.Snapshot(), results, metadata); err != nil {
			return err
		}
		if !cfg.JSONOutput {
			fmt.Fprintf(os.Stdout, "HTML report written to %s\n", cfg.HTMLOutput)
		}
	}

	if failed := countFailedThresholds(results); failed > 0 {
		return fmt.Errorf("%d threshold(s) failed", failed)
	}
	return nil
}

// recordHistory samples the collector on the poll interval so the HTML
// report can chart the session.
func recordHistory(ctx context.Context, collector *metrics.Collector, history *metrics.History, interval time.Duration, start time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			history.Append(collector.Stats(time.Since(start)))
		}
	}
}

func buildMonitorConfig(cfg *config.Config) dashboard.MonitorConfig {
	return dashboard.MonitorConfig{
		Listen:     cfg.Listen,
		Duration:   cfg.Duration,
		RateLimit:  cfg.RateLimit,
		AuthToken:  cfg.AuthToken != "",
		VitalRules: len(cfg.Vitals),
		ConfigFile: cfg.ConfigFile,
	}
}

func vitalRuleInfo(rules []config.VitalRule) []output.VitalRuleInfo {
	if len(rules) == 0 {
		return nil
	}
	info := make([]output.VitalRuleInfo, len(rules))
	for i, rule := range rules {
		info[i] = output.VitalRuleInfo{Name: rule.Name, Path: rule.Path}
	}
	return info
}

func countFailedThresholds(results []threshold.Result) int {
	failed := 0
	for _, result := range results {
		if !result.Pass {
			failed++
		}
	}
	return failed
}
