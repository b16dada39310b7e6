package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/pagepulse/internal/metrics"
)

// MonitorConfig holds collector session parameters for display.
type MonitorConfig struct {
	Listen     string        // Beacon listen address
	Duration   time.Duration // Session duration (0 = unlimited)
	RateLimit  int           // Beacons per second (0 = unlimited)
	AuthToken  bool          // Whether bearer auth is enabled
	VitalRules int           // Number of custom vital extraction rules
	ConfigFile string        // Path to config file if used
}

// Dashboard renders a live terminal UI for page performance metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid            *ui.Grid
	loadSparkle     *widgets.SparklineGroup
	loadPara        *widgets.Paragraph
	scoreGauge      *widgets.Gauge
	vitalsList      *widgets.List
	summaryPara     *widgets.Paragraph
	metricsPara     *widgets.Paragraph
	loadHistory     []float64
	lastUpdateTime  time.Time
	startTime       time.Time
	sessionDuration time.Duration
	monitorConfig   MonitorConfig
	pollInterval    time.Duration
}

// New creates a new Dashboard.
func New(collector *metrics.Collector, cfg MonitorConfig, pollInterval time.Duration, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		loadHistory:    make([]float64, 0, 100),
		startTime:      time.Now(),
		lastUpdateTime: time.Now(),
		monitorConfig:  cfg,
		pollInterval:   pollInterval,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	// Load time sparkline
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Load Time (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.loadSparkle = widgets.NewSparklineGroup(sparkline)
	d.loadSparkle.Title = "Page Load Time"
	d.loadSparkle.BorderStyle.Fg = ui.ColorCyan

	// Load time percentiles
	d.loadPara = widgets.NewParagraph()
	d.loadPara.Title = "Load Time Stats"
	d.loadPara.Text = "Min: 0ms\nAvg: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.loadPara.BorderStyle.Fg = ui.ColorCyan

	// Performance score gauge
	d.scoreGauge = widgets.NewGauge()
	d.scoreGauge.Title = "Performance Score"
	d.scoreGauge.Percent = 0
	d.scoreGauge.BarColor = ui.ColorBlue
	d.scoreGauge.BorderStyle.Fg = ui.ColorCyan
	d.scoreGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	// Web vitals list
	d.vitalsList = widgets.NewList()
	d.vitalsList.Title = "Web Vitals"
	d.vitalsList.Rows = []string{"Awaiting data"}
	d.vitalsList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.vitalsList.BorderStyle.Fg = ui.ColorCyan

	// Summary paragraph
	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Session Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	// Metrics paragraph (plain text summary)
	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Samples"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.20,
			ui.NewCol(0.5, d.scoreGauge),
			ui.NewCol(0.5, d.metricsPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(0.65, d.loadSparkle),
			ui.NewCol(0.35, d.loadPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(1.0, d.vitalsList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and cleans up.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	d.sessionDuration = time.Since(d.startTime)
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// GetFinalStats returns the final statistics after the dashboard has stopped.
func (d *Dashboard) GetFinalStats() metrics.Stats {
	return d.collector.Stats(d.sessionDuration)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.update()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			// Check if context is done to avoid blocking
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the collector.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	stats := d.collector.Stats(elapsed)

	// Update load time history for sparkline
	if stats.AvgLoadTimeMs > 0 {
		d.loadHistory = append(d.loadHistory, stats.AvgLoadTimeMs)
		if len(d.loadHistory) > 100 {
			d.loadHistory = d.loadHistory[1:]
		}
		d.loadSparkle.Sparklines[0].Data = d.loadHistory
		d.loadSparkle.Title = fmt.Sprintf(
			"Page Load Time | Avg: %.2fms | Min: %.2fms | Max: %.2fms",
			stats.AvgLoadTimeMs,
			stats.MinLoadTimeMs,
			stats.MaxLoadTimeMs,
		)
	}

	d.scoreGauge.Percent = stats.Score
	d.scoreGauge.Label = fmt.Sprintf("%d / 100 (%s)", stats.Score, scoreLabel(stats.Score))

	params := d.formatSessionParams()

	d.summaryPara.Text = fmt.Sprintf(
		"Listening: %s\n%s\nElapsed: %s | Beacons: %d | Rate: %.1f/s",
		d.monitorConfig.Listen,
		params,
		elapsed.Round(time.Second),
		stats.TotalRecorded,
		stats.SamplesPerSec,
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Total Recorded:    %d\nBuffered:          %d\nTiming Samples:    %d\nVital Samples:     %d\nSamples/sec:       %.2f\nAvg Load Time:     %.2fms\nP50/P90/P99:       %.2f / %.2f / %.2f ms",
		stats.TotalRecorded,
		stats.Buffered,
		stats.TimingSamples,
		stats.VitalSamples,
		stats.SamplesPerSec,
		stats.AvgLoadTimeMs,
		stats.P50LoadTimeMs,
		stats.P90LoadTimeMs,
		stats.P99LoadTimeMs,
	)

	d.loadPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nAvg:  %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		stats.MinLoadTimeMs,
		stats.AvgLoadTimeMs,
		stats.P50LoadTimeMs,
		stats.P90LoadTimeMs,
		stats.P99LoadTimeMs,
	)

	d.updateVitalsList(stats)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func (d *Dashboard) updateVitalsList(stats metrics.Stats) {
	if len(stats.Vitals) == 0 {
		d.vitalsList.Rows = []string{"[No vitals reported](fg:green)"}
		return
	}

	names := make([]string, 0, len(stats.Vitals))
	for name := range stats.Vitals {
		names = append(names, name)
	}
	sort.Strings(names)

	formatted := make([]string, 0, len(names))
	for _, name := range names {
		v := stats.Vitals[name]
		formatted = append(formatted, fmt.Sprintf("[%s](fg:cyan) | n=%d | last %s | mean %s | min %s | max %s",
			strings.ToUpper(name),
			v.Count,
			formatVitalValue(v.Last),
			formatVitalValue(v.Mean),
			formatVitalValue(v.Min),
			formatVitalValue(v.Max),
		))
	}
	d.vitalsList.Rows = formatted
}

// formatVitalValue renders a vital value with a precision suited to its
// magnitude. CLS-style unitless scores stay fractional, millisecond values
// drop the noise.
func formatVitalValue(value float64) string {
	if value < 10 {
		return fmt.Sprintf("%.3f", value)
	}
	if value > 1000 {
		return fmt.Sprintf("%.0f", value)
	}
	return fmt.Sprintf("%.2f", value)
}

func scoreLabel(score int) string {
	switch {
	case score >= 90:
		return "good"
	case score >= 50:
		return "needs improvement"
	default:
		return "poor"
	}
}

// formatSessionParams formats the session configuration for display.
func (d *Dashboard) formatSessionParams() string {
	var parts []string

	if d.monitorConfig.RateLimit > 0 {
		parts = append(parts, fmt.Sprintf("Rate limit: %d/s", d.monitorConfig.RateLimit))
	} else {
		parts = append(parts, "Rate limit: none")
	}

	if d.monitorConfig.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", d.monitorConfig.Duration))
	}

	if d.monitorConfig.AuthToken {
		parts = append(parts, "Auth: bearer")
	}

	if d.monitorConfig.VitalRules > 0 {
		parts = append(parts, fmt.Sprintf("Vital rules: %d", d.monitorConfig.VitalRules))
	}

	if d.monitorConfig.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", d.monitorConfig.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
