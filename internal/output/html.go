package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/torosent/pagepulse/internal/metrics"
	"github.com/torosent/pagepulse/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Stats            metrics.Stats
	History          []metrics.DataPoint
	ThresholdResults []threshold.Result
	ThresholdSummary *ThresholdSummary
	HistoryJSON      string
	VitalNames       []string
	Metadata         ReportMetadata
}

// ThresholdSummary aggregates threshold outcomes for display.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []ThresholdResultJSON
}

// ThresholdResultJSON is a display-friendly threshold result row.
type ThresholdResultJSON struct {
	Threshold string
	Metric    string
	Aggregate string
	Operator  string
	Expected  float64
	Actual    float64
	Pass      bool
}

// ReportMetadata contains configuration information about the monitoring session.
type ReportMetadata struct {
	ListenAddr string
	VitalRules []VitalRuleInfo
}

// VitalRuleInfo describes a custom vital extraction rule used in the session.
type VitalRuleInfo struct {
	Name string
	Path string
}

// GenerateHTMLReport generates a standalone HTML report with embedded charts.
func GenerateHTMLReport(w io.Writer, stats metrics.Stats, history []metrics.DataPoint, thresholdResults []threshold.Result, metadata ReportMetadata) error {
	// Prepare threshold summary
	var thresholdSummary *ThresholdSummary
	if len(thresholdResults) > 0 {
		thresholdSummary = &ThresholdSummary{
			Total:   len(thresholdResults),
			Results: make([]ThresholdResultJSON, len(thresholdResults)),
		}
		for i, tr := range thresholdResults {
			thresholdSummary.Results[i] = ThresholdResultJSON{
				Threshold: tr.Threshold.Raw,
				Metric:    tr.Threshold.Metric,
				Aggregate: tr.Threshold.Aggregate,
				Operator:  tr.Threshold.Operator,
				Expected:  tr.Threshold.Value,
				Actual:    tr.Actual,
				Pass:      tr.Pass,
			}
			if tr.Pass {
				thresholdSummary.Passed++
			} else {
				thresholdSummary.Failed++
			}
		}
	}

	// Prepare vital names sorted alphabetically
	vitalNames := make([]string, 0, len(stats.Vitals))
	for name := range stats.Vitals {
		vitalNames = append(vitalNames, name)
	}
	sort.Strings(vitalNames)

	// Convert history to JSON for embedding in HTML
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Stats:            stats,
		History:          history,
		ThresholdResults: thresholdResults,
		ThresholdSummary: thresholdSummary,
		HistoryJSON:      string(historyJSON),
		VitalNames:       vitalNames,
		Metadata:         metadata,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatVital": func(f float64) string {
			return formatVital(f)
		},
		"formatSeconds": func(ms float64) string {
			return fmt.Sprintf("%.1fs", ms/1000)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>PagePulse Performance Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.error {
            border-left-color: #ef4444;
        }
        .card.warning {
            border-left-color: #f59e0b;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        .chart-container {
            background: white;
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 30px;
            border: 1px solid #e5e7eb;
        }
        .chart-container h3 {
            font-size: 1.1rem;
            margin-bottom: 15px;
            color: #4b5563;
        }
        .chart {
            width: 100%;
            height: 300px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .latency-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 15px;
            margin-top: 20px;
        }
        .latency-item {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .latency-item .label {
            font-size: 0.85rem;
            color: #6c757d;
            margin-bottom: 5px;
        }
        .latency-item .value {
            font-size: 1.3rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
</head>
<body>
    <div class="container">
        <header>
            <h1>📈 PagePulse Performance Report</h1>
            {{if .Metadata.ListenAddr}}
            <div class="meta" style="margin-top: 5px;">Collector: {{.Metadata.ListenAddr}}</div>
            {{end}}
            <div class="meta">Generated: {{.GeneratedAt}} | Session: {{formatSeconds .Stats.DurationMs}}</div>
        </header>

        <div class="content">
            <!-- Summary Cards -->
            <div class="grid">
                <div class="card">
                    <h3>Beacons Recorded</h3>
                    <div class="value">{{.Stats.TotalRecorded}}</div>
                    <div class="subvalue">{{formatFloat .Stats.SamplesPerSec}}/sec</div>
                </div>
                <div class="card {{if ge .Stats.Score 90}}success{{else if ge .Stats.Score 50}}warning{{else}}error{{end}}">
                    <h3>Performance Score</h3>
                    <div class="value">{{.Stats.Score}}</div>
                    <div class="subvalue">out of 100</div>
                </div>
                <div class="card">
                    <h3>Timing Samples</h3>
                    <div class="value">{{.Stats.TimingSamples}}</div>
                </div>
                <div class="card">
                    <h3>Vital Samples</h3>
                    <div class="value">{{.Stats.VitalSamples}}</div>
                </div>
            </div>

            <!-- Charts Section -->
            {{if .History}}
            <div class="section">
                <h2>Performance Over Time</h2>

                <div class="chart-container">
                    <h3>Performance Score</h3>
                    <div id="score-chart" class="chart"></div>
                </div>

                <div class="chart-container">
                    <h3>Load Time Percentiles (ms)</h3>
                    <div id="load-chart" class="chart"></div>
                </div>
            </div>
            {{end}}

            <!-- Load Time Statistics -->
            <div class="section">
                <h2>Load Time Statistics</h2>
                <div class="latency-grid">
                    <div class="latency-item">
                        <div class="label">Min</div>
                        <div class="value">{{formatFloat .Stats.MinLoadTimeMs}}ms</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Max</div>
                        <div class="value">{{formatFloat .Stats.MaxLoadTimeMs}}ms</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Avg</div>
                        <div class="value">{{formatFloat .Stats.AvgLoadTimeMs}}ms</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P50</div>
                        <div class="value">{{formatFloat .Stats.P50LoadTimeMs}}ms</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P90</div>
                        <div class="value">{{formatFloat .Stats.P90LoadTimeMs}}ms</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P99</div>
                        <div class="value">{{formatFloat .Stats.P99LoadTimeMs}}ms</div>
                    </div>
                </div>
            </div>

            <!-- Thresholds -->
            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Metric</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold}}</td>
                            <td>{{.Metric}} ({{.Aggregate}})</td>
                            <td>{{.Operator}} {{formatFloat .Expected}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            <!-- Web Vitals -->
            {{if .VitalNames}}
            <div class="section">
                <h2>Web Vitals</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Vital</th>
                            <th>Samples</th>
                            <th>Last</th>
                            <th>Mean</th>
                            <th>Min</th>
                            <th>Max</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .VitalNames}}
                        {{$v := index $.Stats.Vitals .}}
                        <tr>
                            <td><strong>{{.}}</strong></td>
                            <td>{{$v.Count}}</td>
                            <td>{{formatVital $v.Last}}</td>
                            <td>{{formatVital $v.Mean}}</td>
                            <td>{{formatVital $v.Min}}</td>
                            <td>{{formatVital $v.Max}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            <!-- Configuration Details -->
            {{if .Metadata.VitalRules}}
            <div class="section">
                <h2>Custom Vital Rules</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Name</th>
                            <th>JSON Path</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Metadata.VitalRules}}
                        <tr>
                            <td><strong>{{.Name}}</strong></td>
                            <td>{{.Path}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    {{if .History}}
    <script>
        // Prepare data for charts
        const historyJSON = {{.HistoryJSON}};
        const history = JSON.parse(historyJSON);

        if (history && history.length > 0) {
            // Extract timestamps and convert to seconds from start
            const startTime = new Date(history[0].timestamp).getTime();
            const timestamps = history.map(d => (new Date(d.timestamp).getTime() - startTime) / 1000);

            // Score Chart
            const scoreData = [
                timestamps,
                history.map(d => d.score)
            ];

            new uPlot({
                title: "Performance Score",
                width: document.getElementById('score-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false }, y: { range: [0, 100] } },
                series: [
                    { label: "Time (s)" },
                    {
                        label: "Score",
                        stroke: "#667eea",
                        fill: "rgba(102, 126, 234, 0.1)",
                        width: 2
                    }
                ],
                axes: [
                    { label: "Time (seconds)" },
                    { label: "Score" }
                ]
            }, scoreData, document.getElementById('score-chart'));

            // Load Time Chart
            const loadData = [
                timestamps,
                history.map(d => d.p50_load_time_ms),
                history.map(d => d.p90_load_time_ms),
                history.map(d => d.p99_load_time_ms)
            ];

            new uPlot({
                title: "Load Time Percentiles",
                width: document.getElementById('load-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Time (s)" },
                    {
                        label: "P50",
                        stroke: "#10b981",
                        width: 2
                    },
                    {
                        label: "P90",
                        stroke: "#f59e0b",
                        width: 2
                    },
                    {
                        label: "P99",
                        stroke: "#ef4444",
                        width: 2
                    }
                ],
                axes: [
                    { label: "Time (seconds)" },
                    { label: "Load Time (ms)" }
                ]
            }, loadData, document.getElementById('load-chart'));
        }
    </script>
    {{end}}
</body>
</html>
`
