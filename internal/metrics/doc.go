// Package metrics provides real-time collection and aggregation of browser
// page-performance samples.
//
// The metrics package buffers timing observations (page load and render
// times, optional heap usage) and named web-vital values pushed by
// instrumented pages. It keeps the most recent samples in a fixed-capacity
// FIFO buffer and derives rolling statistics from them.
//
// # Collector
//
// The central [Collector] type accumulates samples from all feed sources:
//
//	collector := metrics.NewCollector()
//	collector.Start() // Mark run start for accurate rate calculation
//
//	// Record a timing sample
//	collector.Record(1240.5, 380.2, nil)
//
//	// Record a named web vital
//	collector.RecordVital(metrics.VitalCLS, 0.08)
//
//	// Get aggregated statistics
//	stats := collector.Stats(elapsed)
//
// # Buffer semantics
//
// The buffer holds at most [BufferSize] samples in insertion order. Once the
// cap is exceeded the oldest samples are evicted first. [Collector.Samples]
// returns a defensive copy; [Collector.AverageLoadTime] averages LoadTime
// over the timing samples currently buffered and returns 0 when there are
// none. Vital samples share the buffer but never contribute to load-time
// aggregates.
//
// # Score
//
// [Collector.Score] derives a 0-100 performance score by rating average load
// time and each recognized web vital against the standard good/poor bands
// and averaging the per-metric scores.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Samples may arrive from the HTTP
// beacon handler, the WebSocket feed, and manual calls at the same time.
package metrics
