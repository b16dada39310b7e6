// Package ingest runs the beacon feed: an HTTP endpoint and a WebSocket
// feed that instrumented pages push performance payloads to, plus read-only
// stats endpoints for external consumers.
//
// The server implements observer.Source so its lifecycle is owned by the
// observer manager: a failed listen is reported once at attach time and the
// rest of the process keeps running without the feed.
package ingest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/torosent/pagepulse/internal/config"
	"github.com/torosent/pagepulse/internal/extract"
	"github.com/torosent/pagepulse/internal/metrics"
	"github.com/torosent/pagepulse/internal/sse"
	"github.com/torosent/pagepulse/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

// Server accepts performance beacons and serves stats snapshots.
type Server struct {
	cfg       *config.Config
	collector *metrics.Collector
	rules     []extract.Rule
	tracing   *tracing.Provider
	logger    *log.Logger

	broadcaster *sse.Broadcaster
	limiter     *rate.Limiter
	upgrader    websocket.Upgrader
	entropy     *ulid.MonotonicEntropy
	entropyMu   sync.Mutex

	mu       sync.Mutex
	httpSrv  *http.Server
	listener net.Listener
	start    time.Time
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates an ingest server bound to the given collector. The tracing
// provider may be nil; logger falls back to the default logger.
func New(cfg *config.Config, collector *metrics.Collector, tp *tracing.Provider, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = cfg.RateLimit
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	rules := make([]extract.Rule, 0, len(cfg.Vitals))
	for _, v := range cfg.Vitals {
		rules = append(rules, extract.Rule{Name: v.Name, Path: v.Path})
	}

	return &Server{
		cfg:         cfg,
		collector:   collector,
		rules:       rules,
		tracing:     tp,
		logger:      logger,
		broadcaster: sse.NewBroadcaster(),
		limiter:     limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Name implements observer.Source.
func (s *Server) Name() string { return "ingest" }

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the listen address and begins serving. Implements
// observer.Source: a bind failure is returned to the manager, which logs it
// and continues without the feed.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.listener = ln
	s.start = time.Now()
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := s.httpSrv
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("warning: beacon server: %v", err)
		}
	}()
	go s.publishLoop(runCtx)

	return nil
}

// Stop shuts the server down gracefully. Safe to call when never started or
// already stopped; collected samples are untouched.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	cancel := s.cancel
	s.httpSrv = nil
	s.listener = nil
	s.cancel = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	cancel()
	s.broadcaster.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, shutdownTimeout)
	defer cancelShutdown()
	err := srv.Shutdown(shutdownCtx)

	s.wg.Wait()
	return err
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/beacons", s.handleBeacon)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return mux
}

// publishLoop pushes stats snapshots to SSE subscribers on a fixed interval.
func (s *Server) publishLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.broadcaster.SubscriberCount() == 0 {
				continue
			}
			stats := s.collector.Stats(time.Since(s.start))
			data, err := json.Marshal(stats)
			if err != nil {
				continue
			}
			s.broadcaster.Publish(sse.Event{Event: "stats", Data: string(data)})
		}
	}
}

func (s *Server) checkAuth(r *http.Request) bool {
	if s.cfg.AuthToken == "" {
		return true
	}
	header := r.Header.Get("Authorization")
	want := "Bearer " + s.cfg.AuthToken
	return subtle.ConstantTimeCompare([]byte(header), []byte(want)) == 1
}

func (s *Server) handleBeacon(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		http.Error(w, "Payload Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	ctx := r.Context()
	if s.tracing.ShouldPropagate() {
		ctx = tracing.ExtractHTTPHeaders(ctx, r.Header)
	}
	_, span := tracing.StartIngestSpan(ctx, s.tracing.Tracer(), "http", "")

	if err := s.accept(body); err != nil {
		tracing.EndSpan(span, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tracing.EndSpan(span, nil, attribute.Int("pagepulse.payload_bytes", len(body)))

	w.WriteHeader(http.StatusAccepted)
}

// accept parses a payload and records its samples.
func (s *Server) accept(body []byte) error {
	beacon, err := ParseBeacon(body)
	if err != nil {
		return err
	}

	if beacon.HasTiming {
		s.collector.Record(beacon.LoadTime, beacon.RenderTime, beacon.MemoryBytes)
	}
	for _, v := range beacon.Vitals {
		s.collector.RecordVital(v.Name, v.Value)
	}
	for _, v := range extract.Apply(body, s.rules, warnLogger{s.logger}) {
		s.collector.RecordVital(v.Name, v.Value)
	}

	if s.cfg.LogBeacons {
		s.logger.Printf("beacon url=%s timing=%t vitals=%d", beacon.URL, beacon.HasTiming, len(beacon.Vitals))
	}
	return nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.collector.Stats(time.Since(s.start))
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(stats)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := s.broadcaster.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := event.Encode(w); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkAuth(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("warning: ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	session := s.newSessionID()
	conn.SetReadLimit(s.cfg.MaxBodyBytes)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if s.limiter != nil && !s.limiter.Allow() {
			continue
		}

		_, span := tracing.StartIngestSpan(r.Context(), s.tracing.Tracer(), "websocket", session)
		if err := s.accept(data); err != nil {
			tracing.EndSpan(span, err)
			s.logger.Printf("warning: session %s: %v", session, err)
			continue
		}
		tracing.EndSpan(span, nil, attribute.Int("pagepulse.payload_bytes", len(data)))
	}
}

func (s *Server) newSessionID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// warnLogger adapts *log.Logger to the extract.Logger interface.
type warnLogger struct {
	logger *log.Logger
}

func (l warnLogger) Warn(format string, args ...interface{}) {
	l.logger.Printf("warning: "+format, args...)
}
