// Package observer manages passive sample sources.
//
// A Source is a push-based feed that asynchronously delivers performance
// entries for the lifetime of its attachment. The Manager attaches and
// detaches sources as a group. A source that fails to attach is logged and
// skipped: collection continues in degraded mode with whatever sources did
// attach, and manual recording always works. There is no retry.
package observer

import (
	"context"
	"log"
	"sync"
)

// Source is a named passive feed of performance entries.
//
// Start attaches the source; after a successful Start the source invokes its
// recording callbacks on its own schedule until Stop is called. Start must
// not block beyond initial setup.
type Source interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager owns the attach/detach lifecycle of a set of sources.
type Manager struct {
	mu      sync.Mutex
	sources []Source
	active  []Source
	started bool
	logger  *log.Logger
}

// NewManager creates a manager. A nil logger falls back to the default logger.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{logger: logger}
}

// Register adds a source. Sources registered after Start are attached on the
// next Start call.
func (m *Manager) Register(src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, src)
}

// Start attaches all registered sources. A source whose attach fails is
// logged as a warning and skipped; the failure never propagates. Calling
// Start while already observing is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	for _, src := range m.sources {
		if err := src.Start(ctx); err != nil {
			m.logger.Printf("warning: source %q unavailable, continuing without it: %v", src.Name(), err)
			continue
		}
		m.active = append(m.active, src)
	}
}

// Stop detaches all attached sources. It is idempotent: safe to call when
// already stopped or never started. Previously collected samples are not
// affected.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return
	}
	m.started = false

	for _, src := range m.active {
		if err := src.Stop(ctx); err != nil {
			m.logger.Printf("warning: stopping source %q: %v", src.Name(), err)
		}
	}
	m.active = nil
}

// Observing reports whether at least one source is currently attached.
func (m *Manager) Observing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started && len(m.active) > 0
}
