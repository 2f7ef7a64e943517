package html2pdf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// session is one live browser engine process (or remote connection).
// The generation distinguishes it from every earlier and later session.
type session struct {
	generation uint64
	browser    Browser
	startedAt  time.Time
}

// sessionManager owns at most one session, starts it lazily and replaces it
// when a holder reports it dead. Invalidation is keyed on the generation, so
// a stale report never tears down a healthy replacement.
//
// The mutex is held across a launch: concurrent callers that find no session
// wait for the first launch instead of starting browsers of their own.
type sessionManager struct {
	launch      Launcher
	logger      *slog.Logger
	idleTimeout time.Duration

	// onReplace runs after the current session is dropped, outside the lock.
	onReplace func()

	// active mirrors current.generation (0 = no session) for lock-free reads.
	active atomic.Uint64

	mu         sync.Mutex
	current    *session
	generation uint64
	restarts   int
	closed     bool

	// idleMu guards lease bookkeeping so releasing a tab never waits on a
	// launch. Lock order: mu, then idleMu.
	idleMu    sync.Mutex
	leases    int
	lastUsed  time.Time
	idleTimer *time.Timer
}

func newSessionManager(launch Launcher, idleTimeout time.Duration, logger *slog.Logger) *sessionManager {
	return &sessionManager{
		launch:      launch,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// get returns the live session, launching one if none exists.
func (m *sessionManager) get(ctx context.Context) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.current != nil {
		return m.current, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	b, err := m.launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrBrowser, ErrBrowserConnect, err)
	}

	m.generation++
	m.current = &session{generation: m.generation, browser: b, startedAt: start}
	m.active.Store(m.generation)
	m.idleMu.Lock()
	m.lastUsed = time.Now()
	m.armIdleLocked()
	m.idleMu.Unlock()

	m.logger.Info("browser session started",
		slog.Uint64("generation", m.generation),
		slog.Duration("duration", time.Since(start)))
	return m.current, nil
}

// invalidate drops s if it is still the current session and reports whether
// it did. The dropped browser is closed best-effort and onReplace fires.
func (m *sessionManager) invalidate(s *session) bool {
	m.mu.Lock()
	if m.current == nil || m.current.generation != s.generation {
		m.mu.Unlock()
		return false
	}
	m.dropLocked()
	m.restarts++
	onReplace := m.onReplace
	m.mu.Unlock()

	m.logger.Warn("browser session invalidated",
		slog.Uint64("generation", s.generation),
		slog.Duration("uptime", time.Since(s.startedAt)))
	if onReplace != nil {
		onReplace()
	}
	m.closeBrowser(s)
	return true
}

// currentGeneration returns the live session's generation, or 0 when none.
func (m *sessionManager) currentGeneration() uint64 {
	return m.active.Load()
}

// acquireLease marks a tab as handed out; the idle timer never closes a
// session while leases are held.
func (m *sessionManager) acquireLease() {
	m.idleMu.Lock()
	m.leases++
	m.lastUsed = time.Now()
	m.idleMu.Unlock()
}

func (m *sessionManager) releaseLease() {
	m.idleMu.Lock()
	if m.leases > 0 {
		m.leases--
	}
	m.lastUsed = time.Now()
	if m.leases == 0 {
		m.armIdleLocked()
	}
	m.idleMu.Unlock()
}

// armIdleLocked (re)starts the idle countdown. Requires idleMu.
func (m *sessionManager) armIdleLocked() {
	if m.idleTimeout <= 0 || m.active.Load() == 0 {
		return
	}
	if m.idleTimer == nil {
		m.idleTimer = time.AfterFunc(m.idleTimeout, m.closeIdle)
		return
	}
	m.idleTimer.Reset(m.idleTimeout)
}

// closeIdle shuts down a session nobody has used for idleTimeout.
func (m *sessionManager) closeIdle() {
	m.mu.Lock()
	m.idleMu.Lock()
	s := m.current
	if s == nil || m.closed || m.leases > 0 {
		m.idleMu.Unlock()
		m.mu.Unlock()
		return
	}
	if wait := m.idleTimeout - time.Since(m.lastUsed); wait > 0 {
		m.idleTimer.Reset(wait)
		m.idleMu.Unlock()
		m.mu.Unlock()
		return
	}
	// Dropped before idleMu is released: a lease taken from here on sees
	// no live session.
	m.dropLocked()
	m.idleMu.Unlock()
	onReplace := m.onReplace
	m.mu.Unlock()

	m.logger.Info("closing idle browser session",
		slog.Uint64("generation", s.generation),
		slog.Duration("idle_timeout", m.idleTimeout))
	if onReplace != nil {
		onReplace()
	}
	m.closeBrowser(s)
}

// dropLocked clears the current session. The caller closes its browser.
func (m *sessionManager) dropLocked() {
	m.current = nil
	m.active.Store(0)
}

func (m *sessionManager) closeBrowser(s *session) {
	if err := s.browser.Close(); err != nil {
		m.logger.Debug("browser close failed",
			slog.Uint64("generation", s.generation),
			slog.Any("error", err))
	}
}

// close shuts the session down for good. Later get calls return ErrClosed.
func (m *sessionManager) close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.idleMu.Lock()
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	m.idleMu.Unlock()
	s := m.current
	m.dropLocked()
	m.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.browser.Close()
}

// sessionStats is a snapshot of lifecycle counters.
type sessionStats struct {
	generation uint64
	restarts   int
	active     bool
}

func (m *sessionManager) stats() sessionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sessionStats{
		generation: m.generation,
		restarts:   m.restarts,
		active:     m.current != nil,
	}
}
