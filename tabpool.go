package html2pdf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// pooledTab is a Tab tagged with the generation of the session that
// created it.
type pooledTab struct {
	Tab
	generation uint64
}

// tabPool hands out tabs, reusing idle ones in LIFO order. It holds at most
// maxIdle tabs, all belonging to the current session: recycle rejects stale
// generations and a session replacement purges the pool.
type tabPool struct {
	sessions *sessionManager
	maxIdle  int
	logger   *slog.Logger

	mu        sync.Mutex
	idle      []*pooledTab
	created   int
	reused    int
	discarded int
}

func newTabPool(sessions *sessionManager, maxIdle int, logger *slog.Logger) *tabPool {
	p := &tabPool{
		sessions: sessions,
		maxIdle:  maxIdle,
		logger:   logger,
	}
	sessions.onReplace = p.purge
	return p
}

// acquire returns an idle tab or creates one. A failed creation is taken as
// a dead session: the session is invalidated and creation retried once on
// a fresh one.
//
// The lease is taken before anything is handed out, so the idle timer can
// never close the browser under a tab between pop and use.
func (p *tabPool) acquire(ctx context.Context) (_ *pooledTab, err error) {
	p.sessions.acquireLease()
	defer func() {
		if err != nil {
			p.sessions.releaseLease()
		}
	}()

	if t := p.pop(); t != nil {
		return t, nil
	}

	s, err := p.sessions.get(ctx)
	if err != nil {
		return nil, err
	}

	tab, err := s.browser.NewTab(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrBrowser, ErrPageCreate, ctxErr)
		}
		p.logger.Warn("tab creation failed, restarting browser session",
			slog.Uint64("generation", s.generation),
			slog.Any("error", err))
		p.sessions.invalidate(s)

		s, err = p.sessions.get(ctx)
		if err != nil {
			return nil, err
		}
		tab, err = s.browser.NewTab(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %w", ErrBrowser, ErrPageCreate, err)
		}
	}

	p.mu.Lock()
	p.created++
	p.mu.Unlock()

	return &pooledTab{Tab: tab, generation: s.generation}, nil
}

// pop returns the most recently recycled tab of the live session. Tabs left
// behind by a session that was dropped but not yet purged are closed.
func (p *tabPool) pop() *pooledTab {
	var stale []*pooledTab
	defer func() {
		for _, t := range stale {
			p.closeTab(t)
		}
	}()

	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.sessions.currentGeneration()
	for n := len(p.idle); n > 0; n = len(p.idle) {
		t := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		if t.generation != current {
			stale = append(stale, t)
			continue
		}
		p.reused++
		return t
	}
	return nil
}

// recycle returns a tab that completed a conversion. Tabs from a replaced
// session, or beyond the idle cap, are closed instead.
func (p *tabPool) recycle(t *pooledTab) {
	defer p.sessions.releaseLease()

	p.mu.Lock()
	if t.generation == p.sessions.currentGeneration() && len(p.idle) < p.maxIdle {
		p.idle = append(p.idle, t)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.closeTab(t)
}

// discard closes a tab whose conversion failed. Its state is unknown, so it
// never returns to the pool.
func (p *tabPool) discard(t *pooledTab) {
	defer p.sessions.releaseLease()

	p.mu.Lock()
	p.discarded++
	p.mu.Unlock()

	p.closeTab(t)
}

// purge closes every idle tab.
func (p *tabPool) purge() {
	p.mu.Lock()
	tabs := p.idle
	p.idle = nil
	p.mu.Unlock()

	if len(tabs) > 0 {
		p.logger.Debug("purging idle tabs", slog.Int("count", len(tabs)))
	}
	for _, t := range tabs {
		p.closeTab(t)
	}
}

func (p *tabPool) closeTab(t *pooledTab) {
	if err := t.Close(); err != nil {
		p.logger.Debug("tab close failed",
			slog.Uint64("generation", t.generation),
			slog.Any("error", err))
	}
}

// poolStats is a snapshot of pool counters.
type poolStats struct {
	idle      int
	created   int
	reused    int
	discarded int
}

func (p *tabPool) stats() poolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return poolStats{
		idle:      len(p.idle),
		created:   p.created,
		reused:    p.reused,
		discarded: p.discarded,
	}
}
