package html2pdf

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Converter renders HTML documents to PDF through one shared browser
// session and a pool of reusable tabs. It is safe for concurrent use.
// Create with NewConverter, use Convert or ConvertBatch, and Close when done.
type Converter struct {
	cfg      converterConfig
	logger   *slog.Logger
	workers  int
	sessions *sessionManager
	pool     *tabPool

	closeOnce sync.Once
	closeErr  error
}

// NewConverter creates a Converter. The browser is not started until the
// first conversion. Returns ErrInvalidOption for an unknown backend or
// invalid default options.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:     defaultTimeout,
			maxIdleTabs: -1,
			idleTimeout: defaultIdleTimeout,
		},
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.defaults.Validate(); err != nil {
		return nil, fmt.Errorf("default options: %w", err)
	}

	launch := c.cfg.launcher
	if launch == nil {
		var err error
		launch, err = newLauncher(c.cfg.backend, c.cfg.launch)
		if err != nil {
			return nil, err
		}
	}

	c.workers = ResolveWorkers(c.cfg.workers)
	maxIdle := c.cfg.maxIdleTabs
	if maxIdle < 0 {
		maxIdle = c.workers
	}

	c.sessions = newSessionManager(launch, c.cfg.idleTimeout, c.logger)
	c.pool = newTabPool(c.sessions, maxIdle, c.logger)
	return c, nil
}

// Convert renders one HTML document to PDF bytes. A nil opts uses the
// converter's default options.
//
// Input and options are validated before any browser resource is touched:
// whitespace-only HTML returns ErrEmptyHTML, malformed options return
// ErrInvalidOption. Browser failures wrap ErrBrowser plus the failing step.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, html string, opts *Options) (pdf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: internal error: %v", ErrBrowser, r)
		}
	}()

	params, err := c.prepare(html, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	pdf, err = c.render(ctx, dataURL(html), params)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("converted document",
		slog.Int("html_bytes", len(html)),
		slog.Int("pdf_bytes", len(pdf)),
		slog.Duration("duration", time.Since(start)))
	return pdf, nil
}

// prepare validates input and translates options.
func (c *Converter) prepare(html string, opts *Options) (*PrintParams, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyHTML
	}
	if opts == nil {
		opts = c.cfg.defaults
	}
	return opts.Translate()
}

// render drives one tab through navigate, wait and print. The tab goes back
// to the pool only when every step succeeded.
func (c *Converter) render(ctx context.Context, url string, params *PrintParams) ([]byte, error) {
	tab, err := c.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}

	ok := false
	defer func() {
		if ok {
			c.pool.recycle(tab)
			return
		}
		c.logger.Debug("discarding tab", slog.Uint64("generation", tab.generation))
		c.pool.discard(tab)
	}()

	if err := tab.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrBrowser, ErrNavigation, err)
	}
	if err := tab.WaitReady(ctx, readySelector, c.waitTimeout(ctx)); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrBrowser, ErrWaitReady, err)
	}
	pdf, err := tab.PrintPDF(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrBrowser, ErrPDFGeneration, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: %w: empty output", ErrBrowser, ErrPDFGeneration)
	}

	ok = true
	return pdf, nil
}

// waitTimeout returns the readiness timeout, shortened to the context
// deadline when that comes first.
func (c *Converter) waitTimeout(ctx context.Context) time.Duration {
	timeout := c.cfg.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = max(remaining, time.Millisecond)
		}
	}
	return timeout
}

// dataURL embeds a document in a data: URL so no file or server is needed.
func dataURL(html string) string {
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))
}

// DefaultOptions returns a copy of the options used when Convert gets nil.
func (c *Converter) DefaultOptions() Options {
	if c.cfg.defaults == nil {
		return Options{}
	}
	return *c.cfg.defaults
}

// Workers returns the resolved batch parallelism.
func (c *Converter) Workers() int {
	return c.workers
}

// Stats is a snapshot of session and tab pool counters.
type Stats struct {
	Idle          int    `json:"idle"`           // tabs waiting for reuse
	Created       int    `json:"created"`        // tabs ever created
	Reused        int    `json:"reused"`         // acquisitions served from the pool
	Discarded     int    `json:"discarded"`      // tabs closed after a failed conversion
	Restarts      int    `json:"restarts"`       // sessions replaced after a failure
	Generation    uint64 `json:"generation"`     // sessions started so far
	SessionActive bool   `json:"session_active"` // a browser is currently running
}

// Stats returns current counters.
func (c *Converter) Stats() Stats {
	ps := c.pool.stats()
	ss := c.sessions.stats()
	return Stats{
		Idle:          ps.idle,
		Created:       ps.created,
		Reused:        ps.reused,
		Discarded:     ps.discarded,
		Restarts:      ss.restarts,
		Generation:    ss.generation,
		SessionActive: ss.active,
	}
}

// Close releases the browser and every pooled tab. Later conversions fail
// with ErrClosed. Close is idempotent.
func (c *Converter) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.sessions.close()
		c.pool.purge()
	})
	return c.closeErr
}
