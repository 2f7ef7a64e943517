package html2pdf

import (
	"log/slog"
	"time"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout     time.Duration
	workers     int
	maxIdleTabs int // -1 = follow workers
	idleTimeout time.Duration
	backend     string
	launch      LaunchConfig
	launcher    Launcher
	defaults    *Options
}

// Defaults applied when no option overrides them.
const (
	// defaultTimeout bounds the wait for the document body.
	defaultTimeout = 30 * time.Second

	// defaultIdleTimeout closes a browser nobody has used for this long.
	defaultIdleTimeout = 600 * time.Second
)

// readySelector is the element whose presence marks a document as ready
// to print.
const readySelector = "body"

// WithTimeout sets how long a conversion waits for the document body.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("html2pdf: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithWorkers sets batch parallelism. Zero selects GOMAXPROCS.
// Panics if n < 0.
func WithWorkers(n int) Option {
	if n < 0 {
		panic("html2pdf: WithWorkers count must not be negative")
	}
	return func(c *Converter) {
		c.cfg.workers = n
	}
}

// WithMaxIdleTabs caps how many idle tabs are kept for reuse. Zero disables
// reuse; by default the cap equals the resolved worker count.
// Panics if n < 0.
func WithMaxIdleTabs(n int) Option {
	if n < 0 {
		panic("html2pdf: WithMaxIdleTabs count must not be negative")
	}
	return func(c *Converter) {
		c.cfg.maxIdleTabs = n
	}
}

// WithIdleTimeout closes the browser after d without conversions; the next
// conversion starts a new one. Zero keeps the browser until Close.
// Panics if d < 0.
func WithIdleTimeout(d time.Duration) Option {
	if d < 0 {
		panic("html2pdf: WithIdleTimeout duration must not be negative")
	}
	return func(c *Converter) {
		c.cfg.idleTimeout = d
	}
}

// WithBackend selects the browser driver: BackendRod (default) or
// BackendChromedp. Unknown names make NewConverter fail.
func WithBackend(name string) Option {
	return func(c *Converter) {
		c.cfg.backend = name
	}
}

// WithBrowserBin uses a specific Chrome/Chromium binary instead of
// auto-detection.
func WithBrowserBin(path string) Option {
	return func(c *Converter) {
		c.cfg.launch.Bin = path
	}
}

// WithRemoteURL attaches to an already-running browser through its DevTools
// endpoint (ws:// or http://host:port) instead of launching one.
func WithRemoteURL(url string) Option {
	return func(c *Converter) {
		c.cfg.launch.RemoteURL = url
	}
}

// WithLauncher replaces the built-in backends with a custom Launcher.
// Panics if l is nil.
func WithLauncher(l Launcher) Option {
	if l == nil {
		panic("html2pdf: WithLauncher launcher must not be nil")
	}
	return func(c *Converter) {
		c.cfg.launcher = l
	}
}

// WithLogger routes lifecycle events to logger. Panics if logger is nil.
func WithLogger(logger *slog.Logger) Option {
	if logger == nil {
		panic("html2pdf: WithLogger logger must not be nil")
	}
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithDefaultOptions sets the options used when Convert receives nil.
func WithDefaultOptions(opts Options) Option {
	return func(c *Converter) {
		c.cfg.defaults = &opts
	}
}
