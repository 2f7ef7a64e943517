package html2pdf

import (
	"context"
	"fmt"
	"time"
)

// Browser abstracts a running browser engine session so the lifecycle
// layer can be exercised without a real Chrome.
type Browser interface {
	// NewTab opens a fresh execution context. An error usually means the
	// browser process is dead or disconnected.
	NewTab(ctx context.Context) (Tab, error)
	Close() error
}

// Tab abstracts one execution context inside a Browser.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error
	PrintPDF(ctx context.Context, params *PrintParams) ([]byte, error)
	Close() error
}

// Launcher starts a browser engine, or connects to one, and returns the
// session handle. It is called lazily, at most once per session.
type Launcher func(ctx context.Context) (Browser, error)

// Backend names accepted by WithBackend.
const (
	BackendRod      = "rod"
	BackendChromedp = "chromedp"
)

// launchFlags are passed to every browser the library launches itself.
// Headless mode is set separately by each backend.
var launchFlags = []string{
	"no-sandbox",
	"disable-setuid-sandbox",
	"disable-gpu",
	"disable-dev-shm-usage",
}

// LaunchConfig describes where the browser comes from.
type LaunchConfig struct {
	Bin       string // Chrome/Chromium binary (empty = backend auto-detection)
	RemoteURL string // connect to an already-running browser instead of launching
}

// newLauncher returns the built-in Launcher for a backend name.
func newLauncher(backend string, cfg LaunchConfig) (Launcher, error) {
	switch backend {
	case "", BackendRod:
		return rodLauncher(cfg), nil
	case BackendChromedp:
		return chromedpLauncher(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q (must be %s or %s)", ErrInvalidOption, backend, BackendRod, BackendChromedp)
	}
}
