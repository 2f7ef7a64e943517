package html2pdf

// Notes:
// - mockLauncher/mockBrowser/mockTab stand in for a real Chrome so the
//   lifecycle (session restarts, pool reuse, discards) can be driven
//   deterministically.
// - A mockBrowser marked dead fails NewTab and every operation on its tabs,
//   which is how a crashed browser process looks through the DevTools API.
// - failOn inspects the decoded document, letting batch tests fail
//   specific items.

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Compile-time interface checks
var (
	_ Browser = (*mockBrowser)(nil)
	_ Tab     = (*mockTab)(nil)
)

var errMockDead = errors.New("mock: browser is dead")

// ---------------------------------------------------------------------------
// Mock Launcher
// ---------------------------------------------------------------------------

type mockLauncher struct {
	mu       sync.Mutex
	errs     []error // consumed one per launch; nil entries succeed
	browsers []*mockBrowser

	// configure runs on every browser before it is returned.
	configure func(b *mockBrowser)

	// delay slows every launch down, widening race windows in tests.
	delay time.Duration
}

func (l *mockLauncher) launch(ctx context.Context) (Browser, error) {
	if l.delay > 0 {
		time.Sleep(l.delay)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	b := &mockBrowser{pdf: []byte("%PDF-1.4 mock")}
	if l.configure != nil {
		l.configure(b)
	}
	l.browsers = append(l.browsers, b)
	return b, nil
}

func (l *mockLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.browsers)
}

func (l *mockLauncher) browser(i int) *mockBrowser {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.browsers[i]
}

// ---------------------------------------------------------------------------
// Mock Browser
// ---------------------------------------------------------------------------

type mockBrowser struct {
	mu     sync.Mutex
	dead   bool
	closed bool
	tabs   []*mockTab

	// Behavior shared by every tab of this browser.
	navErr   error
	waitErr  error
	printErr error
	pdf      []byte
	failOn   func(html string) error
	panicMsg string
	delay    time.Duration
	delayFor func(html string) time.Duration // per-document delay, overrides delay
	echo     bool                            // PDF output carries the rendered document
	printed  []string                        // documents in completion order

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (b *mockBrowser) NewTab(ctx context.Context) (Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead || b.closed {
		return nil, errMockDead
	}
	t := &mockTab{browser: b}
	b.tabs = append(b.tabs, t)
	return t, nil
}

func (b *mockBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *mockBrowser) kill() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dead = true
}

func (b *mockBrowser) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *mockBrowser) isDead() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dead || b.closed
}

func (b *mockBrowser) completionOrder() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.printed...)
}

func (b *mockBrowser) tabCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tabs)
}

func (b *mockBrowser) tab(i int) *mockTab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tabs[i]
}

// ---------------------------------------------------------------------------
// Mock Tab
// ---------------------------------------------------------------------------

type mockTab struct {
	browser *mockBrowser
	closed  atomic.Bool

	mu         sync.Mutex
	url        string
	selector   string
	timeout    time.Duration
	params     *PrintParams
	conversion int // successful prints on this tab
}

func (t *mockTab) Navigate(ctx context.Context, url string) error {
	if t.browser.isDead() {
		return errMockDead
	}
	t.mu.Lock()
	t.url = url
	t.mu.Unlock()

	if t.browser.failOn != nil {
		if err := t.browser.failOn(decodeDataURL(url)); err != nil {
			return err
		}
	}
	return t.browser.navErr
}

func (t *mockTab) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	if t.browser.isDead() {
		return errMockDead
	}
	t.mu.Lock()
	t.selector = selector
	t.timeout = timeout
	t.mu.Unlock()
	return t.browser.waitErr
}

func (t *mockTab) PrintPDF(ctx context.Context, params *PrintParams) ([]byte, error) {
	b := t.browser
	if b.isDead() {
		return nil, errMockDead
	}
	if b.panicMsg != "" {
		panic(b.panicMsg)
	}

	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		cur := b.maxInFlight.Load()
		if n <= cur || b.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	t.mu.Lock()
	url := t.url
	t.mu.Unlock()

	delay := b.delay
	if b.delayFor != nil {
		delay = b.delayFor(decodeDataURL(url))
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	t.mu.Lock()
	t.params = params
	t.conversion++
	t.mu.Unlock()

	b.mu.Lock()
	b.printed = append(b.printed, decodeDataURL(url))
	b.mu.Unlock()

	if b.printErr != nil {
		return nil, b.printErr
	}
	if b.echo {
		return append(append([]byte{}, b.pdf...), decodeDataURL(url)...), nil
	}
	return b.pdf, nil
}

func (t *mockTab) Close() error {
	t.closed.Store(true)
	return nil
}

func (t *mockTab) lastURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

func (t *mockTab) lastParams() *PrintParams {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params
}

// decodeDataURL extracts the document from a base64 data: URL.
func decodeDataURL(url string) string {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:text/html;base64,"))
	if err != nil {
		return ""
	}
	return string(raw)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newTestConverter builds a Converter on a mock launcher. Idle shutdown is
// off unless a test opts back in.
func newTestConverter(t *testing.T, l *mockLauncher, opts ...Option) *Converter {
	t.Helper()

	all := append([]Option{WithLauncher(l.launch), WithIdleTimeout(0)}, opts...)
	c, err := NewConverter(all...)
	if err != nil {
		t.Fatalf("NewConverter() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func boolPtr(v bool) *bool {
	return &v
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
