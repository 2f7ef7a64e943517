package html2pdf

// Notes:
// - Converter tests inject a mock Launcher via WithLauncher, so every path
//   (validation, failures per step, restarts, panics) runs without Chrome.
// - Real rendering is covered by the integration tests.

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestNewConverter
// ---------------------------------------------------------------------------

func TestNewConverter_DoesNotStartBrowser(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l)

	if l.launches() != 0 {
		t.Errorf("launches = %d, want 0", l.launches())
	}
	if c.Stats().SessionActive {
		t.Error("SessionActive = true before first conversion")
	}
}

func TestNewConverter_UnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := NewConverter(WithBackend("webkit"))
	if !errors.Is(err, ErrInvalidOption) {
		t.Errorf("NewConverter() error = %v, want ErrInvalidOption", err)
	}
}

func TestNewConverter_InvalidDefaultOptions(t *testing.T) {
	t.Parallel()

	_, err := NewConverter(
		WithLauncher((&mockLauncher{}).launch),
		WithDefaultOptions(Options{MarginTop: "lots"}),
	)
	if !errors.Is(err, ErrInvalidOption) {
		t.Errorf("NewConverter() error = %v, want ErrInvalidOption", err)
	}
}

func TestNewConverter_KnownBackends(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{"", BackendRod, BackendChromedp} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			c, err := NewConverter(WithBackend(backend))
			if err != nil {
				t.Fatalf("NewConverter() unexpected error: %v", err)
			}
			// Nothing was launched, so Close has nothing to do.
			if err := c.Close(); err != nil {
				t.Errorf("Close() unexpected error: %v", err)
			}
		})
	}
}

func TestOptions_PanicOnInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func()
	}{
		{"WithTimeout zero", func() { WithTimeout(0) }},
		{"WithTimeout negative", func() { WithTimeout(-time.Second) }},
		{"WithWorkers negative", func() { WithWorkers(-1) }},
		{"WithMaxIdleTabs negative", func() { WithMaxIdleTabs(-1) }},
		{"WithIdleTimeout negative", func() { WithIdleTimeout(-time.Second) }},
		{"WithLauncher nil", func() { WithLauncher(nil) }},
		{"WithLogger nil", func() { WithLogger(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

// ---------------------------------------------------------------------------
// TestConvert - Validation
// ---------------------------------------------------------------------------

func TestConvert_EmptyHTML(t *testing.T) {
	t.Parallel()

	for _, html := range []string{"", " ", "\n\t  \r\n"} {
		l := &mockLauncher{}
		c := newTestConverter(t, l)

		_, err := c.Convert(context.Background(), html, nil)
		if !errors.Is(err, ErrEmptyHTML) {
			t.Errorf("Convert(%q) error = %v, want ErrEmptyHTML", html, err)
		}
		if l.launches() != 0 {
			t.Errorf("Convert(%q) started the browser", html)
		}
	}
}

func TestConvert_InvalidOptionsTouchNoResources(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l)

	nan := math.NaN()
	for _, opts := range []*Options{
		{MarginTop: "-1in"},
		{MarginTop: "inf"},
		{MarginRight: "nan"},
		{Scale: &nan},
	} {
		_, err := c.Convert(context.Background(), "<p>x</p>", opts)
		if !errors.Is(err, ErrInvalidOption) {
			t.Errorf("Convert(%+v) error = %v, want ErrInvalidOption", *opts, err)
		}
	}
	if l.launches() != 0 {
		t.Error("invalid options started the browser")
	}
}

func TestConvert_CancelledContext(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Convert(ctx, "<p>x</p>", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Convert() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestConvert - Happy Path
// ---------------------------------------------------------------------------

func TestConvert_Success(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l, WithTimeout(5*time.Second))

	html := "<html><body><h1>Hello</h1></body></html>"
	pdf, err := c.Convert(context.Background(), html, &Options{PageOrientation: "Landscape"})
	if err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("Convert() output = %q, want %%PDF prefix", pdf)
	}

	tab := l.browser(0).tab(0)
	if !strings.HasPrefix(tab.lastURL(), "data:text/html;base64,") {
		t.Errorf("navigated to %q, want a base64 data URL", tab.lastURL())
	}
	if got := decodeDataURL(tab.lastURL()); got != html {
		t.Errorf("embedded document = %q, want %q", got, html)
	}
	if tab.selector != readySelector {
		t.Errorf("waited for %q, want %q", tab.selector, readySelector)
	}
	if tab.timeout != 5*time.Second {
		t.Errorf("wait timeout = %v, want 5s", tab.timeout)
	}
	if !tab.lastParams().Landscape {
		t.Error("print params not translated from options")
	}
}

func TestConvert_ContextDeadlineShortensWait(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l, WithTimeout(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := c.Convert(ctx, "<p>x</p>", nil); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if got := l.browser(0).tab(0).timeout; got > 10*time.Second {
		t.Errorf("wait timeout = %v, want <= 10s", got)
	}
}

func TestConvert_DefaultOptions(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	defaults := Options{PageSize: "Letter", FooterHTML: "<span>f</span>"}
	c := newTestConverter(t, l, WithDefaultOptions(defaults))

	if got := c.DefaultOptions(); got.PageSize != "Letter" {
		t.Errorf("DefaultOptions().PageSize = %q, want Letter", got.PageSize)
	}

	if _, err := c.Convert(context.Background(), "<p>x</p>", nil); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	p := l.browser(0).tab(0).lastParams()
	if p.PaperWidth != 8.5 || !p.DisplayHeaderFooter {
		t.Errorf("nil options did not use defaults: %+v", p)
	}

	// Explicit options replace the defaults entirely.
	if _, err := c.Convert(context.Background(), "<p>x</p>", &Options{}); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	p = l.browser(0).tab(0).lastParams()
	if p.PaperWidth != 8.27 || p.DisplayHeaderFooter {
		t.Errorf("explicit options merged with defaults: %+v", p)
	}
}

func TestConvert_SequentialReuseSingleTab(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l)

	for i := range 5 {
		if _, err := c.Convert(context.Background(), "<p>x</p>", nil); err != nil {
			t.Fatalf("Convert() #%d unexpected error: %v", i, err)
		}
	}

	s := c.Stats()
	if s.Idle != 1 || s.Created != 1 {
		t.Errorf("stats = %+v, want idle=1 created=1", s)
	}
	if s.Reused != 4 {
		t.Errorf("reused = %d, want 4", s.Reused)
	}
	if l.launches() != 1 {
		t.Errorf("launches = %d, want 1", l.launches())
	}
}

// ---------------------------------------------------------------------------
// TestConvert - Failures
// ---------------------------------------------------------------------------

func TestConvert_StepFailuresDiscardTab(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	tests := []struct {
		name      string
		configure func(b *mockBrowser)
		wantStep  error
	}{
		{"navigate", func(b *mockBrowser) { b.navErr = cause }, ErrNavigation},
		{"wait", func(b *mockBrowser) { b.waitErr = cause }, ErrWaitReady},
		{"print", func(b *mockBrowser) { b.printErr = cause }, ErrPDFGeneration},
		{"empty output", func(b *mockBrowser) { b.pdf = nil }, ErrPDFGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := &mockLauncher{configure: tt.configure}
			c := newTestConverter(t, l)

			pdf, err := c.Convert(context.Background(), "<p>x</p>", nil)
			if pdf != nil {
				t.Errorf("Convert() returned partial output %q", pdf)
			}
			if !errors.Is(err, ErrBrowser) || !errors.Is(err, tt.wantStep) {
				t.Fatalf("Convert() error = %v, want ErrBrowser and %v", err, tt.wantStep)
			}

			s := c.Stats()
			if s.Idle != 0 || s.Discarded != 1 {
				t.Errorf("stats = %+v, want idle=0 discarded=1", s)
			}
			if !l.browser(0).tab(0).closed.Load() {
				t.Error("failed tab was not closed")
			}
		})
	}
}

func TestConvert_ErrorMessageNamesStep(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{configure: func(b *mockBrowser) { b.navErr = errors.New("net::ERR_ABORTED") }}
	c := newTestConverter(t, l)

	_, err := c.Convert(context.Background(), "<p>x</p>", nil)
	if err == nil || !strings.Contains(err.Error(), "navigation failed: net::ERR_ABORTED") {
		t.Errorf("Convert() error = %v, want step and cause in message", err)
	}
}

func TestConvert_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{configure: func(b *mockBrowser) { b.panicMsg = "renderer exploded" }}
	c := newTestConverter(t, l)

	_, err := c.Convert(context.Background(), "<p>x</p>", nil)
	if err == nil || !strings.Contains(err.Error(), "renderer exploded") {
		t.Fatalf("Convert() error = %v, want recovered panic", err)
	}
	if s := c.Stats(); s.Discarded != 1 || s.Idle != 0 {
		t.Errorf("stats = %+v, want the tab discarded", s)
	}
}

func TestConvert_RecoversFromDeadBrowser(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l, WithMaxIdleTabs(0))
	ctx := context.Background()

	if _, err := c.Convert(ctx, "<p>1</p>", nil); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}

	l.browser(0).kill()

	if _, err := c.Convert(ctx, "<p>2</p>", nil); err != nil {
		t.Fatalf("Convert() after crash unexpected error: %v", err)
	}

	s := c.Stats()
	if s.Restarts != 1 || s.Generation != 2 {
		t.Errorf("stats = %+v, want restarts=1 generation=2", s)
	}
	if s.Idle != 0 {
		t.Errorf("idle = %d, want 0", s.Idle)
	}
}

func TestConvert_StaleIdleTabFailsThenRecovers(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l)
	ctx := context.Background()

	if _, err := c.Convert(ctx, "<p>1</p>", nil); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	l.browser(0).kill()

	// The idle tab belongs to the dead browser; reusing it fails at
	// navigation and the tab is discarded, not the session.
	_, err := c.Convert(ctx, "<p>2</p>", nil)
	if !errors.Is(err, ErrNavigation) {
		t.Fatalf("Convert() error = %v, want ErrNavigation", err)
	}
	if s := c.Stats(); s.Idle != 0 || s.Restarts != 0 {
		t.Errorf("stats = %+v, want idle=0 restarts=0", s)
	}

	// With the pool empty, tab creation hits the dead browser and the
	// session is replaced.
	if _, err := c.Convert(ctx, "<p>3</p>", nil); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if s := c.Stats(); s.Restarts != 1 || s.Idle != 1 {
		t.Errorf("stats = %+v, want restarts=1 idle=1", s)
	}
}

// ---------------------------------------------------------------------------
// TestConverter_Close
// ---------------------------------------------------------------------------

func TestConverter_Close(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l)

	if _, err := c.Convert(context.Background(), "<p>x</p>", nil); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() unexpected error: %v", err)
	}

	if !l.browser(0).isClosed() {
		t.Error("browser not closed")
	}
	if !l.browser(0).tab(0).closed.Load() {
		t.Error("idle tab not closed")
	}

	_, err := c.Convert(context.Background(), "<p>x</p>", nil)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Convert() after Close error = %v, want ErrClosed", err)
	}
}

func TestConverter_IdleShutdownAndRestart(t *testing.T) {
	t.Parallel()

	l := &mockLauncher{}
	c := newTestConverter(t, l, WithIdleTimeout(30*time.Millisecond))
	ctx := context.Background()

	if _, err := c.Convert(ctx, "<p>1</p>", nil); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	if !eventually(t, 2*time.Second, func() bool { return !c.Stats().SessionActive }) {
		t.Fatal("idle session was not shut down")
	}
	if s := c.Stats(); s.Idle != 0 {
		t.Errorf("idle tabs = %d after shutdown, want 0", s.Idle)
	}

	if _, err := c.Convert(ctx, "<p>2</p>", nil); err != nil {
		t.Fatalf("Convert() after idle shutdown unexpected error: %v", err)
	}
	if l.launches() != 2 {
		t.Errorf("launches = %d, want 2", l.launches())
	}
}
