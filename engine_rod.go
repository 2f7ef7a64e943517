package html2pdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-html2pdf/internal/process"
)

// Compile-time interface checks
var (
	_ Browser = (*rodBrowser)(nil)
	_ Tab     = (*rodTab)(nil)
)

// rodBrowser implements Browser using go-rod.
// Rod downloads Chromium on first launch when no binary is found.
type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher // nil when connected to a remote browser
}

// rodLauncher returns a Launcher that starts a headless Chrome with the fixed
// flag profile, or attaches to cfg.RemoteURL when set.
func rodLauncher(cfg LaunchConfig) Launcher {
	return func(ctx context.Context) (Browser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cfg.RemoteURL != "" {
			return connectRemoteRod(cfg.RemoteURL)
		}

		l := launcher.New().Headless(true).NoSandbox(true)
		for _, f := range launchFlags {
			l = l.Set(flags.Flag(f))
		}
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launching browser: %w", err)
		}

		b := rod.New().ControlURL(u)
		if err := b.Connect(); err != nil {
			killLauncher(l)
			return nil, fmt.Errorf("connecting to browser: %w", err)
		}
		return &rodBrowser{browser: b, launcher: l}, nil
	}
}

// connectRemoteRod attaches to a running browser. Work happens in an
// incognito context so that Close disposes only what this process created.
func connectRemoteRod(remoteURL string) (Browser, error) {
	u, err := launcher.ResolveURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", remoteURL, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", remoteURL, err)
	}

	incognito, err := b.Incognito()
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	return &rodBrowser{browser: incognito}, nil
}

func (b *rodBrowser) NewTab(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, err
	}
	return &rodTab{page: page}, nil
}

// Close shuts the browser down. For a launched browser the whole process
// tree is killed afterwards, since renderer processes can outlive a
// graceful close.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	if b.launcher != nil {
		killLauncher(b.launcher)
	}
	return err
}

func killLauncher(l *launcher.Launcher) {
	if pid := l.PID(); pid > 0 {
		_ = process.KillTree(pid)
	}
	l.Kill()
	l.Cleanup()
}

// rodTab implements Tab over a rod page.
type rodTab struct {
	page *rod.Page

	// find looks up the readiness element; nil means page.Element.
	find func(p *rod.Page, selector string) error
}

func (t *rodTab) Navigate(ctx context.Context, url string) error {
	return t.page.Context(ctx).Navigate(url)
}

func (t *rodTab) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	p := t.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	if t.find != nil {
		return t.find(p, selector)
	}
	_, err := p.Element(selector)
	return err
}

func (t *rodTab) PrintPDF(ctx context.Context, params *PrintParams) ([]byte, error) {
	reader, err := t.page.Context(ctx).PDF(rodPrintOptions(params))
	if err != nil {
		return nil, err
	}
	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %w", err)
	}
	return pdf, nil
}

func (t *rodTab) Close() error {
	return t.page.Close()
}

// rodPrintOptions maps print parameters to the CDP request. Nil fields keep
// the engine defaults.
func rodPrintOptions(p *PrintParams) *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		Landscape:           p.Landscape,
		DisplayHeaderFooter: p.DisplayHeaderFooter,
		PrintBackground:     p.PrintBackground,
		Scale:               p.Scale,
		PaperWidth:          floatPtr(p.PaperWidth),
		PaperHeight:         floatPtr(p.PaperHeight),
		MarginTop:           p.MarginTop,
		MarginBottom:        p.MarginBottom,
		MarginLeft:          p.MarginLeft,
		MarginRight:         p.MarginRight,
		HeaderTemplate:      p.HeaderTemplate,
		FooterTemplate:      p.FooterTemplate,
	}
}
