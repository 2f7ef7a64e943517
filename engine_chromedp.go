package html2pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Compile-time interface checks
var (
	_ Browser = (*chromedpBrowser)(nil)
	_ Tab     = (*chromedpTab)(nil)
)

// chromedpBrowser implements Browser with chromedp. The browser context is
// the first context created on the allocator; each tab is a child context.
type chromedpBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	remote      bool
}

// chromedpLauncher returns a Launcher backed by a chromedp exec allocator,
// or by a remote allocator when cfg.RemoteURL is set.
func chromedpLauncher(cfg LaunchConfig) Launcher {
	return func(ctx context.Context) (Browser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var allocCtx context.Context
		var allocCancel context.CancelFunc
		if cfg.RemoteURL != "" {
			allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		} else {
			opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
			for _, f := range launchFlags {
				opts = append(opts, chromedp.Flag(f, true))
			}
			if cfg.Bin != "" {
				opts = append(opts, chromedp.ExecPath(cfg.Bin))
			}
			allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		}

		bctx, bcancel := chromedp.NewContext(allocCtx)
		// The first Run allocates the browser and must use the browser
		// context itself; the caller's ctx only bounds the wait.
		stop := context.AfterFunc(ctx, bcancel)
		err := chromedp.Run(bctx)
		stop()
		if err != nil {
			bcancel()
			allocCancel()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("starting browser: %w", err)
		}

		return &chromedpBrowser{
			ctx:         bctx,
			cancel:      bcancel,
			allocCancel: allocCancel,
			remote:      cfg.RemoteURL != "",
		}, nil
	}
}

func (b *chromedpBrowser) NewTab(ctx context.Context) (Tab, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, fmt.Errorf("browser context closed: %w", err)
	}

	tctx, tcancel := chromedp.NewContext(b.ctx)
	stop := context.AfterFunc(ctx, tcancel)
	err := chromedp.Run(tctx)
	stop()
	if err != nil {
		tcancel()
		return nil, err
	}
	return &chromedpTab{ctx: tctx, cancel: tcancel}, nil
}

// Close ends the session. A launched browser is shut down gracefully; for a
// remote browser only the connection and the tabs created here go away.
func (b *chromedpBrowser) Close() error {
	var err error
	if b.remote {
		b.cancel()
	} else {
		err = chromedp.Cancel(b.ctx)
	}
	b.allocCancel()
	return err
}

// chromedpTab implements Tab over a chromedp target context.
type chromedpTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab, bounded by both the caller's ctx and an
// optional timeout, without tying the tab's lifetime to either.
func (t *chromedpTab) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (t *chromedpTab) Navigate(ctx context.Context, url string) error {
	return t.run(ctx, 0, chromedp.Navigate(url))
}

func (t *chromedpTab) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	return t.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (t *chromedpTab) PrintPDF(ctx context.Context, params *PrintParams) ([]byte, error) {
	var pdf []byte
	err := t.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		buf, _, err := chromedpPrintParams(params).Do(ctx)
		if err != nil {
			return err
		}
		pdf = buf
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

func (t *chromedpTab) Close() error {
	err := chromedp.Cancel(t.ctx)
	t.cancel()
	return err
}

// chromedpPrintParams maps print parameters to the CDP command builder.
func chromedpPrintParams(p *PrintParams) *page.PrintToPDFParams {
	params := page.PrintToPDF().
		WithLandscape(p.Landscape).
		WithDisplayHeaderFooter(p.DisplayHeaderFooter).
		WithPrintBackground(p.PrintBackground).
		WithPaperWidth(p.PaperWidth).
		WithPaperHeight(p.PaperHeight)

	if p.Scale != nil {
		params = params.WithScale(*p.Scale)
	}
	if p.MarginTop != nil {
		params = params.WithMarginTop(*p.MarginTop)
	}
	if p.MarginRight != nil {
		params = params.WithMarginRight(*p.MarginRight)
	}
	if p.MarginBottom != nil {
		params = params.WithMarginBottom(*p.MarginBottom)
	}
	if p.MarginLeft != nil {
		params = params.WithMarginLeft(*p.MarginLeft)
	}
	if p.HeaderTemplate != "" {
		params = params.WithHeaderTemplate(p.HeaderTemplate)
	}
	if p.FooterTemplate != "" {
		params = params.WithFooterTemplate(p.FooterTemplate)
	}
	return params
}
