// Package html2pdf converts HTML documents to PDF using headless Chrome.
//
// # Quick Start
//
// Create a converter, convert HTML, and close when done:
//
//	conv, err := html2pdf.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	pdf, err := conv.Convert(ctx, "<h1>Hello</h1>", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.pdf", pdf, 0644)
//
// # Conversion Pipeline
//
// Each conversion follows these stages:
//
//  1. Validation (empty HTML, malformed options) before any browser work
//  2. Tab acquisition from the pool, starting the browser on first use
//  3. Navigation to the document, embedded as a data: URL
//  4. Wait for the body element (bounded by WithTimeout)
//  5. Printing via the DevTools protocol, then the tab returns to the pool
//
// A tab that fails any stage is closed rather than reused. When a new tab
// cannot be created the browser is presumed dead: it is replaced once and
// the pool is emptied, so no tab from the old browser is handed out again.
//
// # Page Options
//
// Per-conversion options are passed via Options:
//
//	pdf, err := conv.Convert(ctx, html, &html2pdf.Options{
//	    PageSize:        "Letter",
//	    PageOrientation: "Landscape",
//	    MarginTop:       "1in",
//	    MarginBottom:    "20mm",
//	    FooterHTML:      `<span class="pageNumber"></span>`,
//	})
//
// Margins accept "in", "mm" and "cm" suffixes; a bare number is millimeters.
//
// # Batches
//
// ConvertBatch is all-or-nothing and returns PDFs in input order.
// ConvertBatchResults reports each item separately:
//
//	results := conv.ConvertBatchResults(ctx, []html2pdf.Request{
//	    {HTML: a},
//	    {HTML: b, Options: &html2pdf.Options{PageSize: "A5"}},
//	})
//
// Parallelism defaults to GOMAXPROCS; use WithWorkers to change it.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The default go-rod backend
// downloads a managed Chromium on first run (~/.cache/rod/browser/) when
// none is found. Use WithBrowserBin for a specific binary, WithRemoteURL to
// attach to a running browser, or WithBackend(BackendChromedp) to drive it
// with chromedp instead.
package html2pdf
