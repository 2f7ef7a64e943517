// Package markup renders Markdown to standalone HTML documents ready for
// PDF conversion.
package markup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// ErrRender indicates Markdown rendering failed.
var ErrRender = errors.New("markdown rendering failed")

// DefaultStyle is the chroma style used for code blocks.
const DefaultStyle = "github"

// documentTemplate wraps goldmark's fragment output in a complete HTML5
// document: title, stylesheet, body.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
%s
%s
</style>
</head>
<body>
%s
</body>
</html>`

// baseCSS keeps printed Markdown readable without an external stylesheet.
const baseCSS = `body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; font-size: 11pt; line-height: 1.5; color: #24292f; }
h1, h2, h3 { page-break-after: avoid; }
pre { padding: 0.8em; overflow-x: auto; border-radius: 4px; page-break-inside: avoid; }
code { font-family: ui-monospace, Menlo, Consolas, monospace; font-size: 0.9em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d0d7de; padding: 4px 8px; }
blockquote { margin-left: 0; padding-left: 1em; border-left: 4px solid #d0d7de; color: #57606a; }
img { max-width: 100%; }`

// Renderer converts Markdown using goldmark (pure Go).
type Renderer struct {
	md        goldmark.Markdown
	chromaCSS string
}

// New creates a Renderer with GFM extensions, footnotes and syntax
// highlighting in the given chroma style. An unknown style falls back to
// chroma's default.
func New(style string) (*Renderer, error) {
	if style == "" {
		style = DefaultStyle
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var css bytes.Buffer
	if err := formatter.WriteCSS(&css, styles.Get(style)); err != nil {
		return nil, fmt.Errorf("%w: style %q: %v", ErrRender, style, err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
			// Raw HTML in the source is not passed through (no WithUnsafe).
		),
	)
	return &Renderer{md: md, chromaCSS: css.String()}, nil
}

// Render converts Markdown content to a standalone HTML5 document.
// Goldmark has no context support, so rendering runs in a goroutine and
// Render returns early on cancellation.
func (r *Renderer) Render(ctx context.Context, title, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrRender, err)}
			return
		}
		if strings.TrimSpace(title) == "" {
			title = "Document"
		}
		done <- result{html: fmt.Sprintf(documentTemplate, html.EscapeString(title), baseCSS, r.chromaCSS, buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.html, res.err
	}
}

// IsMarkdownPath reports whether path has a Markdown extension.
func IsMarkdownPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
