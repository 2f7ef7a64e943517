// Package server exposes a Converter over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alnah/go-html2pdf"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Converter is the subset of *html2pdf.Converter the API needs.
type Converter interface {
	Convert(ctx context.Context, html string, opts *html2pdf.Options) ([]byte, error)
	ConvertBatch(ctx context.Context, reqs []html2pdf.Request) ([][]byte, error)
	ConvertBatchResults(ctx context.Context, reqs []html2pdf.Request) []html2pdf.Result
	Stats() html2pdf.Stats
}

// MarkdownRenderer turns Markdown into a standalone HTML document.
type MarkdownRenderer interface {
	Render(ctx context.Context, title, content string) (string, error)
}

// Config holds HTTP-level limits.
type Config struct {
	Version        string
	MaxBodyBytes   int64
	MaxBatchSize   int
	RequestTimeout time.Duration // 0 disables the per-request deadline
}

// NewServer returns the API handler. md may be nil, in which case
// markdown requests are rejected.
func NewServer(conv Converter, md MarkdownRenderer, cfg Config, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	hcfg := huma.DefaultConfig("html2pdf API", version)
	api := humachi.New(router, hcfg)

	h := &handlers{conv: conv, md: md, cfg: cfg, version: version, logger: logger}
	h.register(api)

	return router
}

// mapErr converts conversion errors to HTTP status errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, html2pdf.ErrEmptyHTML), errors.Is(err, html2pdf.ErrInvalidOption):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout(err.Error())
	case errors.Is(err, html2pdf.ErrBrowser):
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
