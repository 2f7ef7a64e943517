package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/markup"
	"github.com/alnah/go-html2pdf/internal/server"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// runServe runs the HTTP API until ctx is canceled, then drains in-flight
// requests and closes the browser.
func runServe(ctx context.Context, flags *serveFlags, env *Environment) error {
	cfg, err := loadSettings(&flags.common, &flags.browser, &flags.page, env)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}

	logger, closer, err := newLogger(cfg, &flags.common, env, "")
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	conv, err := env.NewConverter(append(cfg.ConverterOptions(), html2pdf.WithLogger(logger))...)
	if err != nil {
		return err
	}
	defer func() {
		if err := conv.Close(); err != nil {
			logger.Warn("closing converter", "error", err)
		}
	}()

	md, err := markup.New("")
	if err != nil {
		return err
	}

	handler := server.NewServer(conv, md, server.Config{
		Version:        Version,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MaxBatchSize:   cfg.Server.MaxBatchSize,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("html2pdf listening", "addr", ln.Addr().String(), "docs", "http://"+ln.Addr().String()+"/docs")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
