package main

import (
	"context"
	"io"
	"os"

	"github.com/alnah/go-html2pdf"
	"github.com/go-rod/rod/lib/launcher"
)

// Converter is the conversion API the commands use.
type Converter interface {
	Convert(ctx context.Context, html string, opts *html2pdf.Options) ([]byte, error)
	ConvertBatch(ctx context.Context, reqs []html2pdf.Request) ([][]byte, error)
	ConvertBatchResults(ctx context.Context, reqs []html2pdf.Request) []html2pdf.Result
	Stats() html2pdf.Stats
	Close() error
}

// Compile-time interface implementation check.
var _ Converter = (*html2pdf.Converter)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string

	// NewConverter builds the converter for convert, serve and doctor.
	NewConverter func(opts ...html2pdf.Option) (Converter, error)

	// LookPath locates a local Chrome/Chromium binary.
	LookPath func() (string, bool)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
		NewConverter: func(opts ...html2pdf.Option) (Converter, error) {
			return html2pdf.NewConverter(opts...)
		},
		LookPath: launcher.LookPath,
	}
}
