package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/hints"
	"github.com/alnah/go-html2pdf/internal/markup"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput           = errors.New("no input specified")
	ErrReadInput         = errors.New("failed to read input file")
	ErrWriteOutput       = errors.New("failed to write output")
	ErrOutputConflict    = errors.New("output path is a single .pdf file but several inputs were given")
	ErrConversionsFailed = errors.New("conversions failed")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// maxInputBytes bounds a single input document.
const maxInputBytes = 64 << 20

// ConversionResult holds the outcome of a single file.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Size       int
	Err        error
}

// runConvert converts every input file with one shared converter.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	cfg, err := loadSettings(&flags.common, &flags.browser, &flags.page, env)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, &flags.common, env, "warn")
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if len(positionalArgs) == 0 {
		return ErrNoInput
	}

	var files []FileToConvert
	for _, arg := range positionalArgs {
		found, err := discoverFiles(arg, flags.output)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no HTML or Markdown files in %s", ErrNoInput, strings.Join(positionalArgs, ", "))
	}
	if len(files) > 1 && strings.HasSuffix(strings.ToLower(flags.output), ".pdf") {
		return ErrOutputConflict
	}

	conv, err := env.NewConverter(append(cfg.ConverterOptions(), html2pdf.WithLogger(logger))...)
	if err != nil {
		return err
	}
	defer func() { _ = conv.Close() }()

	start := time.Now()
	results := make([]ConversionResult, len(files))
	reqs, index, err := loadInputs(ctx, files, flags.style, results)
	if err != nil {
		return err
	}

	for j, r := range conv.ConvertBatchResults(ctx, reqs) {
		i := index[j]
		if r.Err != nil {
			results[i].Err = r.Err
			continue
		}
		results[i].Size = len(r.PDF)
		results[i].Err = writePDF(results[i].OutputPath, r.PDF)
	}

	failed, firstErr := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if flags.common.verbose {
		s := conv.Stats()
		fmt.Fprintf(env.Stderr, "%d files in %v (tabs created %d, reused %d, browser restarts %d)\n",
			len(results), time.Since(start).Round(time.Millisecond), s.Created, s.Reused, s.Restarts)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d: %w", ErrConversionsFailed, failed, len(results), firstErr)
	}
	return nil
}

// loadInputs reads every file and renders Markdown. Read failures are
// recorded in results and the file is left out of the returned requests;
// index maps each request back to its file.
func loadInputs(ctx context.Context, files []FileToConvert, style string, results []ConversionResult) ([]html2pdf.Request, []int, error) {
	var renderer *markup.Renderer
	reqs := make([]html2pdf.Request, 0, len(files))
	index := make([]int, 0, len(files))

	for i, f := range files {
		results[i] = ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath}

		data, err := fileutil.ReadLimited(f.InputPath, maxInputBytes)
		if err != nil {
			results[i].Err = fmt.Errorf("%w: %w", ErrReadInput, err)
			continue
		}
		content := string(data)

		if f.Markdown {
			if renderer == nil {
				if renderer, err = markup.New(style); err != nil {
					return nil, nil, err
				}
			}
			title := strings.TrimSuffix(filepath.Base(f.InputPath), filepath.Ext(f.InputPath))
			if content, err = renderer.Render(ctx, title, content); err != nil {
				results[i].Err = err
				continue
			}
		}

		reqs = append(reqs, html2pdf.Request{HTML: content})
		index = append(index, i)
	}
	return reqs, index, nil
}

func writePDF(path string, pdf []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: %w%s", ErrWriteOutput, err, hints.ForOutputDirectory())
	}
	if err := fileutil.WriteAtomic(path, pdf, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// printResults outputs per-file results and returns the failure count and
// the first failure.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) (int, error) {
	var (
		failed   int
		firstErr error
	)
	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d bytes)\n", r.InputPath, r.OutputPath, r.Size)
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed, firstErr
}

// hintFor returns an actionable hint for a conversion error, if any.
func hintFor(err error) string {
	switch {
	case errors.Is(err, html2pdf.ErrBrowserConnect), errors.Is(err, html2pdf.ErrPageCreate):
		return hints.ForBrowserConnect()
	case errors.Is(err, html2pdf.ErrWaitReady), errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, html2pdf.ErrInvalidOption):
		return hints.ForInvalidOption()
	default:
		return ""
	}
}
