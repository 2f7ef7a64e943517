package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// Exit codes for the html2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// ErrUsage marks command-line parsing failures.
var ErrUsage = errors.New("invalid usage")

// usageError wraps a flag parsing error so it maps to ExitUsage.
func usageError(err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, html2pdf.ErrBrowser) {
		return ExitBrowser
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrOutputConflict) ||
		errors.Is(err, ErrUnsupportedInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, config.ErrInvalidEnv) ||
		errors.Is(err, html2pdf.ErrEmptyHTML) ||
		errors.Is(err, html2pdf.ErrInvalidOption) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, fileutil.ErrFileTooLarge) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	return ExitGeneral
}
