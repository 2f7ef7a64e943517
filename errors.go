package html2pdf

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyHTML     = errors.New("HTML content is empty")
	ErrInvalidOption = errors.New("invalid PDF option")

	// ErrBrowser covers every failure of the browser engine: process start,
	// tab creation, navigation, readiness wait and rendering. The refinements
	// below are always wrapped together with it.
	ErrBrowser = errors.New("browser error")

	ErrBrowserConnect = errors.New("failed to start browser")
	ErrPageCreate     = errors.New("failed to create browser tab")
	ErrNavigation     = errors.New("navigation failed")
	ErrWaitReady      = errors.New("wait for body failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")

	// Reserved for the surrounding I/O layer (CLI, HTTP server).
	ErrGenerationFailed = errors.New("generation failed")
	ErrIO               = errors.New("I/O error")
	ErrEncoding         = errors.New("encoding error")

	ErrClosed = errors.New("converter is closed")
)
