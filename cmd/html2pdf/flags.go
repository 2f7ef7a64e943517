package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config   string
	envFile  string
	quiet    bool
	verbose  bool
	logLevel string
	logFile  string
}

// browserFlags holds browser and pool flags.
type browserFlags struct {
	backend   string
	bin       string
	remoteURL string
	timeout   time.Duration
	workers   int
}

// pageFlags holds print option flags. Empty values leave the config value.
type pageFlags struct {
	size         string
	orientation  string
	margin       string // all four sides
	marginTop    string
	marginRight  string
	marginBottom string
	marginLeft   string
	header       string
	footer       string
	headerFile   string
	footerFile   string
	scale        float64
	noBackground bool
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common  commonFlags
	browser browserFlags
	page    pageFlags
	output  string
	style   string // chroma style for Markdown code blocks
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common  commonFlags
	browser browserFlags
	page    pageFlags
	addr    string
}

// doctorFlags holds all flags for the doctor command.
type doctorFlags struct {
	common  commonFlags
	browser browserFlags
	json    bool
	probe   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading HTML2PDF_* variables")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "also write logs to this rotated file")
}

// addBrowserFlags adds browser flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringVar(&f.backend, "backend", "", "browser backend: rod, chromedp")
	fs.StringVar(&f.bin, "browser-bin", "", "Chrome/Chromium binary")
	fs.StringVar(&f.remoteURL, "remote-url", "", "attach to a running browser (ws:// or http://)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "wait for document body (e.g. 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions (0 = auto)")
}

// addPageFlags adds print option flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a4, letter, legal, tabloid, a3, a5")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.StringVar(&f.margin, "margin", "", "all margins (e.g. 1in, 20mm, 2cm)")
	fs.StringVar(&f.marginTop, "margin-top", "", "top margin")
	fs.StringVar(&f.marginRight, "margin-right", "", "right margin")
	fs.StringVar(&f.marginBottom, "margin-bottom", "", "bottom margin")
	fs.StringVar(&f.marginLeft, "margin-left", "", "left margin")
	fs.StringVar(&f.header, "header", "", "header HTML template")
	fs.StringVar(&f.footer, "footer", "", "footer HTML template")
	fs.StringVar(&f.headerFile, "header-file", "", "read header HTML from file")
	fs.StringVar(&f.footerFile, "footer-file", "", "read footer HTML from file")
	fs.Float64Var(&f.scale, "scale", 0, "rendering scale (e.g. 0.8)")
	fs.BoolVar(&f.noBackground, "no-background", false, "omit background colors and images")
}

// newConvertFlagSet registers the convert flags into f.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVar(&f.style, "code-style", "", "syntax highlighting style for Markdown (default github)")
	addCommonFlags(fs, &f.common)
	addBrowserFlags(fs, &f.browser)
	addPageFlags(fs, &f.page)
	return fs
}

// newServeFlagSet registers the serve flags into f.
func newServeFlagSet(f *serveFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default :8080)")
	addCommonFlags(fs, &f.common)
	addBrowserFlags(fs, &f.browser)
	addPageFlags(fs, &f.page)
	return fs
}

// newDoctorFlagSet registers the doctor flags into f.
func newDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.BoolVar(&f.json, "json", false, "print the report as JSON")
	fs.BoolVar(&f.probe, "probe", false, "start the browser and convert a test page")
	addCommonFlags(fs, &f.common)
	addBrowserFlags(fs, &f.browser)
	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, stderr io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printConvertUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newServeFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printServeUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := newDoctorFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printDoctorUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
