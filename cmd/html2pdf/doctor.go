package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/hints"
	flag "github.com/spf13/pflag"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// probeTimeout bounds the live conversion of doctor --probe.
const probeTimeout = time.Minute

// probeHTML is the test page converted by doctor --probe.
const probeHTML = `<!DOCTYPE html><html><body><h1>html2pdf probe</h1></body></html>`

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Browser  browserInfo `json:"browser"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Probe    *probeInfo  `json:"probe,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`

	settings string // effective configuration as YAML, --verbose only
}

// browserInfo holds browser detection results.
type browserInfo struct {
	Backend    string `json:"backend"`
	Remote     string `json:"remote_url,omitempty"`
	Found      bool   `json:"found"`
	Path       string `json:"path,omitempty"`
	Version    string `json:"version,omitempty"`
	Workers    int    `json:"workers"`
	ConfigFile string `json:"config,omitempty"` // config file used, if any
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	BrowserBin    string `json:"html2pdf_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
	GOMAXPROCS   int  `json:"gomaxprocs"`
}

// probeInfo holds the outcome of a live conversion.
type probeInfo struct {
	OK       bool           `json:"ok"`
	Bytes    int            `json:"bytes,omitempty"`
	Duration string         `json:"duration"`
	Error    string         `json:"error,omitempty"`
	Stats    html2pdf.Stats `json:"stats"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := runDoctor(ctx, flags, env)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, flags *doctorFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BrowserBin: env.Getenv(config.EnvBrowserBin),
		},
		System: systemInfo{GOMAXPROCS: runtime.GOMAXPROCS(0)},
	}

	cfg, err := loadSettings(&flags.common, &flags.browser, nil, env)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		cfg = config.DefaultConfig()
	}
	result.Browser.Backend = cfg.Browser.Backend
	result.Browser.Workers = html2pdf.ResolveWorkers(cfg.Pool.Workers)
	result.Browser.ConfigFile = flags.common.config
	if flags.common.verbose {
		if data, err := config.Marshal(cfg); err == nil {
			result.settings = string(data)
		}
	}

	checkBrowser(result, cfg, env)
	checkEnvironment(result, cfg, env)
	checkSystem(result)
	switch {
	case flags.probe && len(result.Errors) == 0:
		runProbe(ctx, result, cfg, env)
	case cfg.Browser.RemoteURL != "" && !flags.probe:
		result.Warnings = append(result.Warnings, "remote browser is not contacted without --probe")
	}

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}
	return result
}

// checkBrowser detects the browser the converter would start.
func checkBrowser(result *doctorResult, cfg *config.Config, env *Environment) {
	if cfg.Browser.RemoteURL != "" {
		result.Browser.Remote = cfg.Browser.RemoteURL
		if !fileutil.IsURL(cfg.Browser.RemoteURL) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("remote URL %q must start with ws://, wss://, http:// or https://", cfg.Browser.RemoteURL))
			return
		}
		result.Browser.Found = true
		return
	}

	path := cfg.Browser.Bin
	if path == "" {
		var found bool
		path, found = env.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set "+config.EnvBrowserBin)
			return
		}
	}

	if !fileutil.FileExists(path) {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s", path))
		return
	}

	result.Browser.Found = true
	result.Browser.Path = path

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- path is the user's browser binary
	if err == nil {
		result.Browser.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, cfg *config.Config, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env)

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Containers rarely ship a browser; a sidecar over --remote-url is the
	// usual setup.
	if result.Env.Container && cfg.Browser.RemoteURL == "" && !result.Browser.Found {
		result.Warnings = append(result.Warnings,
			"Container detected without a local browser. Set "+config.EnvRemoteURL+" to a browser sidecar")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(env *Environment) (bool, string) {
	if env.Getenv("HTML2PDF_CONTAINER") == "1" {
		return true, "HTML2PDF_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := env.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if env.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "html2pdf-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// runProbe converts a test page end to end.
func runProbe(ctx context.Context, result *doctorResult, cfg *config.Config, env *Environment) {
	probe := &probeInfo{}
	result.Probe = probe

	start := time.Now()
	defer func() { probe.Duration = time.Since(start).Round(time.Millisecond).String() }()

	conv, err := env.NewConverter(cfg.ConverterOptions()...)
	if err != nil {
		probe.Error = err.Error()
		result.Errors = append(result.Errors, "probe: "+err.Error())
		return
	}
	defer func() { _ = conv.Close() }()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	pdf, err := conv.Convert(ctx, probeHTML, nil)
	probe.Stats = conv.Stats()
	if err != nil {
		probe.Error = err.Error()
		result.Errors = append(result.Errors, "probe: "+err.Error()+hintFor(err))
		return
	}
	probe.OK = true
	probe.Bytes = len(pdf)
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "html2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Browser")
	fmt.Fprintf(w, "  [OK] Backend: %s (%d workers)\n", r.Browser.Backend, r.Browser.Workers)
	switch {
	case r.Browser.Remote != "":
		fmt.Fprintf(w, "  [OK] Remote: %s\n", r.Browser.Remote)
	case r.Browser.Found:
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Browser.Path)
		if r.Browser.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Browser.Version)
		}
	default:
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintf(w, "  [OK] GOMAXPROCS: %d\n", r.System.GOMAXPROCS)
	fmt.Fprintln(w)

	if r.settings != "" {
		fmt.Fprintln(w, "Settings")
		for _, line := range strings.Split(strings.TrimRight(r.settings, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}

	if r.Probe != nil {
		fmt.Fprintln(w, "Probe")
		if r.Probe.OK {
			fmt.Fprintf(w, "  [OK] Converted test page: %d bytes in %s\n", r.Probe.Bytes, r.Probe.Duration)
		} else {
			fmt.Fprintf(w, "  [ERROR] %s\n", r.Probe.Error)
		}
		fmt.Fprintln(w)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
