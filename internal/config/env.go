package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is shared by every environment variable html2pdf reads.
const EnvPrefix = "HTML2PDF_"

// ErrInvalidEnv reports an environment variable with an unparsable value.
var ErrInvalidEnv = errors.New("invalid environment variable")

// Environment variable names.
const (
	EnvConfig      = "HTML2PDF_CONFIG"
	EnvBackend     = "HTML2PDF_BACKEND"
	EnvBrowserBin  = "HTML2PDF_BROWSER_BIN"
	EnvRemoteURL   = "HTML2PDF_REMOTE_URL"
	EnvTimeout     = "HTML2PDF_TIMEOUT"
	EnvIdleTimeout = "HTML2PDF_IDLE_TIMEOUT"
	EnvWorkers     = "HTML2PDF_WORKERS"
	EnvMaxIdleTabs = "HTML2PDF_MAX_IDLE_TABS"
	EnvPageSize    = "HTML2PDF_PAGE_SIZE"
	EnvOrientation = "HTML2PDF_ORIENTATION"
	EnvAddr        = "HTML2PDF_ADDR"
	EnvLogLevel    = "HTML2PDF_LOG_LEVEL"
	EnvLogFormat   = "HTML2PDF_LOG_FORMAT"
	EnvLogFile     = "HTML2PDF_LOG_FILE"
)

// knownEnvVars lists all valid HTML2PDF_* variables, for typo detection.
var knownEnvVars = map[string]bool{
	EnvConfig:      true,
	EnvBackend:     true,
	EnvBrowserBin:  true,
	EnvRemoteURL:   true,
	EnvTimeout:     true,
	EnvIdleTimeout: true,
	EnvWorkers:     true,
	EnvMaxIdleTabs: true,
	EnvPageSize:    true,
	EnvOrientation: true,
	EnvAddr:        true,
	EnvLogLevel:    true,
	EnvLogFormat:   true,
	EnvLogFile:     true,
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables already set win over the file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays HTML2PDF_* variables onto cfg.
// Precedence: CLI flags > env vars > config file > defaults.
// getenv is usually os.Getenv; tests pass a map lookup.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			*dst = v
		}
	}

	setString(EnvBackend, &cfg.Browser.Backend)
	setString(EnvBrowserBin, &cfg.Browser.Bin)
	setString(EnvRemoteURL, &cfg.Browser.RemoteURL)
	setString(EnvPageSize, &cfg.PDF.PageSize)
	setString(EnvOrientation, &cfg.PDF.PageOrientation)
	setString(EnvAddr, &cfg.Server.Addr)
	setString(EnvLogLevel, &cfg.Log.Level)
	setString(EnvLogFormat, &cfg.Log.Format)
	setString(EnvLogFile, &cfg.Log.File)

	if err := envDuration(getenv, EnvTimeout, &cfg.Browser.Timeout); err != nil {
		return err
	}
	if err := envDuration(getenv, EnvIdleTimeout, &cfg.Browser.IdleTimeout); err != nil {
		return err
	}
	if err := envInt(getenv, EnvWorkers, &cfg.Pool.Workers); err != nil {
		return err
	}
	if v := strings.TrimSpace(getenv(EnvMaxIdleTabs)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, EnvMaxIdleTabs, v, err)
		}
		cfg.Pool.MaxIdleTabs = &n
	}
	return nil
}

func envDuration(getenv func(string) string, name string, dst *time.Duration) error {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, name, v, err)
	}
	*dst = d
	return nil
}

func envInt(getenv func(string) string, name string, dst *int) error {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, name, v, err)
	}
	*dst = n
	return nil
}

// UnknownEnvVars returns HTML2PDF_* names from environ that html2pdf does
// not read, sorted. environ uses the os.Environ format.
func UnknownEnvVars(environ []string) []string {
	var unknown []string
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) && !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	return unknown
}
