// Package config loads html2pdf settings from YAML files, .env files and
// HTML2PDF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-html2pdf"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Defaults for fields a config file leaves unset.
const (
	DefaultAddr           = ":8080"
	DefaultMaxBodyBytes   = 10 << 20 // 10MB per request body
	DefaultMaxBatchSize   = 100
	DefaultRequestTimeout = 2 * time.Minute
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Config holds all configuration for the html2pdf binaries.
type Config struct {
	Browser BrowserConfig    `yaml:"browser"`
	Pool    PoolConfig       `yaml:"pool"`
	PDF     html2pdf.Options `yaml:"pdf"` // defaults for conversions without explicit options
	Server  ServerConfig     `yaml:"server"`
	Log     LogConfig        `yaml:"log"`
}

// BrowserConfig defines where the browser comes from and how long to wait.
type BrowserConfig struct {
	Backend     string        `yaml:"backend"`     // "rod" (default) or "chromedp"
	Bin         string        `yaml:"bin"`         // Chrome binary (empty = auto-detect)
	RemoteURL   string        `yaml:"remoteURL"`   // attach instead of launching
	Timeout     time.Duration `yaml:"timeout"`     // wait for body (0 = library default, 30s)
	IdleTimeout time.Duration `yaml:"idleTimeout"` // close unused browser (0 = library default, 600s)
	KeepAlive   bool          `yaml:"keepAlive"`   // never close an idle browser
}

// PoolConfig defines concurrency limits.
type PoolConfig struct {
	Workers     int  `yaml:"workers"`     // 0 = GOMAXPROCS
	MaxIdleTabs *int `yaml:"maxIdleTabs"` // nil = same as workers
}

// ServerConfig defines HTTP API options.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxBodyBytes   int64         `yaml:"maxBodyBytes"`
	MaxBatchSize   int           `yaml:"maxBatchSize"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// LogConfig defines logging options.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // rotated log file (empty = stderr only)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{Backend: html2pdf.BackendRod},
		Server: ServerConfig{
			Addr:           DefaultAddr,
			MaxBodyBytes:   DefaultMaxBodyBytes,
			MaxBatchSize:   DefaultMaxBatchSize,
			RequestTimeout: DefaultRequestTimeout,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Validate checks value ranges and option syntax.
// Called automatically by LoadConfig, but available for callers who build
// or modify a Config themselves.
func (c *Config) Validate() error {
	switch c.Browser.Backend {
	case "", html2pdf.BackendRod, html2pdf.BackendChromedp:
	default:
		return fmt.Errorf("%w: browser.backend: %q (must be %s or %s)", ErrInvalidConfig, c.Browser.Backend, html2pdf.BackendRod, html2pdf.BackendChromedp)
	}
	if c.Browser.Timeout < 0 {
		return fmt.Errorf("%w: browser.timeout: must not be negative, got %s", ErrInvalidConfig, c.Browser.Timeout)
	}
	if c.Browser.IdleTimeout < 0 {
		return fmt.Errorf("%w: browser.idleTimeout: must not be negative, got %s", ErrInvalidConfig, c.Browser.IdleTimeout)
	}

	if c.Pool.Workers < 0 || c.Pool.Workers > html2pdf.MaxWorkers {
		return fmt.Errorf("%w: pool.workers: must be between 0 and %d, got %d", ErrInvalidConfig, html2pdf.MaxWorkers, c.Pool.Workers)
	}
	if c.Pool.MaxIdleTabs != nil && *c.Pool.MaxIdleTabs < 0 {
		return fmt.Errorf("%w: pool.maxIdleTabs: must not be negative, got %d", ErrInvalidConfig, *c.Pool.MaxIdleTabs)
	}

	if err := c.PDF.Validate(); err != nil {
		return fmt.Errorf("%w: pdf: %w", ErrInvalidConfig, err)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.maxBodyBytes: must be positive, got %d", ErrInvalidConfig, c.Server.MaxBodyBytes)
	}
	if c.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("%w: server.maxBatchSize: must be positive, got %d", ErrInvalidConfig, c.Server.MaxBatchSize)
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("%w: server.requestTimeout: must not be negative, got %s", ErrInvalidConfig, c.Server.RequestTimeout)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level: %q (must be debug, info, warn or error)", ErrInvalidConfig, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format: %q (must be text or json)", ErrInvalidConfig, c.Log.Format)
	}

	return nil
}

// ConverterOptions translates the configuration into library options.
// The caller adds WithLogger.
func (c *Config) ConverterOptions() []html2pdf.Option {
	opts := []html2pdf.Option{
		html2pdf.WithBackend(c.Browser.Backend),
		html2pdf.WithWorkers(c.Pool.Workers),
		html2pdf.WithDefaultOptions(c.PDF),
	}
	if c.Browser.Bin != "" {
		opts = append(opts, html2pdf.WithBrowserBin(c.Browser.Bin))
	}
	if c.Browser.RemoteURL != "" {
		opts = append(opts, html2pdf.WithRemoteURL(c.Browser.RemoteURL))
	}
	if c.Browser.Timeout > 0 {
		opts = append(opts, html2pdf.WithTimeout(c.Browser.Timeout))
	}
	switch {
	case c.Browser.KeepAlive:
		opts = append(opts, html2pdf.WithIdleTimeout(0))
	case c.Browser.IdleTimeout > 0:
		opts = append(opts, html2pdf.WithIdleTimeout(c.Browser.IdleTimeout))
	}
	if c.Pool.MaxIdleTabs != nil {
		opts = append(opts, html2pdf.WithMaxIdleTabs(*c.Pool.MaxIdleTabs))
	}
	return opts
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields the file omits keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\") || strings.HasSuffix(s, ".yaml") || strings.HasSuffix(s, ".yml")
}

// SearchPaths lists where a config name is looked up, in order: current
// directory, then ~/.config/go-html2pdf/, each with .yaml and .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-html2pdf", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file among SearchPaths.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
