package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/hints"
	"github.com/alnah/go-html2pdf/internal/logging"
)

// maxTemplateBytes bounds header/footer template files.
const maxTemplateBytes = 1 << 20

// loadSettings resolves the effective configuration.
// Precedence: CLI flags > env vars > config file > defaults.
func loadSettings(common *commonFlags, browser *browserFlags, page *pageFlags, env *Environment) (*config.Config, error) {
	if common.envFile != "" {
		if err := config.LoadDotEnv(common.envFile); err != nil {
			return nil, err
		}
	}
	warnUnknownEnvVars(env)

	cfg := config.DefaultConfig()
	name := common.config
	if name == "" {
		name = env.Getenv(config.EnvConfig)
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg, env.Getenv); err != nil {
		return nil, err
	}

	mergeCommonFlags(common, cfg)
	if browser != nil {
		mergeBrowserFlags(browser, cfg)
	}
	if page != nil {
		if err := mergePageFlags(page, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, html2pdf.ErrInvalidOption) {
			return nil, fmt.Errorf("%w%s", err, hints.ForInvalidOption())
		}
		if strings.Contains(err.Error(), "backend") {
			return nil, fmt.Errorf("%w%s", err, hints.ForBackend([]string{html2pdf.BackendRod, html2pdf.BackendChromedp}))
		}
		return nil, err
	}
	return cfg, nil
}

// warnUnknownEnvVars prints a warning for each HTML2PDF_* typo.
func warnUnknownEnvVars(env *Environment) {
	if env.Environ == nil {
		return
	}
	for _, name := range config.UnknownEnvVars(env.Environ()) {
		fmt.Fprintf(env.Stderr, "warning: unknown environment variable %s\n", name)
	}
}

func mergeCommonFlags(f *commonFlags, cfg *config.Config) {
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
}

func mergeBrowserFlags(f *browserFlags, cfg *config.Config) {
	if f.backend != "" {
		cfg.Browser.Backend = f.backend
	}
	if f.bin != "" {
		cfg.Browser.Bin = f.bin
	}
	if f.remoteURL != "" {
		cfg.Browser.RemoteURL = f.remoteURL
	}
	if f.timeout != 0 {
		cfg.Browser.Timeout = f.timeout
	}
	if f.workers != 0 {
		cfg.Pool.Workers = f.workers
	}
}

func mergePageFlags(f *pageFlags, cfg *config.Config) error {
	opts := &cfg.PDF
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&opts.PageSize, f.size)
	set(&opts.PageOrientation, f.orientation)
	if f.margin != "" {
		opts.MarginTop, opts.MarginRight, opts.MarginBottom, opts.MarginLeft = f.margin, f.margin, f.margin, f.margin
	}
	set(&opts.MarginTop, f.marginTop)
	set(&opts.MarginRight, f.marginRight)
	set(&opts.MarginBottom, f.marginBottom)
	set(&opts.MarginLeft, f.marginLeft)
	set(&opts.HeaderHTML, f.header)
	set(&opts.FooterHTML, f.footer)

	if f.headerFile != "" {
		data, err := fileutil.ReadLimited(f.headerFile, maxTemplateBytes)
		if err != nil {
			return fmt.Errorf("%w: header file: %w", ErrReadInput, err)
		}
		opts.HeaderHTML = string(data)
	}
	if f.footerFile != "" {
		data, err := fileutil.ReadLimited(f.footerFile, maxTemplateBytes)
		if err != nil {
			return fmt.Errorf("%w: footer file: %w", ErrReadInput, err)
		}
		opts.FooterHTML = string(data)
	}

	if f.scale != 0 {
		scale := f.scale
		opts.Scale = &scale
	}
	if f.noBackground {
		background := false
		opts.PrintBackground = &background
	}
	return nil
}

// newLogger builds the command logger. Unless --log-level is given, the
// configured level is raised to floor (empty means no floor). --verbose and
// --quiet override both.
func newLogger(cfg *config.Config, common *commonFlags, env *Environment, floor string) (*slog.Logger, io.Closer, error) {
	level := cfg.Log.Level
	if floor != "" && common.logLevel == "" && logging.ParseLevel(level) < logging.ParseLevel(floor) {
		level = floor
	}
	switch {
	case common.verbose:
		level = "debug"
	case common.quiet:
		level = "error"
	}
	logger, closer, err := logging.New(logging.Options{
		Level:   level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Console: env.Stderr,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: log file: %w", ErrWriteOutput, err)
	}
	return logger, closer, nil
}
