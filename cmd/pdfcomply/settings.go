package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	pdfcomply "github.com/alnah/go-pdfcomply"
	"github.com/alnah/go-pdfcomply/internal/config"
	"github.com/alnah/go-pdfcomply/internal/logging"
)

// settings is the merged configuration of one command run.
type settings struct {
	cfg     *config.Config
	env     *envConfig
	log     zerolog.Logger
	quiet   bool
	verbose bool
}

// loadSettings merges defaults, the config file, PDFCOMPLY_* variables and
// flags, in increasing precedence. profile may be nil.
func loadSettings(common *commonFlags, profile *profileFlags, env *Environment) (*settings, error) {
	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg := config.DefaultConfig()
	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	if err := applyCommonFlags(common, cfg); err != nil {
		return nil, err
	}
	if profile != nil {
		if err := applyProfileFlags(profile, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &settings{
		cfg:     cfg,
		env:     envCfg,
		log:     newLogger(cfg, env.Stderr),
		quiet:   common.quiet,
		verbose: common.verbose,
	}, nil
}

// applyCommonFlags merges logging and language flags into cfg.
func applyCommonFlags(f *commonFlags, cfg *config.Config) error {
	switch {
	case f.logLevel != "":
		if !logging.ValidLevel(f.logLevel) {
			return fmt.Errorf("%w: --log-level %q", ErrInvalidFlag, f.logLevel)
		}
		cfg.Log.Level = f.logLevel
	case f.quiet:
		cfg.Log.Level = "error"
	case f.verbose:
		cfg.Log.Level = "info"
	}
	if f.lang != "" {
		cfg.Conversion.Language = f.lang
	}
	return nil
}

// applyProfileFlags merges profile overrides into cfg.
func applyProfileFlags(f *profileFlags, cfg *config.Config) error {
	if f.dpi != 0 {
		cfg.Profile.DPI = f.dpi
	}
	n, err := f.maxBytes()
	if err != nil {
		return err
	}
	if n > 0 {
		cfg.Profile.MaxBytes = n
	}
	if f.pdfVersion != "" {
		cfg.Profile.Version = f.pdfVersion
	}
	return nil
}

// newLogger builds the CLI logger on stderr.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: w,
	})
}

// converterOptions translates the merged config into converter options.
func (s *settings) converterOptions() []pdfcomply.Option {
	cfg := s.cfg
	opts := []pdfcomply.Option{
		pdfcomply.WithProfile(pdfcomply.Profile{
			DPI:      cfg.Profile.DPI,
			MaxBytes: cfg.Profile.MaxBytes,
			Version:  cfg.Profile.Version,
		}),
		pdfcomply.WithQualityLevels(cfg.Conversion.QualityLevels...),
		pdfcomply.WithLargeDocThreshold(cfg.Conversion.LargeDocThreshold),
		pdfcomply.WithGroupSize(cfg.Conversion.GroupSize),
		pdfcomply.WithTimeouts(pdfcomply.Timeouts{
			Probe:       cfg.Timeouts.Probe,
			Inspect:     cfg.Timeouts.Inspect,
			InkCoverage: cfg.Timeouts.InkCoverage,
			Render:      cfg.Timeouts.Render,
		}),
		pdfcomply.WithLogger(s.log),
	}
	if cfg.Conversion.Rasterizer != "" {
		opts = append(opts, pdfcomply.WithRasterizer(strings.ToLower(cfg.Conversion.Rasterizer)))
	}
	if cfg.Conversion.WorkDir != "" {
		opts = append(opts, pdfcomply.WithWorkDir(cfg.Conversion.WorkDir))
	}
	if cfg.Conversion.Language != "" {
		opts = append(opts, pdfcomply.WithLanguage(cfg.Conversion.Language))
	}
	if cfg.Extract.Quality > 0 {
		opts = append(opts, pdfcomply.WithExtractQuality(cfg.Extract.Quality))
	}
	for tool, path := range map[pdfcomply.Tool]string{
		pdfcomply.ToolGhostscript: cfg.Tools.Ghostscript,
		pdfcomply.ToolPDFImages:   cfg.Tools.PDFImages,
		pdfcomply.ToolQPDF:        cfg.Tools.QPDF,
	} {
		if path != "" {
			opts = append(opts, pdfcomply.WithToolPath(tool, path))
		}
	}
	return opts
}

// workers resolves the pool size: flag, then PDFCOMPLY_WORKERS, then auto.
func (s *settings) workers(flagValue int) int {
	if flagValue > 0 {
		return pdfcomply.ResolvePoolSize(flagValue)
	}
	return pdfcomply.ResolvePoolSize(s.env.Workers)
}

// applyTimeout overrides the render timeout when d is set.
func (s *settings) applyTimeout(d time.Duration) {
	if d > 0 {
		s.cfg.Timeouts.Render = d
	}
}
