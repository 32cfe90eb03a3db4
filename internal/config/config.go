package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Limits.
const (
	MaxPathLength     = 4096
	MaxQualityLevels  = 8
	MinDPI            = 36
	MaxDPI            = 2400
	MaxLanguageLength = 35 // BCP 47 upper bound in practice
)

// Rasterizer backends.
const (
	RasterizerGhostscript = "ghostscript"
	RasterizerMuPDF       = "mupdf"
)

// appDir is the directory under os.UserConfigDir searched for named configs.
const appDir = "go-pdfcomply"

var versionPattern = regexp.MustCompile(`^[12]\.[0-9]$`)

// Config holds all configuration for compliance conversion.
type Config struct {
	Tools      ToolsConfig      `yaml:"tools"`
	Profile    ProfileConfig    `yaml:"profile"`
	Conversion ConversionConfig `yaml:"conversion"`
	Timeouts   TimeoutsConfig   `yaml:"timeouts"`
	Extract    ExtractConfig    `yaml:"extract"`
	Log        LogConfig        `yaml:"log"`
}

// ToolsConfig pins external tool locations. Empty = discover.
type ToolsConfig struct {
	Ghostscript string `yaml:"ghostscript"`
	PDFImages   string `yaml:"pdfimages"`
	QPDF        string `yaml:"qpdf"`
}

// ProfileConfig is the compliance profile every output must satisfy.
type ProfileConfig struct {
	DPI      int    `yaml:"dpi"`
	MaxBytes int64  `yaml:"maxBytes"`
	Version  string `yaml:"version"` // "1.4"
}

// ConversionConfig tunes the rasterize/assemble loop.
type ConversionConfig struct {
	QualityLevels     []int  `yaml:"qualityLevels"`     // descending JPEG qualities
	LargeDocThreshold int    `yaml:"largeDocThreshold"` // pages above which groups are used
	GroupSize         int    `yaml:"groupSize"`         // pages per group on the large path
	Rasterizer        string `yaml:"rasterizer"`        // "ghostscript" or "mupdf"
	WorkDir           string `yaml:"workDir"`           // empty = os.TempDir()
	Language          string `yaml:"language"`          // diagnostics language, "en" or "es"
}

// TimeoutsConfig bounds every external invocation. Zero keeps the default.
type TimeoutsConfig struct {
	Probe       time.Duration `yaml:"probe"`
	Inspect     time.Duration `yaml:"inspect"`
	InkCoverage time.Duration `yaml:"inkCoverage"`
	Render      time.Duration `yaml:"render"`
}

// ExtractConfig configures page image extraction.
type ExtractConfig struct {
	Quality int `yaml:"quality"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the stock compliance profile and conversion settings.
func DefaultConfig() *Config {
	return &Config{
		Profile: ProfileConfig{
			DPI:      300,
			MaxBytes: 3 * 1024 * 1024,
			Version:  "1.4",
		},
		Conversion: ConversionConfig{
			QualityLevels:     []int{75, 65, 55, 50},
			LargeDocThreshold: 10,
			GroupSize:         10,
			Rasterizer:        RasterizerGhostscript,
		},
		Timeouts: TimeoutsConfig{
			Probe:       30 * time.Second,
			Inspect:     2 * time.Minute,
			InkCoverage: 3 * time.Minute,
			Render:      10 * time.Minute,
		},
		Extract: ExtractConfig{Quality: 25},
		Log:     LogConfig{Level: "warn", Format: "console"},
	}
}

// Validate checks ranges and enumerations.
// Called automatically by LoadConfig, but available for library users who
// construct Config manually.
func (c *Config) Validate() error {
	for name, p := range map[string]string{
		"tools.ghostscript":  c.Tools.Ghostscript,
		"tools.pdfimages":    c.Tools.PDFImages,
		"tools.qpdf":         c.Tools.QPDF,
		"conversion.workDir": c.Conversion.WorkDir,
	} {
		if err := validateFieldLength(name, p, MaxPathLength); err != nil {
			return err
		}
	}

	if c.Profile.DPI < MinDPI || c.Profile.DPI > MaxDPI {
		return invalid("profile.dpi", "must be between %d and %d, got %d", MinDPI, MaxDPI, c.Profile.DPI)
	}
	if c.Profile.MaxBytes <= 0 {
		return invalid("profile.maxBytes", "must be positive, got %d", c.Profile.MaxBytes)
	}
	if !versionPattern.MatchString(c.Profile.Version) {
		return invalid("profile.version", "must look like 1.4, got %q", c.Profile.Version)
	}

	if err := validateQualityLevels(c.Conversion.QualityLevels); err != nil {
		return err
	}
	if c.Conversion.LargeDocThreshold < 1 {
		return invalid("conversion.largeDocThreshold", "must be at least 1, got %d", c.Conversion.LargeDocThreshold)
	}
	if c.Conversion.GroupSize < 1 {
		return invalid("conversion.groupSize", "must be at least 1, got %d", c.Conversion.GroupSize)
	}
	switch strings.ToLower(c.Conversion.Rasterizer) {
	case "", RasterizerGhostscript, RasterizerMuPDF:
	default:
		return invalid("conversion.rasterizer", "must be ghostscript or mupdf, got %q", c.Conversion.Rasterizer)
	}
	if err := validateFieldLength("conversion.language", c.Conversion.Language, MaxLanguageLength); err != nil {
		return err
	}

	for name, d := range map[string]time.Duration{
		"timeouts.probe":       c.Timeouts.Probe,
		"timeouts.inspect":     c.Timeouts.Inspect,
		"timeouts.inkCoverage": c.Timeouts.InkCoverage,
		"timeouts.render":      c.Timeouts.Render,
	} {
		if d < 0 {
			return invalid(name, "must not be negative, got %s", d)
		}
	}

	if c.Extract.Quality < 0 || c.Extract.Quality > 100 {
		return invalid("extract.quality", "must be between 1 and 100 (0 = default), got %d", c.Extract.Quality)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return invalid("log.format", "must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// validateQualityLevels requires 1..MaxQualityLevels strictly descending
// values in [1,100].
func validateQualityLevels(levels []int) error {
	if len(levels) == 0 || len(levels) > MaxQualityLevels {
		return invalid("conversion.qualityLevels", "must list 1 to %d values, got %d", MaxQualityLevels, len(levels))
	}
	for i, q := range levels {
		if q < 1 || q > 100 {
			return invalid("conversion.qualityLevels", "value %d out of range 1-100", q)
		}
		if i > 0 && q >= levels[i-1] {
			return invalid("conversion.qualityLevels", "must be strictly descending, got %v", levels)
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidValue, field, fmt.Sprintf(format, args...))
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
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
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.Conversion.Rasterizer = strings.ToLower(cfg.Conversion.Rasterizer)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\") || strings.HasSuffix(s, ".yaml") || strings.HasSuffix(s, ".yml")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-pdfcomply/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	candidates := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		candidates = append(candidates, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			candidates = append(candidates, filepath.Join(dir, appDir, name+ext))
		}
	}

	if i := slices.IndexFunc(candidates, fileExists); i >= 0 {
		return candidates[i], nil
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(candidates, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
