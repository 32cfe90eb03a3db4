package pdfcomply

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-pdfcomply/internal/tools"
)

// Option configures a Converter.
type Option func(*Converter)

// Rasterizer backends.
const (
	RasterizerGhostscript = "ghostscript"
	RasterizerMuPDF       = "mupdf"
)

// Tool identifies an external program the converter drives.
type Tool = tools.Tool

// External tools.
const (
	ToolGhostscript = tools.Ghostscript
	ToolPDFImages   = tools.PDFImages
	ToolQPDF        = tools.QPDF
)

// Defaults for the conversion loop.
const (
	DefaultLargeDocThreshold = 10
	DefaultGroupSize         = 10
	DefaultExtractQuality    = 25
)

// MaxQualityLevels bounds the quality-search sequence, and with it the number
// of assembly attempts per document.
const MaxQualityLevels = 8

// DefaultQualityLevels is the descending JPEG quality sequence of the
// quality-search loop.
func DefaultQualityLevels() []int {
	return []int{75, 65, 55, 50}
}

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	profile           Profile
	qualityLevels     []int
	largeDocThreshold int
	groupSize         int
	timeouts          Timeouts
	workDir           string
	language          string
	rasterizer        string
	toolPaths         map[tools.Tool]string
	extractQuality    int
}

func defaultConfig() converterConfig {
	return converterConfig{
		profile:           DefaultProfile(),
		qualityLevels:     DefaultQualityLevels(),
		largeDocThreshold: DefaultLargeDocThreshold,
		groupSize:         DefaultGroupSize,
		timeouts:          DefaultTimeouts(),
		language:          "en",
		rasterizer:        RasterizerGhostscript,
		toolPaths:         map[tools.Tool]string{},
		extractQuality:    DefaultExtractQuality,
	}
}

// WithProfile replaces the compliance profile. NewConverter validates it.
func WithProfile(p Profile) Option {
	return func(c *Converter) {
		c.cfg.profile = p
	}
}

// WithQualityLevels sets the quality-search sequence. Levels must be strictly
// descending within 1..100, at most MaxQualityLevels of them; NewConverter
// rejects anything else.
func WithQualityLevels(levels ...int) Option {
	return func(c *Converter) {
		c.cfg.qualityLevels = append([]int(nil), levels...)
	}
}

// WithLargeDocThreshold sets the page count above which documents are
// assembled in groups and concatenated.
// Panics if n < 1 (programmer error, similar to time.NewTicker).
func WithLargeDocThreshold(n int) Option {
	if n < 1 {
		panic("pdfcomply: WithLargeDocThreshold must be positive")
	}
	return func(c *Converter) {
		c.cfg.largeDocThreshold = n
	}
}

// WithGroupSize sets the number of pages per group on the large-document path.
// Panics if n < 1.
func WithGroupSize(n int) Option {
	if n < 1 {
		panic("pdfcomply: WithGroupSize must be positive")
	}
	return func(c *Converter) {
		c.cfg.groupSize = n
	}
}

// WithTimeouts sets per-invocation deadlines. Zero fields keep their defaults.
func WithTimeouts(t Timeouts) Option {
	return func(c *Converter) {
		c.cfg.timeouts = t.withDefaults()
	}
}

// WithTimeout sets the render deadline used for rasterization, assembly,
// merging, compression and browser rendering.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("pdfcomply: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeouts.Render = d
	}
}

// WithWorkDir sets the parent directory of per-job workspaces.
// Empty uses os.TempDir().
func WithWorkDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.workDir = dir
	}
}

// WithLanguage selects the diagnostic language ("en", "es").
// Unsupported languages fall back to English.
func WithLanguage(lang string) Option {
	return func(c *Converter) {
		c.cfg.language = lang
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) {
		c.log = l
	}
}

// WithRasterizer selects the rasterizer backend: RasterizerGhostscript or
// RasterizerMuPDF. Assembly always needs Ghostscript.
func WithRasterizer(name string) Option {
	return func(c *Converter) {
		c.cfg.rasterizer = name
	}
}

// WithToolPath overrides the location of an external tool. It takes
// precedence over PATH discovery.
func WithToolPath(t Tool, path string) Option {
	return func(c *Converter) {
		c.cfg.toolPaths[t] = path
	}
}

// WithExtractQuality sets the JPEG quality used by ExtractImages.
func WithExtractQuality(q int) Option {
	return func(c *Converter) {
		c.cfg.extractQuality = q
	}
}
