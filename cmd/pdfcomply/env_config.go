package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-pdfcomply/internal/config"
)

// envPrefix is shared by every recognized variable.
const envPrefix = "PDFCOMPLY_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // PDFCOMPLY_CONFIG: config file name or path
	Workers    int           // PDFCOMPLY_WORKERS: parallel jobs
	Timeout    time.Duration // PDFCOMPLY_TIMEOUT: render timeout
	WorkDir    string        // PDFCOMPLY_WORK_DIR: parent of job workspaces
	Lang       string        // PDFCOMPLY_LANG: diagnostics language
	LogLevel   string        // PDFCOMPLY_LOG_LEVEL: trace..error

	GhostscriptPath string // PDFCOMPLY_GHOSTSCRIPT_PATH
	PDFImagesPath   string // PDFCOMPLY_PDFIMAGES_PATH
	QPDFPath        string // PDFCOMPLY_QPDF_PATH
}

// knownEnvVars lists valid PDFCOMPLY_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	envPrefix + "CONFIG":           true,
	envPrefix + "WORKERS":          true,
	envPrefix + "TIMEOUT":          true,
	envPrefix + "WORK_DIR":         true,
	envPrefix + "LANG":             true,
	envPrefix + "LOG_LEVEL":        true,
	envPrefix + "GHOSTSCRIPT_PATH": true,
	envPrefix + "PDFIMAGES_PATH":   true,
	envPrefix + "QPDF_PATH":        true,
	envPrefix + "DEBUG":            true,
}

// loadEnvConfig reads configuration from environment variables. Malformed
// numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:      getenv(envPrefix + "CONFIG"),
		WorkDir:         getenv(envPrefix + "WORK_DIR"),
		Lang:            getenv(envPrefix + "LANG"),
		LogLevel:        getenv(envPrefix + "LOG_LEVEL"),
		GhostscriptPath: getenv(envPrefix + "GHOSTSCRIPT_PATH"),
		PDFImagesPath:   getenv(envPrefix + "PDFIMAGES_PATH"),
		QPDFPath:        getenv(envPrefix + "QPDF_PATH"),
	}

	if timeout := getenv(envPrefix + "TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := getenv(envPrefix + "WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized PDFCOMPLY_* variables.
// Helps catch typos like PDFCOMPLY_WORKER instead of PDFCOMPLY_WORKERS.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overlays set variables on cfg. Environment beats the
// config file; flags are applied afterwards and beat both.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.WorkDir != "" {
		cfg.Conversion.WorkDir = env.WorkDir
	}
	if env.Lang != "" {
		cfg.Conversion.Language = env.Lang
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.Timeout > 0 {
		cfg.Timeouts.Render = env.Timeout
	}
	if env.GhostscriptPath != "" {
		cfg.Tools.Ghostscript = env.GhostscriptPath
	}
	if env.PDFImagesPath != "" {
		cfg.Tools.PDFImages = env.PDFImagesPath
	}
	if env.QPDFPath != "" {
		cfg.Tools.QPDF = env.QPDFPath
	}
}
