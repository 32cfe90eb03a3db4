// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-pdfcomply/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// installCommands maps a tool to a package hint per platform family.
var installCommands = map[string]string{
	"ghostscript": "apt install ghostscript / brew install ghostscript",
	"pdfimages":   "apt install poppler-utils / brew install poppler",
	"qpdf":        "apt install qpdf / brew install qpdf",
}

// ForMissingTool returns hints for an external tool that could not be found.
// envVar is the override variable (GHOSTSCRIPT_PATH, ...).
func ForMissingTool(tool, envVar string) string {
	var hints []string
	if cmd, ok := installCommands[tool]; ok {
		hints = append(hints, cmd)
	}
	if envVar != "" {
		hints = append(hints, "or set "+envVar+" to the executable")
	}
	hints = append(hints, "run 'pdfcomply doctor' to check the setup")
	return formatHints(hints)
}

// ForOversize returns a hint for outputs above the size ceiling.
func ForOversize() string {
	return format("split the document with --split --parts N")
}

// ForEncrypted returns a hint for password-protected input.
func ForEncrypted() string {
	return format("remove the password first, e.g. qpdf --decrypt in.pdf out.pdf")
}

// ForUnsupportedInput lists the accepted source formats.
func ForUnsupportedInput() string {
	return format("supported inputs: PDF, HTML, Markdown, JPEG, PNG, TIFF")
}

// ForPartCount returns a hint for an invalid --parts value.
func ForPartCount(pages int) string {
	if pages < 2 {
		return format("a single-page document cannot be split")
	}
	return format("use --parts between 2 and " + strconv.Itoa(min(pages, 8)))
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-pdfcomply/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(filepath.ToSlash(p), ".config/go-pdfcomply") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
