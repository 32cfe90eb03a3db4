package main

import (
	"errors"
	"strings"

	pdfcomply "github.com/alnah/go-pdfcomply"
	"github.com/alnah/go-pdfcomply/internal/config"
	"github.com/alnah/go-pdfcomply/internal/hints"
	"github.com/alnah/go-pdfcomply/internal/process"
	"github.com/alnah/go-pdfcomply/internal/tools"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrConverterInit      = errors.New("failed to initialize converter")
	ErrNonCompliant       = errors.New("document is not compliant")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidFlag        = errors.New("invalid flag value")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrArgCount           = errors.New("wrong number of arguments")
)

// hintFor returns an actionable hint for err, or "" when none applies.
func hintFor(err error) string {
	switch {
	case errors.Is(err, pdfcomply.ErrMissingDependency):
		msg := err.Error()
		for _, t := range tools.All {
			if strings.Contains(msg, string(t)) {
				return hints.ForMissingTool(string(t), envPrefix+t.EnvVar())
			}
		}
		return hints.ForMissingTool(string(tools.Ghostscript), envPrefix+tools.Ghostscript.EnvVar())
	case errors.Is(err, pdfcomply.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, pdfcomply.ErrUnsupportedInput):
		return hints.ForUnsupportedInput()
	case errors.Is(err, process.ErrTimeout):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(searchedPaths(err))
	}
	return ""
}

// searchedPaths recovers the candidate list from a config lookup error.
func searchedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

// hintLine strips the leading newline hints carry for appending to errors.
func hintLine(h string) string {
	return strings.TrimPrefix(h, "\n")
}
