package main

import (
	"errors"
	"os"

	pdfcomply "github.com/alnah/go-pdfcomply"
	"github.com/alnah/go-pdfcomply/internal/config"
)

// Exit codes for pdfcomply CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess      = 0 // Every job succeeded
	ExitGeneral      = 1 // General/unexpected error
	ExitUsage        = 2 // Invalid flags, config, or validation
	ExitIO           = 3 // File not found, permission denied
	ExitTool         = 4 // External tool or browser missing or failing
	ExitNonCompliant = 5 // Audit found a rule violation
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrNonCompliant) {
		return ExitNonCompliant
	}

	// Tool errors (exit 4)
	if errors.Is(err, pdfcomply.ErrMissingDependency) ||
		errors.Is(err, ErrConverterInit) ||
		errors.Is(err, pdfcomply.ErrBrowserConnect) ||
		errors.Is(err, pdfcomply.ErrPageCreate) ||
		errors.Is(err, pdfcomply.ErrPageLoad) ||
		errors.Is(err, pdfcomply.ErrPDFGeneration) {
		return ExitTool
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, pdfcomply.ErrInputNotFound) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, pdfcomply.ErrUnsupportedInput) ||
		errors.Is(err, pdfcomply.ErrInvalidPartCount) ||
		errors.Is(err, pdfcomply.ErrInvalidTier) ||
		errors.Is(err, pdfcomply.ErrInvalidQuality) ||
		errors.Is(err, pdfcomply.ErrInvalidProfile) ||
		errors.Is(err, pdfcomply.ErrTooFewInputs) ||
		errors.Is(err, pdfcomply.ErrTooManyInputs) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidFlag) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrArgCount) {
		return ExitUsage
	}

	return ExitGeneral
}
