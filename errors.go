package pdfcomply

import "errors"

// Sentinel errors for library operations.
var (
	ErrMissingDependency = errors.New("required external tool not available")
	ErrEmptyRasterOutput = errors.New("rasterizer produced no pages")
	ErrAssemblyFailure   = errors.New("document assembly failed")
	ErrInputNotFound     = errors.New("input file not found")
	ErrUnsupportedInput  = errors.New("unsupported input format")
	ErrEmptyOutput       = errors.New("tool produced an empty document")

	// Option and input validation errors.
	ErrInvalidPartCount = errors.New("invalid part count")
	ErrInvalidTier      = errors.New("invalid compression tier")
	ErrTooFewInputs     = errors.New("too few documents to merge")
	ErrTooManyInputs    = errors.New("too many documents to merge")
	ErrInvalidQuality   = errors.New("invalid quality level")
	ErrInvalidProfile   = errors.New("invalid compliance profile")

	// Browser rendering errors for HTML and Markdown sources.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)
