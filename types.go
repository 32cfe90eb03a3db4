package pdfcomply

import (
	"fmt"
	"regexp"
	"time"

	"github.com/alnah/go-pdfcomply/internal/imaging"
)

// Profile is the set of rules every output must satisfy. Grayscale and the
// absence of encryption are fixed rules and have no field.
type Profile struct {
	DPI      int    // exact density of every embedded image, both axes
	MaxBytes int64  // size ceiling
	Version  string // declared PDF version, e.g. "1.4"
}

// DefaultProfile returns 300 DPI, 3 MiB, PDF 1.4.
func DefaultProfile() Profile {
	return Profile{DPI: 300, MaxBytes: 3 * 1024 * 1024, Version: "1.4"}
}

var profileVersionRe = regexp.MustCompile(`^[12]\.[0-9]$`)

// Validate checks that the profile can be produced.
func (p Profile) Validate() error {
	if p.DPI < 36 || p.DPI > 2400 {
		return fmt.Errorf("%w: dpi %d out of range 36-2400", ErrInvalidProfile, p.DPI)
	}
	if p.MaxBytes <= 0 {
		return fmt.Errorf("%w: maxBytes must be positive", ErrInvalidProfile)
	}
	if !profileVersionRe.MatchString(p.Version) {
		return fmt.Errorf("%w: version %q", ErrInvalidProfile, p.Version)
	}
	return nil
}

// Part count bounds for explicit splitting.
const (
	MinParts = 2
	MaxParts = 8
)

// Input describes one conversion request.
type Input struct {
	Path      string // source document: PDF, HTML, Markdown or image
	Output    string // destination; empty = "<source stem>_compliant.pdf" next to the source
	Split     bool   // emit PartCount documents instead of one
	PartCount int    // MinParts..MaxParts, used when Split is set
	Verify    bool   // audit every produced document
}

// Result is the outcome of Convert. Exactly one of Output or Parts is set.
type Result struct {
	Output   string
	Pages    int
	Size     int64
	Quality  int // JPEG quality of the accepted attempt
	Attempts int
	Parts    []Part
	Findings []Finding
	Report   *ComplianceReport // set when Input.Verify is true and Output is set
}

// Warnings returns the messages of every finding.
func (r *Result) Warnings() []string {
	out := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		out = append(out, f.Message)
	}
	return out
}

// Part is one document of a split conversion.
type Part struct {
	Index     int // 1-based
	Path      string
	FirstPage int
	LastPage  int
	Pages     int
	Size      int64
	Quality   int
	Report    *ComplianceReport
}

// PartGroup is a contiguous run of source pages assembled as one document.
type PartGroup struct {
	Index int   // 1-based
	Pages []int // 1-based page indices, ascending
	Size  int64 // bytes of the assembled document, zero until assembled
}

// First returns the first page index of the group.
func (g PartGroup) First() int { return g.Pages[0] }

// Last returns the last page index of the group.
func (g PartGroup) Last() int { return g.Pages[len(g.Pages)-1] }

// RasterPage is one source page rendered to a single-channel image at the
// profile density.
type RasterPage struct {
	Index  int // 1-based
	Width  int // pixels
	Height int // pixels
	Total  int // page count of the source
	Path   string
}

func fromImagingPages(pages []imaging.Page) []RasterPage {
	out := make([]RasterPage, len(pages))
	for i, p := range pages {
		out[i] = RasterPage(p)
	}
	return out
}

func toImagingPages(pages []RasterPage) []imaging.Page {
	out := make([]imaging.Page, len(pages))
	for i, p := range pages {
		out[i] = imaging.Page(p)
	}
	return out
}

// FindingKind classifies a non-fatal condition.
type FindingKind string

// Finding kinds.
const (
	SizeExceeded            FindingKind = "size_exceeded"
	ResolutionNonConformant FindingKind = "resolution_nonconformant"
	ColorNonConformant      FindingKind = "color_nonconformant"
	EncryptionDetected      FindingKind = "encryption_detected"
	VersionMismatch         FindingKind = "version_mismatch"
	Unverified              FindingKind = "unverified"
	Unchanged               FindingKind = "unchanged"
)

// Finding is one itemized, localized diagnostic. Findings are never returned
// as errors.
type Finding struct {
	Kind    FindingKind `json:"kind"`
	Message string      `json:"message"`
}

// Timeouts bounds each class of external invocation.
type Timeouts struct {
	Probe       time.Duration // version and encryption probes
	Inspect     time.Duration // pdfimages -list
	InkCoverage time.Duration // Ghostscript inkcov
	Render      time.Duration // rasterize, assemble, merge, compress, browser
}

// DefaultTimeouts returns the production deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Probe:       30 * time.Second,
		Inspect:     2 * time.Minute,
		InkCoverage: 3 * time.Minute,
		Render:      10 * time.Minute,
	}
}

// withDefaults fills zero durations from DefaultTimeouts.
func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.Probe <= 0 {
		t.Probe = d.Probe
	}
	if t.Inspect <= 0 {
		t.Inspect = d.Inspect
	}
	if t.InkCoverage <= 0 {
		t.InkCoverage = d.InkCoverage
	}
	if t.Render <= 0 {
		t.Render = d.Render
	}
	return t
}
