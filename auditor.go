package pdfcomply

import (
	"context"
	"fmt"

	"github.com/alnah/go-pdfcomply/internal/diag"
	"github.com/alnah/go-pdfcomply/internal/fileutil"
	"github.com/alnah/go-pdfcomply/internal/pdfinfo"
)

// inkThreshold is the largest C, M or Y coverage still treated as gray.
const inkThreshold = 0.0001

// DocumentInfo is what the encryption and version inspector reports.
type DocumentInfo struct {
	Version   string
	Encrypted bool
}

// InkCoverage is the per-page ink ratio measured by Ghostscript.
type InkCoverage struct {
	Page       int
	C, M, Y, K float64
}

// Colored reports whether any chromatic ink exceeds the gray threshold.
func (c InkCoverage) Colored() bool {
	return c.C > inkThreshold || c.M > inkThreshold || c.Y > inkThreshold
}

// ComplianceReport is the verdict of one audit. It carries no timestamps, so
// auditing the same file twice yields equal reports.
type ComplianceReport struct {
	Path          string        `json:"path"`
	Size          int64         `json:"size"`
	Version       string        `json:"version"`
	Images        []ImageRecord `json:"images"`
	InvalidImages int           `json:"invalidImages"`

	SizeOK       bool `json:"sizeOK"`
	VersionOK    bool `json:"versionOK"`
	ResolutionOK bool `json:"resolutionOK"`
	ColorOK      bool `json:"colorOK"`
	EncryptionOK bool `json:"encryptionOK"`

	Errors   []string  `json:"errors"`
	Warnings []string  `json:"warnings"`
	Findings []Finding `json:"findings"`
}

// Compliant reports whether every rule passed.
func (r ComplianceReport) Compliant() bool {
	return r.SizeOK && r.VersionOK && r.ResolutionOK && r.ColorOK && r.EncryptionOK
}

// Auditor re-verifies a document against every profile rule. Inspectors that
// are nil count as unavailable.
type Auditor struct {
	profile Profile
	msg     *diag.Printer
	images  imageInspector
	docs    docInspector
	ink     colorInspector
	sampler colorSampler
	prober  encryptionProber
}

// reportBuilder accumulates diagnostics in check order.
type reportBuilder struct {
	rep ComplianceReport
	msg *diag.Printer
}

func (b *reportBuilder) fail(kind FindingKind, key diag.Key, args ...any) {
	s := b.msg.Sprintf(key, args...)
	b.rep.Errors = append(b.rep.Errors, s)
	b.rep.Findings = append(b.rep.Findings, Finding{Kind: kind, Message: s})
}

func (b *reportBuilder) warn(key diag.Key, args ...any) {
	s := b.msg.Sprintf(key, args...)
	b.rep.Warnings = append(b.rep.Warnings, s)
	b.rep.Findings = append(b.rep.Findings, Finding{Kind: Unverified, Message: s})
}

// Audit runs the size, version, resolution, color and encryption checks in
// that order. Failing checks are reported in the result, not as an error;
// the error is reserved for unreadable input and cancellation.
func (a *Auditor) Audit(ctx context.Context, path string) (ComplianceReport, error) {
	if !fileutil.FileExists(path) {
		return ComplianceReport{}, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	size, err := fileutil.Size(path)
	if err != nil {
		return ComplianceReport{}, fmt.Errorf("reading %s: %w", path, err)
	}

	b := &reportBuilder{
		rep: ComplianceReport{Path: path, Size: size, Images: []ImageRecord{}},
		msg: a.msg,
	}

	a.checkSize(b)

	info, infoErr := a.inspect(ctx, path)
	if err := ctx.Err(); err != nil {
		return ComplianceReport{}, err
	}
	a.checkVersion(b, path, info, infoErr)

	records, inspected := a.checkResolution(ctx, b, path)
	if err := ctx.Err(); err != nil {
		return ComplianceReport{}, err
	}

	a.checkColor(ctx, b, path, records, inspected)
	if err := ctx.Err(); err != nil {
		return ComplianceReport{}, err
	}

	a.checkEncryption(ctx, b, path, info, infoErr)
	if err := ctx.Err(); err != nil {
		return ComplianceReport{}, err
	}
	return b.rep, nil
}

func (a *Auditor) checkSize(b *reportBuilder) {
	b.rep.SizeOK = b.rep.Size <= a.profile.MaxBytes
	if !b.rep.SizeOK {
		b.fail(SizeExceeded, diag.SizeExceeded, a.msg.Bytes(b.rep.Size), a.msg.Bytes(a.profile.MaxBytes))
	}
}

func (a *Auditor) inspect(ctx context.Context, path string) (DocumentInfo, error) {
	if a.docs == nil {
		return DocumentInfo{}, fmt.Errorf("%w: qpdf", ErrMissingDependency)
	}
	return a.docs.Inspect(ctx, path)
}

func (a *Auditor) checkVersion(b *reportBuilder, path string, info DocumentInfo, infoErr error) {
	version := info.Version
	if infoErr != nil || version == "" {
		v, err := pdfinfo.HeaderVersion(path)
		if err == nil {
			version = v
			b.warn(diag.VersionHeaderFallback)
		}
	}
	b.rep.Version = version

	switch {
	case version == "":
		b.fail(VersionMismatch, diag.VersionUnknown)
	case version != a.profile.Version:
		b.fail(VersionMismatch, diag.VersionMismatch, version, a.profile.Version)
	default:
		b.rep.VersionOK = true
	}
}

// checkResolution returns the inspected image records and whether the
// inspector actually ran.
func (a *Auditor) checkResolution(ctx context.Context, b *reportBuilder, path string) ([]ImageRecord, bool) {
	if a.images == nil {
		b.fail(Unverified, diag.ResolutionUnverified)
		return nil, false
	}
	records, err := a.images.InspectImages(ctx, path)
	if err != nil {
		b.fail(Unverified, diag.ResolutionUnreadable, err.Error())
		return nil, false
	}

	rep := EvaluateResolution(records, a.profile.DPI)
	b.rep.Images = rep.Images
	b.rep.InvalidImages = rep.Invalid
	b.rep.ResolutionOK = rep.Valid
	if !rep.Valid {
		b.fail(ResolutionNonConformant, diag.ResolutionMismatch, rep.Invalid, rep.Total, a.profile.DPI)
	}
	return rep.Images, true
}

// checkColor assumes gray when nothing could be measured, and says so. Ink
// coverage is preferred; rendered samples stand in when it reports nothing.
func (a *Auditor) checkColor(ctx context.Context, b *reportBuilder, path string, records []ImageRecord, inspected bool) {
	b.rep.ColorOK = true

	if inspected {
		colored := 0
		for _, r := range records {
			if r.Type == "image" && !r.Gray() {
				colored++
			}
		}
		if colored > 0 {
			b.rep.ColorOK = false
			b.fail(ColorNonConformant, diag.ColorImages, colored)
		}
	}

	measured := false
	if a.ink != nil {
		pages, err := a.ink.InkCoverage(ctx, path)
		switch {
		case err != nil:
			b.warn(diag.ColorInkUnreadable, err.Error())
		case len(pages) == 0:
			b.warn(diag.ColorInkEmpty)
		default:
			measured = true
			for _, p := range pages {
				if p.Colored() {
					b.rep.ColorOK = false
					b.fail(ColorNonConformant, diag.ColorInk, p.Page)
				}
			}
		}
	}

	if !measured && a.sampler != nil {
		pages, err := a.sampler.ColoredPages(ctx, path)
		if err != nil {
			b.warn(diag.ColorSampleUnreadable, err.Error())
		} else {
			measured = true
			for _, n := range pages {
				b.rep.ColorOK = false
				b.fail(ColorNonConformant, diag.ColorInk, n)
			}
		}
	}

	if !inspected && !measured {
		b.warn(diag.ColorUnverified)
	}
}

func (a *Auditor) checkEncryption(ctx context.Context, b *reportBuilder, path string, info DocumentInfo, infoErr error) {
	encrypted, known := info.Encrypted, infoErr == nil
	if infoErr != nil && a.docs != nil {
		b.warn(diag.EncryptionUnreadable, infoErr.Error())
	}
	if !known && a.prober != nil {
		if enc, err := a.prober.ProbeEncryption(ctx, path); err == nil {
			encrypted, known = enc, true
		}
	}
	if !known {
		b.warn(diag.EncryptionUnverified)
		b.rep.EncryptionOK = true
		return
	}

	b.rep.EncryptionOK = !encrypted
	if encrypted {
		b.fail(EncryptionDetected, diag.EncryptionDetected)
	}
}

// CheckResolution runs only the resolution rule.
func (a *Auditor) CheckResolution(ctx context.Context, path string) (ResolutionReport, error) {
	if a.images == nil {
		return ResolutionReport{}, fmt.Errorf("%w: pdfimages", ErrMissingDependency)
	}
	records, err := a.images.InspectImages(ctx, path)
	if err != nil {
		return ResolutionReport{}, err
	}
	return EvaluateResolution(records, a.profile.DPI), nil
}
