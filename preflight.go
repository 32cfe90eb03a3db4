package pdfcomply

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-pdfcomply/internal/diag"
	"github.com/alnah/go-pdfcomply/internal/fileutil"
	"github.com/alnah/go-pdfcomply/internal/ghostscript"
	"github.com/alnah/go-pdfcomply/internal/process"
	"github.com/alnah/go-pdfcomply/internal/workspace"
)

// Tier is a compression preset.
type Tier string

// Compression tiers. Printer and prepress share the profile density and
// differ only in JPEG quantization.
const (
	TierScreen   Tier = "screen"
	TierEbook    Tier = "ebook"
	TierPrinter  Tier = "printer"
	TierPrepress Tier = "prepress"
)

// Tiers lists every tier from smallest to highest quality.
var Tiers = []Tier{TierScreen, TierEbook, TierPrinter, TierPrepress}

type tierPreset struct {
	dpi     int
	qfactor float64
}

var tierPresets = map[Tier]tierPreset{
	TierScreen:   {dpi: 72, qfactor: 0.76},
	TierEbook:    {dpi: 150, qfactor: 0.40},
	TierPrinter:  {dpi: 300, qfactor: 0.40},
	TierPrepress: {dpi: 300, qfactor: 0.15},
}

// ParseTier converts a case-insensitive name into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierPresets[t]; !ok {
		return "", fmt.Errorf("%w: %q (want screen, ebook, printer or prepress)", ErrInvalidTier, s)
	}
	return t, nil
}

// DPI returns the image density the tier renders at.
func (t Tier) DPI() int {
	return tierPresets[t].dpi
}

// settings maps the tier onto Ghostscript options. Tiers at or above the
// profile density never resample.
func (t Tier) settings(profileDPI int) ghostscript.CompressSettings {
	p := tierPresets[t]
	return ghostscript.CompressSettings{
		PDFSettings: string(t),
		Resolution:  p.dpi,
		Downsample:  p.dpi < profileDPI,
		QFactor:     p.qfactor,
	}
}

// CompressInput describes one re-encode request.
type CompressInput struct {
	Path   string
	Output string // empty = "<stem>_<tier>.pdf" next to Path
	Tier   Tier
}

// CompressResult reports a re-encode.
type CompressResult struct {
	Output       string
	Tier         Tier
	OriginalSize int64
	Size         int64
	Reduction    float64 // percent of OriginalSize saved
	Compliant    bool    // tier keeps the profile density and the size fits
	Findings     []Finding
}

// Compress re-encodes the embedded images of an existing document without
// re-rendering pages. When the result is not smaller the original bytes are
// written to Output instead.
func (c *Converter) Compress(ctx context.Context, in CompressInput) (*CompressResult, error) {
	if !fileutil.FileExists(in.Path) {
		return nil, fmt.Errorf("%w: %q", ErrInputNotFound, in.Path)
	}
	tier, err := ParseTier(string(in.Tier))
	if err != nil {
		return nil, err
	}
	if c.compressor == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingDependency, ToolGhostscript)
	}

	ws, err := workspace.Acquire(c.cfg.workDir)
	if err != nil {
		return nil, err
	}
	defer c.release(ws)

	original, err := fileutil.Size(in.Path)
	if err != nil {
		return nil, err
	}

	tmp := ws.Path("compressed.pdf")
	if err := c.compressor.Compress(ctx, in.Path, tmp, tier.settings(c.cfg.profile.DPI)); err != nil {
		return nil, toolError(err)
	}
	if !artifactOK(tmp) {
		return nil, fmt.Errorf("compressing %s: %w", filepath.Base(in.Path), ErrEmptyOutput)
	}
	size, err := fileutil.Size(tmp)
	if err != nil {
		return nil, err
	}

	out := in.Output
	if out == "" {
		out = fileutil.SiblingPath(in.Path, "_"+string(tier)+".pdf")
	}
	res := &CompressResult{Output: out, Tier: tier, OriginalSize: original}

	if size >= original {
		res.Findings = append(res.Findings, Finding{Kind: Unchanged, Message: c.msg.Sprintf(diag.CompressNotSmaller)})
		if !samePath(in.Path, out) {
			if err := fileutil.CopyFile(in.Path, out); err != nil {
				return nil, err
			}
		}
		size = original
	} else if err := fileutil.Move(tmp, out); err != nil {
		return nil, err
	}

	res.Size = size
	if original > 0 {
		res.Reduction = float64(original-size) * 100 / float64(original)
	}

	dpiOK := tier.DPI() >= c.cfg.profile.DPI
	if !dpiOK {
		res.Findings = append(res.Findings, Finding{
			Kind:    ResolutionNonConformant,
			Message: c.msg.Sprintf(diag.CompressBelowProfile, string(tier), tier.DPI(), c.cfg.profile.DPI),
		})
	}
	sizeOK := size <= c.cfg.profile.MaxBytes
	if !sizeOK {
		res.Findings = append(res.Findings, Finding{
			Kind:    SizeExceeded,
			Message: c.msg.Sprintf(diag.SizeExceeded, c.msg.Bytes(size), c.msg.Bytes(c.cfg.profile.MaxBytes)),
		})
	}
	res.Compliant = dpiOK && sizeOK

	c.log.Info().Str("tier", string(tier)).Int64("before", original).Int64("after", size).Msg("compressed")
	return res, nil
}

// Merge input bounds.
const (
	MinMergeInputs = 2
	MaxMergeInputs = 50
)

// MergeInput describes a merge request.
type MergeInput struct {
	Paths  []string
	Output string // empty = "<first stem>_merged.pdf"
}

// MergeResult reports a merge.
type MergeResult struct {
	Output   string
	Inputs   int
	Pages    int
	Size     int64
	Strategy string // merge strategy that succeeded
	Findings []Finding
}

// Merge joins already compliant documents page by page. Nothing is
// re-rendered or resampled, so each page keeps its density.
func (c *Converter) Merge(ctx context.Context, in MergeInput) (*MergeResult, error) {
	switch n := len(in.Paths); {
	case n < MinMergeInputs:
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrTooFewInputs, n, MinMergeInputs)
	case n > MaxMergeInputs:
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyInputs, n, MaxMergeInputs)
	}
	for _, p := range in.Paths {
		if !fileutil.FileExists(p) {
			return nil, fmt.Errorf("%w: %q", ErrInputNotFound, p)
		}
	}

	ws, err := workspace.Acquire(c.cfg.workDir)
	if err != nil {
		return nil, err
	}
	defer c.release(ws)

	mergeDir, err := ws.Sub("merge")
	if err != nil {
		return nil, err
	}
	tmp := ws.Path("merged.pdf")
	strategy, err := runMergeChain(ctx, c.log, c.mergeChain(mergeDir), in.Paths, tmp)
	if err != nil {
		return nil, err
	}

	res := &MergeResult{Inputs: len(in.Paths), Strategy: strategy}
	if err := c.checkMergedPages(in.Paths, tmp, res); err != nil {
		return nil, err
	}

	out := in.Output
	if out == "" {
		out = fileutil.SiblingPath(in.Paths[0], "_merged.pdf")
	}
	if err := fileutil.Move(tmp, out); err != nil {
		return nil, err
	}
	res.Output = out

	if res.Size, err = fileutil.Size(out); err != nil {
		return nil, err
	}
	if res.Size > c.cfg.profile.MaxBytes {
		res.Findings = append(res.Findings, Finding{
			Kind:    SizeExceeded,
			Message: c.msg.Sprintf(diag.MergeOversize, c.msg.Bytes(res.Size), c.msg.Bytes(c.cfg.profile.MaxBytes)),
		})
	}

	c.log.Info().Int("inputs", res.Inputs).Int("pages", res.Pages).Str("strategy", strategy).Msg("merged")
	return res, nil
}

// checkMergedPages compares the merged page count with the sum of the
// inputs. A count that cannot be taken becomes an Unverified finding.
func (c *Converter) checkMergedPages(inputs []string, merged string, res *MergeResult) error {
	got, err := c.counter.CountPages(merged)
	if err != nil {
		res.Findings = append(res.Findings, Finding{Kind: Unverified, Message: c.msg.Sprintf(diag.MergePagesUnverified, err.Error())})
		return nil
	}
	res.Pages = got

	want := 0
	for _, p := range inputs {
		n, err := c.counter.CountPages(p)
		if err != nil {
			res.Findings = append(res.Findings, Finding{Kind: Unverified, Message: c.msg.Sprintf(diag.MergePagesUnverified, err.Error())})
			return nil
		}
		want += n
	}
	if got != want {
		return fmt.Errorf("%w: merged document has %d pages, inputs have %d", ErrAssemblyFailure, got, want)
	}
	return nil
}

func (c *Converter) release(ws *workspace.Workspace) {
	if err := ws.Release(); err != nil {
		c.log.Warn().Err(err).Str("job", ws.ID).Msg("workspace cleanup failed")
	}
}

// toolError marks a vanished executable as a missing dependency.
func toolError(err error) error {
	if errors.Is(err, process.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrMissingDependency, err)
	}
	return err
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
