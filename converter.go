package pdfcomply

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/alnah/go-pdfcomply/internal/diag"
	"github.com/alnah/go-pdfcomply/internal/fileutil"
	"github.com/alnah/go-pdfcomply/internal/ghostscript"
	"github.com/alnah/go-pdfcomply/internal/imaging"
	"github.com/alnah/go-pdfcomply/internal/pipeline"
	"github.com/alnah/go-pdfcomply/internal/poppler"
	"github.com/alnah/go-pdfcomply/internal/process"
	"github.com/alnah/go-pdfcomply/internal/qpdf"
	"github.com/alnah/go-pdfcomply/internal/tools"
	"github.com/alnah/go-pdfcomply/internal/workspace"
)

// Converter drives documents to the compliance profile.
// Create with NewConverter, call Convert, Audit, Compress, Merge or
// ExtractImages, and Close when done. Jobs on one Converter run
// independently; use a ConverterPool to bound how many run at once.
type Converter struct {
	cfg           converterConfig
	log           zerolog.Logger
	msg           *diag.Printer
	tools         tools.Set
	toolsResolved bool

	runner     process.Runner
	rasterizer rasterizer
	assembler  assembler
	concat     concatenator
	qpdfMerge  versionMerger
	compressor compressor
	counter    pageCounter
	images     imageInspector
	docs       docInspector
	ink        colorInspector
	sampler    colorSampler
	prober     encryptionProber
	markdown   pipeline.HTMLConverter
	renderer   pageRenderer

	auditor *Auditor
}

// NewConverter creates a Converter. External tools are located once, here;
// a missing tool does not fail construction but makes the operations that
// need it return ErrMissingDependency.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: defaultConfig(),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.validate(); err != nil {
		return nil, err
	}
	c.msg = diag.New(c.cfg.language)
	c.cfg.timeouts = c.cfg.timeouts.withDefaults()

	if !c.toolsResolved {
		overrides := tools.OverridesFromEnv(os.Getenv)
		for t, p := range c.cfg.toolPaths {
			overrides[t] = p
		}
		c.tools = tools.NewLocator(overrides).Resolve()
		c.toolsResolved = true
	}
	c.wireTools()

	c.auditor = &Auditor{
		profile: c.cfg.profile,
		msg:     c.msg,
		images:  c.images,
		docs:    c.docs,
		ink:     c.ink,
		sampler: c.sampler,
		prober:  c.prober,
	}
	return c, nil
}

// wireTools builds adapters for every located tool. Collaborators already
// set (by tests) are kept.
func (c *Converter) wireTools() {
	t := c.cfg.timeouts

	if path, err := c.tools.Path(tools.Ghostscript); err == nil {
		gs := ghostscript.New(path, c.runner, ghostscript.Timeouts{
			Render: t.Render,
			Probe:  t.Probe,
			Ink:    t.InkCoverage,
		}).WithVersion(c.cfg.profile.Version)

		if c.rasterizer == nil && c.cfg.rasterizer == RasterizerGhostscript {
			c.rasterizer = gsRasterizer{gs: gs}
		}
		if c.assembler == nil {
			c.assembler = gsAssembler{gs: gs}
		}
		if c.concat == nil {
			c.concat = gs
		}
		if c.compressor == nil {
			c.compressor = gs
		}
		if c.ink == nil {
			c.ink = gsInkInspector{gs: gs}
		}
		if c.sampler == nil {
			c.sampler = gsColorSampler{gs: gs, workDir: c.cfg.workDir}
		}
		if c.prober == nil {
			c.prober = gs
		}
	}
	if c.rasterizer == nil && c.cfg.rasterizer == RasterizerMuPDF {
		c.rasterizer = fitzRasterizer{}
	}

	if path, err := c.tools.Path(tools.QPDF); err == nil {
		q := qpdf.New(path, c.runner).WithProbeTimeout(t.Probe)
		if c.qpdfMerge == nil {
			c.qpdfMerge = q
		}
		if c.docs == nil {
			c.docs = qpdfInspector{c: q}
		}
	}

	if path, err := c.tools.Path(tools.PDFImages); err == nil && c.images == nil {
		c.images = popplerInspector{c: poppler.New(path, c.runner, t.Inspect)}
	}

	if c.counter == nil {
		c.counter = pdfcpuCounter{}
	}
	if c.markdown == nil {
		c.markdown = pipeline.NewGoldmarkConverter()
	}
	if c.renderer == nil {
		c.renderer = newRodRenderer(t.Render)
	}
}

// validate checks option values that cannot be checked when the option is
// built.
func (cfg converterConfig) validate() error {
	if err := cfg.profile.Validate(); err != nil {
		return err
	}
	if len(cfg.qualityLevels) == 0 {
		return fmt.Errorf("%w: no quality levels", ErrInvalidQuality)
	}
	if len(cfg.qualityLevels) > MaxQualityLevels {
		return fmt.Errorf("%w: %d quality levels, at most %d allowed", ErrInvalidQuality, len(cfg.qualityLevels), MaxQualityLevels)
	}
	for i, q := range cfg.qualityLevels {
		if q < imaging.MinQuality || q > imaging.MaxQuality {
			return fmt.Errorf("%w: %d", ErrInvalidQuality, q)
		}
		if i > 0 && q >= cfg.qualityLevels[i-1] {
			return fmt.Errorf("%w: levels must be strictly descending", ErrInvalidQuality)
		}
	}
	if cfg.extractQuality < imaging.MinQuality || cfg.extractQuality > imaging.MaxQuality {
		return fmt.Errorf("%w: extract quality %d", ErrInvalidQuality, cfg.extractQuality)
	}
	switch cfg.rasterizer {
	case RasterizerGhostscript, RasterizerMuPDF:
	default:
		return fmt.Errorf("unknown rasterizer %q", cfg.rasterizer)
	}
	return nil
}

// Profile returns the compliance profile the converter targets.
func (c *Converter) Profile() Profile {
	return c.cfg.profile
}

// Close releases the headless browser, if one was started.
func (c *Converter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// Audit verifies path against every profile rule.
func (c *Converter) Audit(ctx context.Context, path string) (ComplianceReport, error) {
	return c.auditor.Audit(ctx, path)
}

// CheckResolution verifies only the embedded image density of path. It
// returns ErrMissingDependency when pdfimages is not installed.
func (c *Converter) CheckResolution(ctx context.Context, path string) (ResolutionReport, error) {
	return c.auditor.CheckResolution(ctx, path)
}

// Convert turns input into one compliant document, or into Input.PartCount
// documents when Input.Split is set. Oversize output is reported as a
// SizeExceeded finding, not an error. The job workspace is removed on every
// return path. Recovers from internal panics to prevent crashes from
// propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := c.validateInput(input); err != nil {
		return nil, err
	}
	if err := c.requireConvertTools(input.Path); err != nil {
		return nil, err
	}

	ws, err := workspace.Acquire(c.cfg.workDir)
	if err != nil {
		return nil, err
	}
	defer c.release(ws)
	j := c.newJob(ws, input)

	pages, err := j.rasterize(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case input.Split:
		result, err = j.convertSplit(ctx, pages)
	case len(pages) > c.cfg.largeDocThreshold:
		result, err = j.convertLarge(ctx, pages)
	default:
		result, err = j.convertSmall(ctx, pages)
	}
	if err != nil {
		return nil, err
	}
	j.enter(phaseDone)
	return result, nil
}

// validateInput checks Input fields. This is a TRUST BOUNDARY for direct
// library users; the CLI validates flags earlier but both paths end here.
func (c *Converter) validateInput(input Input) error {
	if input.Path == "" || !fileutil.FileExists(input.Path) {
		return fmt.Errorf("%w: %q", ErrInputNotFound, input.Path)
	}
	if sourceKindOf(input.Path) == sourceUnknown {
		return fmt.Errorf("%w: %s", ErrUnsupportedInput, filepath.Ext(input.Path))
	}
	if input.Split && (input.PartCount < MinParts || input.PartCount > MaxParts) {
		return fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidPartCount, input.PartCount, MinParts, MaxParts)
	}
	return nil
}

// requireConvertTools fails fast when a tool the job cannot do without is
// missing. Standalone images skip rasterization.
func (c *Converter) requireConvertTools(path string) error {
	if c.assembler == nil {
		return fmt.Errorf("%w: %s", ErrMissingDependency, tools.Ghostscript)
	}
	if sourceKindOf(path) != sourceImage && c.rasterizer == nil {
		return fmt.Errorf("%w: %s rasterizer", ErrMissingDependency, c.cfg.rasterizer)
	}
	return nil
}

// Job phases, in order.
const (
	phaseNormalize = "normalize"
	phaseRasterize = "rasterize"
	phaseAssemble  = "assemble"
	phaseMerge     = "merge"
	phaseVerify    = "verify"
	phaseDone      = "done"
)

// job is the state of one Convert call. It lives exactly as long as its
// workspace.
type job struct {
	c     *Converter
	ws    *workspace.Workspace
	input Input
	log   zerolog.Logger

	phase          string
	pagesProcessed int
	quality        int
	part           int
}

func (c *Converter) newJob(ws *workspace.Workspace, input Input) *job {
	return &job{
		c:     c,
		ws:    ws,
		input: input,
		log:   c.log.With().Str("job", ws.ID).Str("source", filepath.Base(input.Path)).Logger(),
	}
}

func (j *job) enter(phase string) {
	j.phase = phase
	j.log.Debug().Str("phase", phase).Int("pages", j.pagesProcessed).Int("quality", j.quality).Int("part", j.part).Msg("phase")
}

// rasterize normalizes the source and renders every page once.
func (j *job) rasterize(ctx context.Context) ([]RasterPage, error) {
	rasterDir, err := j.ws.Sub("raster")
	if err != nil {
		return nil, err
	}

	var pages []RasterPage
	if sourceKindOf(j.input.Path) == sourceImage {
		j.enter(phaseRasterize)
		pages, err = imageSource(j.input.Path, rasterDir)
		if err != nil {
			return nil, fmt.Errorf("reading image %s: %w", filepath.Base(j.input.Path), err)
		}
	} else {
		j.enter(phaseNormalize)
		pdfPath, err := j.normalize(ctx)
		if err != nil {
			return nil, err
		}

		j.enter(phaseRasterize)
		pages, err = j.c.rasterizer.Rasterize(ctx, pdfPath, j.c.cfg.profile.DPI, rasterDir)
		if err != nil {
			return nil, toolError(err)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRasterOutput, filepath.Base(j.input.Path))
	}
	j.pagesProcessed = len(pages)
	j.log.Info().Int("pages", len(pages)).Int("dpi", j.c.cfg.profile.DPI).Msg("rasterized")
	return pages, nil
}

// outputBase is the path derived output names are built from.
func (j *job) outputBase() string {
	if j.input.Output != "" {
		return j.input.Output
	}
	return j.input.Path
}

// outputPath is the destination of a single-document conversion.
func (j *job) outputPath() string {
	if j.input.Output != "" {
		return j.input.Output
	}
	return fileutil.SiblingPath(j.input.Path, "_compliant.pdf")
}

// partPath is the destination of part i of a split conversion.
func (j *job) partPath(i int) string {
	return fileutil.SiblingPath(j.outputBase(), fmt.Sprintf("_part%d.pdf", i))
}

// deliver moves a finished document out of the workspace.
func (j *job) deliver(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := fileutil.Move(src, dst); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

// verify audits a delivered document when the caller asked for it.
func (j *job) verify(ctx context.Context, path string) (*ComplianceReport, error) {
	if !j.input.Verify {
		return nil, nil
	}
	j.enter(phaseVerify)
	rep, err := j.c.auditor.Audit(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("verifying %s: %w", filepath.Base(path), err)
	}
	return &rep, nil
}

func (j *job) oversize(key diag.Key, args ...any) Finding {
	return Finding{Kind: SizeExceeded, Message: j.c.msg.Sprintf(key, args...)}
}

// candidatePath names a quality-loop candidate inside the workspace.
func (j *job) candidatePath(prefix string) func(int) string {
	return func(q int) string {
		return j.ws.Path(fmt.Sprintf("%s_q%02d.pdf", prefix, q))
	}
}
