package pdfcomply

import (
	"context"

	"github.com/alnah/go-pdfcomply/internal/ghostscript"
	"github.com/alnah/go-pdfcomply/internal/mupdf"
	"github.com/alnah/go-pdfcomply/internal/pdfinfo"
	"github.com/alnah/go-pdfcomply/internal/poppler"
	"github.com/alnah/go-pdfcomply/internal/qpdf"
	"github.com/alnah/go-pdfcomply/internal/workspace"
)

// rasterizer renders every page of a document to a gray raster at dpi.
type rasterizer interface {
	Rasterize(ctx context.Context, input string, dpi int, outDir string) ([]RasterPage, error)
}

// assembler builds one document from raster pages encoded at quality.
type assembler interface {
	Assemble(ctx context.Context, pages []RasterPage, dpi, quality int, output, workDir string) error
}

// concatenator joins documents page by page without re-rendering.
type concatenator interface {
	Concat(ctx context.Context, inputs []string, output string) error
	ConcatFileList(ctx context.Context, inputs []string, output, listPath string) error
	ConcatPairwise(ctx context.Context, inputs []string, output, workDir string) error
}

// versionMerger joins documents and stamps the declared version.
type versionMerger interface {
	Merge(ctx context.Context, inputs []string, output, version string) error
}

// compressor re-encodes embedded images without re-rendering pages.
type compressor interface {
	Compress(ctx context.Context, input, output string, s ghostscript.CompressSettings) error
}

// pageCounter counts the pages of a finished document.
type pageCounter interface {
	CountPages(path string) (int, error)
}

// imageInspector lists the embedded images of a document.
type imageInspector interface {
	InspectImages(ctx context.Context, path string) ([]ImageRecord, error)
}

// docInspector reads the declared version and the encryption state.
type docInspector interface {
	Inspect(ctx context.Context, path string) (DocumentInfo, error)
}

// colorInspector measures per-page ink coverage.
type colorInspector interface {
	InkCoverage(ctx context.Context, path string) ([]InkCoverage, error)
}

// colorSampler renders pages and reports the ones carrying visible color.
type colorSampler interface {
	ColoredPages(ctx context.Context, path string) ([]int, error)
}

// encryptionProber is the fallback encryption check.
type encryptionProber interface {
	ProbeEncryption(ctx context.Context, path string) (bool, error)
}

// Compile-time interface implementation checks.
var (
	_ rasterizer       = gsRasterizer{}
	_ rasterizer       = fitzRasterizer{}
	_ assembler        = gsAssembler{}
	_ concatenator     = (*ghostscript.Client)(nil)
	_ versionMerger    = (*qpdf.Client)(nil)
	_ compressor       = (*ghostscript.Client)(nil)
	_ pageCounter      = pdfcpuCounter{}
	_ imageInspector   = popplerInspector{}
	_ docInspector     = qpdfInspector{}
	_ colorInspector   = gsInkInspector{}
	_ colorSampler     = gsColorSampler{}
	_ encryptionProber = (*ghostscript.Client)(nil)
)

type gsRasterizer struct{ gs *ghostscript.Client }

func (r gsRasterizer) Rasterize(ctx context.Context, input string, dpi int, outDir string) ([]RasterPage, error) {
	pages, err := r.gs.Rasterize(ctx, input, dpi, outDir)
	return fromImagingPages(pages), err
}

type fitzRasterizer struct{ r mupdf.Rasterizer }

func (f fitzRasterizer) Rasterize(ctx context.Context, input string, dpi int, outDir string) ([]RasterPage, error) {
	pages, err := f.r.Rasterize(ctx, input, dpi, outDir)
	return fromImagingPages(pages), err
}

type gsAssembler struct{ gs *ghostscript.Client }

func (a gsAssembler) Assemble(ctx context.Context, pages []RasterPage, dpi, quality int, output, workDir string) error {
	return a.gs.Assemble(ctx, toImagingPages(pages), dpi, quality, output, workDir)
}

type pdfcpuCounter struct{}

func (pdfcpuCounter) CountPages(path string) (int, error) {
	return pdfinfo.PageCount(path)
}

type popplerInspector struct{ c *poppler.Client }

func (p popplerInspector) InspectImages(ctx context.Context, path string) ([]ImageRecord, error) {
	out, err := p.c.ListImages(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParseImageList(out), nil
}

type qpdfInspector struct{ c *qpdf.Client }

func (q qpdfInspector) Inspect(ctx context.Context, path string) (DocumentInfo, error) {
	info, err := q.c.Check(ctx, path)
	if err != nil {
		return DocumentInfo{}, err
	}
	return DocumentInfo{Version: info.Version, Encrypted: info.Encrypted}, nil
}

type gsInkInspector struct{ gs *ghostscript.Client }

func (g gsInkInspector) InkCoverage(ctx context.Context, path string) ([]InkCoverage, error) {
	pages, err := g.gs.InkCoverage(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]InkCoverage, len(pages))
	for i, p := range pages {
		out[i] = InkCoverage(p)
	}
	return out, nil
}

// gsColorSampler renders samples in a scratch workspace under workDir.
type gsColorSampler struct {
	gs      *ghostscript.Client
	workDir string
}

func (g gsColorSampler) ColoredPages(ctx context.Context, path string) ([]int, error) {
	ws, err := workspace.Acquire(g.workDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Release() }()
	return g.gs.ColoredPages(ctx, path, ws.Dir)
}
