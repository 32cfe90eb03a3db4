package pdfcomply

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-pdfcomply/internal/fileutil"
	"github.com/alnah/go-pdfcomply/internal/imaging"
	"github.com/alnah/go-pdfcomply/internal/pipeline"
)

// sourceKind classifies an input document by extension.
type sourceKind int

const (
	sourceUnknown sourceKind = iota
	sourcePDF
	sourceHTML
	sourceMarkdown
	sourceImage
)

// SupportedExtensions lists every accepted input extension.
var SupportedExtensions = []string{
	".pdf", ".html", ".htm", ".md", ".markdown",
	".jpg", ".jpeg", ".png", ".tif", ".tiff",
}

func sourceKindOf(path string) sourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return sourcePDF
	case ".html", ".htm":
		return sourceHTML
	case ".md", ".markdown":
		return sourceMarkdown
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff":
		return sourceImage
	}
	return sourceUnknown
}

// normalize turns the source into a PDF the rasterizer can read. PDFs are
// used in place; HTML and Markdown are rendered with the headless browser
// into the workspace.
func (j *job) normalize(ctx context.Context) (string, error) {
	src := j.input.Path
	kind := sourceKindOf(src)
	if kind == sourcePDF {
		return src, nil
	}

	content, err := os.ReadFile(src) // #nosec G304 -- user-provided input
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(src), err)
	}

	htmlContent := string(content)
	if kind == sourceMarkdown {
		htmlContent, err = j.c.markdown.ToHTML(ctx, htmlContent, fileutil.Stem(src))
		if err != nil {
			return "", fmt.Errorf("converting to HTML: %w", err)
		}
	}

	htmlContent, err = pipeline.ResolveLocalReferences(htmlContent, filepath.Dir(src))
	if err != nil {
		return "", fmt.Errorf("rewriting relative paths: %w", err)
	}

	htmlPath, cleanup, err := fileutil.WriteTempFile(j.ws.Dir, htmlContent, "html")
	if err != nil {
		return "", err
	}
	defer cleanup()

	out := j.ws.Path("source.pdf")
	if err := j.c.renderer.RenderToFile(ctx, htmlPath, out); err != nil {
		return "", fmt.Errorf("rendering %s: %w", filepath.Base(src), err)
	}
	if !artifactOK(out) {
		return "", fmt.Errorf("rendering %s: %w", filepath.Base(src), ErrEmptyOutput)
	}
	return out, nil
}

// imageSource decodes a standalone image into a single gray raster page.
// The pixels are kept as is; only the channel count changes.
func imageSource(path, outDir string) ([]RasterPage, error) {
	gray, err := imaging.LoadGray(path)
	if err != nil {
		return nil, err
	}
	dst := filepath.Join(outDir, "page_0001.tif")
	if err := imaging.WriteTIFF(dst, gray); err != nil {
		return nil, err
	}
	b := gray.Bounds()
	return []RasterPage{{Index: 1, Width: b.Dx(), Height: b.Dy(), Total: 1, Path: dst}}, nil
}
