// Package mupdf rasterizes documents in-process with MuPDF through go-fitz.
// It is selected with the "mupdf" rasterizer setting; assembly still runs
// through Ghostscript.
package mupdf

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/alnah/go-pdfcomply/internal/imaging"
)

// pagePattern matches the Ghostscript rasterizer output so that both
// backends produce interchangeable page sets.
const pagePattern = "page_%04d.tif"

// Rasterizer renders pages with MuPDF.
type Rasterizer struct{}

// Rasterize renders every page of input to a gray TIFF at dpi. Pages already
// written are returned alongside any error.
func (Rasterizer) Rasterize(ctx context.Context, input string, dpi int, outDir string) ([]imaging.Page, error) {
	doc, err := fitz.New(input)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(input), err)
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]imaging.Page, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return pages, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
		gray := imaging.ToGray(img)

		path := filepath.Join(outDir, fmt.Sprintf(pagePattern, i+1))
		if err := imaging.WriteTIFF(path, gray); err != nil {
			return pages, err
		}
		b := gray.Bounds()
		pages = append(pages, imaging.Page{
			Index:  i + 1,
			Width:  b.Dx(),
			Height: b.Dy(),
			Total:  total,
			Path:   path,
		})
	}
	return pages, nil
}
