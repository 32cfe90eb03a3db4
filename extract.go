package pdfcomply

import (
	"context"
	"fmt"
	"os"

	"github.com/klauspost/compress/zip"

	"github.com/alnah/go-pdfcomply/internal/fileutil"
	"github.com/alnah/go-pdfcomply/internal/imaging"
	"github.com/alnah/go-pdfcomply/internal/workspace"
)

// ExtractInput describes a page image extraction.
type ExtractInput struct {
	Path    string
	Output  string // empty = "<stem>_images.zip" next to Path
	Quality int    // JPEG quality; zero uses the converter default
}

// ExtractResult reports an extraction.
type ExtractResult struct {
	Output string
	Images int
	Size   int64
	Files  []string // archive entry names, in page order
}

// ExtractImages renders every page at the profile density and stores one
// gray JPEG per page in a ZIP archive.
func (c *Converter) ExtractImages(ctx context.Context, in ExtractInput) (*ExtractResult, error) {
	if err := c.validateInput(Input{Path: in.Path}); err != nil {
		return nil, err
	}
	quality := in.Quality
	if quality == 0 {
		quality = c.cfg.extractQuality
	}
	if quality < imaging.MinQuality || quality > imaging.MaxQuality {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	if sourceKindOf(in.Path) != sourceImage && c.rasterizer == nil {
		return nil, fmt.Errorf("%w: %s rasterizer", ErrMissingDependency, c.cfg.rasterizer)
	}

	ws, err := workspace.Acquire(c.cfg.workDir)
	if err != nil {
		return nil, err
	}
	defer c.release(ws)

	j := c.newJob(ws, Input{Path: in.Path})
	pages, err := j.rasterize(ctx)
	if err != nil {
		return nil, err
	}

	tmp := ws.Path("images.zip")
	files, err := writeImageArchive(ctx, tmp, pages, c.cfg.profile.DPI, quality)
	if err != nil {
		return nil, err
	}

	out := in.Output
	if out == "" {
		out = fileutil.SiblingPath(in.Path, "_images.zip")
	}
	if err := j.deliver(tmp, out); err != nil {
		return nil, err
	}
	size, err := fileutil.Size(out)
	if err != nil {
		return nil, err
	}

	c.log.Info().Int("images", len(files)).Str("output", out).Msg("extracted")
	return &ExtractResult{Output: out, Images: len(files), Size: size, Files: files}, nil
}

// writeImageArchive encodes each page as "page_NNN_<dpi>dpi.jpg". JPEG data
// is stored without further compression.
func writeImageArchive(ctx context.Context, path string, pages []RasterPage, dpi, quality int) (names []string, err error) {
	f, err := os.Create(path) // #nosec G304 -- workspace path
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gray, err := imaging.LoadGray(p.Path)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("page_%03d_%ddpi.jpg", p.Index, dpi)
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			return nil, err
		}
		if err := imaging.EncodeJPEG(w, gray, quality); err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", p.Index, err)
		}
		names = append(names, name)
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return names, nil
}
