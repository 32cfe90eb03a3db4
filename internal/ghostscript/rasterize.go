package ghostscript

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/alnah/go-pdfcomply/internal/imaging"
)

// pagePattern is the Ghostscript output template for rasterized pages.
const pagePattern = "page_%04d.tif"

var pageFileRe = regexp.MustCompile(`^page_(\d+)\.tif$`)

// Rasterize renders every page of input to an 8-bit gray TIFF at dpi in a
// single invocation. Pages already written are returned alongside any error.
func (c *Client) Rasterize(ctx context.Context, input string, dpi int, outDir string) ([]imaging.Page, error) {
	_, runErr := c.run(ctx, c.timeouts.Render, outDir,
		"-sDEVICE=tiffgray",
		"-r"+strconv.Itoa(dpi),
		"-sCompression=lzw",
		"-sOutputFile="+filepath.Join(outDir, pagePattern),
		input,
	)

	pages, err := CollectPages(outDir)
	if err != nil {
		return nil, err
	}
	if runErr != nil {
		return pages, fmt.Errorf("rasterizing %s: %w", filepath.Base(input), runErr)
	}
	return pages, nil
}

// CollectPages lists page_NNNN.tif files in dir ordered by page number and
// reads their pixel dimensions.
func CollectPages(dir string) ([]imaging.Page, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "page_*.tif"))
	if err != nil {
		return nil, err
	}

	type numbered struct {
		n    int
		path string
	}
	files := make([]numbered, 0, len(matches))
	for _, m := range matches {
		sub := pageFileRe.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		n, _ := strconv.Atoi(sub[1])
		files = append(files, numbered{n: n, path: m})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	pages := make([]imaging.Page, 0, len(files))
	for i, f := range files {
		cfg, err := imaging.DecodeConfig(f.path)
		if err != nil {
			return nil, err
		}
		pages = append(pages, imaging.Page{
			Index:  i + 1,
			Width:  cfg.Width,
			Height: cfg.Height,
			Total:  len(files),
			Path:   f.path,
		})
	}
	return pages, nil
}
