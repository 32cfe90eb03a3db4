package ghostscript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-pdfcomply/internal/imaging"
)

// AssemblyPage pairs a raster page with its encoded JPEG stream.
type AssemblyPage struct {
	imaging.Page
	JPEG string
}

// Assemble builds one PDF page per raster page. Each page canvas is the
// pixel size scaled by 72/dpi, so the embedded image lands at exactly dpi on
// both axes. JPEG streams are passed through untouched.
func (c *Client) Assemble(ctx context.Context, pages []imaging.Page, dpi, quality int, output, workDir string) error {
	if len(pages) == 0 {
		return fmt.Errorf("assembling %s: no pages", filepath.Base(output))
	}

	entries := make([]AssemblyPage, 0, len(pages))
	defer func() {
		for _, e := range entries {
			_ = os.Remove(e.JPEG)
		}
	}()

	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(workDir, fmt.Sprintf("page_%04d_q%02d.jpg", p.Index, quality))
		if err := imaging.Transcode(p, dst, quality); err != nil {
			return fmt.Errorf("encoding page %d: %w", p.Index, err)
		}
		entries = append(entries, AssemblyPage{Page: p, JPEG: dst})
	}

	program := filepath.Join(workDir, fmt.Sprintf("assemble_q%02d.ps", quality))
	if err := os.WriteFile(program, []byte(AssemblyProgram(entries, dpi)), 0o600); err != nil {
		return fmt.Errorf("writing assembly program: %w", err)
	}
	defer os.Remove(program)

	args := c.pdfwriteArgs(output)
	args = append(args, noResampleArgs...)
	args = append(args,
		"--permit-file-read="+permitDir(workDir),
		program,
	)
	if _, err := c.run(ctx, c.timeouts.Render, workDir, args...); err != nil {
		return fmt.Errorf("assembling %s: %w", filepath.Base(output), err)
	}
	return nil
}

// AssemblyProgram renders the PostScript that places each JPEG on its own
// page with a DCTDecode filter.
func AssemblyProgram(pages []AssemblyPage, dpi int) string {
	var b strings.Builder
	b.WriteString("%!PS-Adobe-3.0\n")
	fmt.Fprintf(&b, "%%%%Pages: %d\n", len(pages))
	b.WriteString("%%EndComments\n")

	for _, p := range pages {
		w, h := p.PageSize(dpi)
		ws, hs := formatPoints(w), formatPoints(h)
		fmt.Fprintf(&b, "%%%%Page: %d %d\n", p.Index, p.Index)
		fmt.Fprintf(&b, "<< /PageSize [%s %s] >> setpagedevice\n", ws, hs)
		b.WriteString("gsave\n")
		fmt.Fprintf(&b, "%s %s scale\n", ws, hs)
		b.WriteString("/DeviceGray setcolorspace\n")
		fmt.Fprintf(&b, "/src %s (r) file def\n", psString(p.JPEG))
		fmt.Fprintf(&b, "<< /ImageType 1 /Width %d /Height %d /BitsPerComponent 8 /Decode [0 1]\n", p.Width, p.Height)
		fmt.Fprintf(&b, "   /ImageMatrix [%d 0 0 %d 0 %d] /DataSource src /DCTDecode filter >> image\n", p.Width, -p.Height, p.Height)
		b.WriteString("src closefile\n")
		b.WriteString("grestore\n")
		b.WriteString("showpage\n")
	}
	b.WriteString("%%EOF\n")
	return b.String()
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// psString quotes s as a PostScript string literal.
func psString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

// permitDir formats a directory for --permit-file-read, which matches by
// prefix and therefore needs the trailing separator.
func permitDir(dir string) string {
	dir = filepath.ToSlash(dir)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir
}
