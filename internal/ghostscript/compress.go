package ghostscript

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
)

// CompressSettings controls a re-encode pass.
type CompressSettings struct {
	PDFSettings string  // distiller preset without slash: screen, ebook, printer, prepress
	Resolution  int     // target image density in DPI
	Downsample  bool    // false keeps every image at its current density
	QFactor     float64 // DCT quantization; lower is higher quality
}

// Compress re-encodes embedded image streams without re-rasterizing text or
// vector content and without changing page geometry.
func (c *Client) Compress(ctx context.Context, input, output string, s CompressSettings) error {
	args := c.pdfwriteArgs(output)
	args = append(args,
		"-dPDFSETTINGS=/"+s.PDFSettings,
		"-dPassThroughJPEGImages=false",
		"-dAutoFilterGrayImages=false",
		"-dGrayImageFilter=/DCTEncode",
		"-dAutoFilterColorImages=false",
		"-dColorImageFilter=/DCTEncode",
	)
	args = append(args, resampleArgs(s)...)
	args = append(args, "-c", distillerParams(s.QFactor), "-f", input)

	if _, err := c.run(ctx, c.timeouts.Render, filepath.Dir(output), args...); err != nil {
		return fmt.Errorf("compressing %s: %w", filepath.Base(input), err)
	}
	return nil
}

func resampleArgs(s CompressSettings) []string {
	if !s.Downsample {
		return []string{
			"-dDownsampleGrayImages=false",
			"-dDownsampleColorImages=false",
			"-dDownsampleMonoImages=false",
		}
	}
	res := strconv.Itoa(s.Resolution)
	return []string{
		"-dDownsampleGrayImages=true",
		"-dGrayImageDownsampleType=/Bicubic",
		"-dGrayImageResolution=" + res,
		"-dGrayImageDownsampleThreshold=1.0",
		"-dDownsampleColorImages=true",
		"-dColorImageDownsampleType=/Bicubic",
		"-dColorImageResolution=" + res,
		"-dColorImageDownsampleThreshold=1.0",
		"-dDownsampleMonoImages=true",
		"-dMonoImageResolution=" + res,
	}
}

// distillerParams sets the JPEG quantization for gray and color images.
func distillerParams(qfactor float64) string {
	q := strconv.FormatFloat(qfactor, 'f', 2, 64)
	dict := "<< /QFactor " + q + " /Blend 1 /HSamples [1 1 1 1] /VSamples [1 1 1 1] >>"
	return "<< /GrayImageDict " + dict + " /ColorImageDict " + dict + " >> setdistillerparams"
}
