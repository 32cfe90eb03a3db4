// Package imaging handles single-channel raster pages: decoding the
// rasterizer output, converting to gray and encoding JPEG streams for assembly.
package imaging

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG for image sources
	"io"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Quality bounds accepted by the JPEG encoder.
const (
	MinQuality = 1
	MaxQuality = 100
)

// ErrInvalidQuality indicates a JPEG quality outside [MinQuality, MaxQuality].
var ErrInvalidQuality = errors.New("JPEG quality out of range")

// Page is one rasterized page stored on disk.
type Page struct {
	Index  int    // 1-based position in the source document
	Width  int    // pixels
	Height int    // pixels
	Total  int    // page count of the source document
	Path   string // single-channel raster file
}

// PageSize returns the page canvas in points so that the raster lands at
// exactly dpi pixels per inch on both axes.
func (p Page) PageSize(dpi int) (width, height float64) {
	return float64(p.Width) * 72 / float64(dpi), float64(p.Height) * 72 / float64(dpi)
}

// DecodeConfig reads the dimensions of an image file without decoding pixels.
func DecodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path) // #nosec G304 -- workspace path
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return image.Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return cfg, nil
}

// LoadGray decodes an image file (TIFF, PNG or JPEG) into a gray image.
func LoadGray(path string) (*image.Gray, error) {
	f, err := os.Open(path) // #nosec G304 -- workspace or user path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return ToGray(img), nil
}

// ToGray converts img to 8-bit gray. Gray input is returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Color sampling thresholds used by HasColor.
const (
	colorTolerance = 5     // largest channel spread still counted as gray
	colorSample    = 10000 // pixels inspected per image
	colorRatio     = 0.01  // colored share above which the image is colored
)

// HasColor decodes the image at path and reports whether it carries visible
// color. See IsColored.
func HasColor(path string) (bool, error) {
	f, err := os.Open(path) // #nosec G304 -- workspace path
	if err != nil {
		return false, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return IsColored(img), nil
}

// IsColored samples up to colorSample pixels spread evenly over img. A pixel
// is colored when two of its channels differ by more than colorTolerance, and
// the image is colored when more than colorRatio of the sample is.
func IsColored(img image.Image) bool {
	if _, ok := img.(*image.Gray); ok {
		return false
	}
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return false
	}
	step := max(total/colorSample, 1)

	sampled, colored := 0, 0
	for i := 0; i < total; i += step {
		x, y := b.Min.X+i%b.Dx(), b.Min.Y+i/b.Dx()
		r, g, bl, _ := img.At(x, y).RGBA()
		if spread(int(r>>8), int(g>>8), int(bl>>8)) > colorTolerance {
			colored++
		}
		sampled++
	}
	return float64(colored) > float64(sampled)*colorRatio
}

func spread(r, g, b int) int {
	return max(r, g, b) - min(r, g, b)
}

// EncodeJPEG writes img as a baseline gray JPEG.
func EncodeJPEG(w io.Writer, img *image.Gray, quality int) error {
	if quality < MinQuality || quality > MaxQuality {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// WriteJPEG encodes img to path.
func WriteJPEG(path string, img *image.Gray, quality int) error {
	return writeFile(path, func(w io.Writer) error {
		return EncodeJPEG(w, img, quality)
	})
}

// WriteTIFF stores img losslessly, matching what the Ghostscript tiffgray
// device produces.
func WriteTIFF(path string, img *image.Gray) error {
	return writeFile(path, func(w io.Writer) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	})
}

// Transcode re-encodes a raster page as a JPEG at the given quality.
func Transcode(page Page, dst string, quality int) error {
	img, err := LoadGray(page.Path)
	if err != nil {
		return err
	}
	return WriteJPEG(dst, img, quality)
}

func writeFile(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path) // #nosec G304 -- workspace path
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := encode(bw); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return bw.Flush()
}
