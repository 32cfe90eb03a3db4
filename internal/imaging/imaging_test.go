package imaging

// Notes:
// - Round trips go through real files in t.TempDir(); no codec is mocked.
// - JPEG is lossy so we only assert dimensions and decodability, never pixels.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

// ---------------------------------------------------------------------------
// TestPage_PageSize - Canvas geometry
// ---------------------------------------------------------------------------

func TestPage_PageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		page         Page
		dpi          int
		wantW, wantH float64
	}{
		{"letter at 300", Page{Width: 2550, Height: 3300}, 300, 612, 792},
		{"a4 at 300", Page{Width: 2480, Height: 3508}, 300, 595.2, 841.92},
		{"same pixels at 150", Page{Width: 1275, Height: 1650}, 150, 612, 792},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, h := tt.page.PageSize(tt.dpi)
			if diff(w, tt.wantW) > 1e-9 || diff(h, tt.wantH) > 1e-9 {
				t.Errorf("PageSize(%d) = (%v, %v), want (%v, %v)", tt.dpi, w, h, tt.wantW, tt.wantH)
			}
			// The density implied by the canvas must be exact on both axes.
			if got := float64(tt.page.Width) / (w / 72); diff(got, float64(tt.dpi)) > 1e-9 {
				t.Errorf("implied x density = %v, want %d", got, tt.dpi)
			}
		})
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// ---------------------------------------------------------------------------
// TestToGray - Channel reduction
// ---------------------------------------------------------------------------

func TestToGray(t *testing.T) {
	t.Parallel()

	t.Run("converts color to single channel", func(t *testing.T) {
		t.Parallel()

		g := ToGray(checkerboard(16, 16))
		if g.Bounds().Dx() != 16 || g.Bounds().Dy() != 16 {
			t.Fatalf("bounds = %v", g.Bounds())
		}
		if g.GrayAt(0, 0).Y == 0 || g.GrayAt(0, 0).Y == 255 {
			t.Errorf("red pixel should map to mid gray, got %d", g.GrayAt(0, 0).Y)
		}
	})

	t.Run("gray input is returned unchanged", func(t *testing.T) {
		t.Parallel()

		src := image.NewGray(image.Rect(0, 0, 4, 4))
		if ToGray(src) != src {
			t.Error("expected the same *image.Gray")
		}
	})
}

// ---------------------------------------------------------------------------
// TestTIFFAndJPEG - File round trips
// ---------------------------------------------------------------------------

func TestWriteTIFF_DecodeConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "page_0001.tif")
	if err := WriteTIFF(path, ToGray(checkerboard(40, 30))); err != nil {
		t.Fatalf("WriteTIFF: %v", err)
	}

	cfg, err := DecodeConfig(path)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 30 {
		t.Errorf("config = %dx%d, want 40x30", cfg.Width, cfg.Height)
	}

	gray, err := LoadGray(path)
	if err != nil {
		t.Fatalf("LoadGray: %v", err)
	}
	if gray.Bounds().Dx() != 40 {
		t.Errorf("width = %d, want 40", gray.Bounds().Dx())
	}
}

func TestTranscode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "page_0001.tif")
	if err := WriteTIFF(src, ToGray(checkerboard(64, 48))); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "page_0001.jpg")
	if err := Transcode(Page{Index: 1, Width: 64, Height: 48, Path: src}, dst, 50); err != nil {
		t.Fatalf("Transcode: %v", err)
	}

	cfg, err := DecodeConfig(dst)
	if err != nil {
		t.Fatalf("DecodeConfig(jpeg): %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Errorf("jpeg = %dx%d, want 64x48", cfg.Width, cfg.Height)
	}
	if cfg.ColorModel != color.GrayModel {
		t.Errorf("jpeg color model = %v, want gray", cfg.ColorModel)
	}
}

func TestEncodeJPEG_LowerQualityIsSmaller(t *testing.T) {
	t.Parallel()

	img := ToGray(checkerboard(256, 256))
	var hi, lo bytes.Buffer
	if err := EncodeJPEG(&hi, img, 95); err != nil {
		t.Fatal(err)
	}
	if err := EncodeJPEG(&lo, img, 25); err != nil {
		t.Fatal(err)
	}
	if lo.Len() >= hi.Len() {
		t.Errorf("q25 (%d bytes) should be smaller than q95 (%d bytes)", lo.Len(), hi.Len())
	}
}

func TestEncodeJPEG_InvalidQuality(t *testing.T) {
	t.Parallel()

	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for _, q := range []int{0, -1, 101} {
		if err := EncodeJPEG(&bytes.Buffer{}, img, q); !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("EncodeJPEG(q=%d) = %v, want ErrInvalidQuality", q, err)
		}
	}
}

func TestLoadGray_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadGray(filepath.Join(t.TempDir(), "missing.tif")); err == nil {
		t.Error("expected error for missing file")
	}
}

// ---------------------------------------------------------------------------
// TestIsColored - Pixel sampling
// ---------------------------------------------------------------------------

func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestIsColored(t *testing.T) {
	t.Parallel()

	speck := filled(200, 200, color.White)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			speck.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	tests := []struct {
		name string
		img  image.Image
		want bool
	}{
		{name: "half red page", img: checkerboard(64, 64), want: true},
		{name: "rgb page with gray content", img: filled(64, 64, color.RGBA{R: 128, G: 128, B: 128, A: 255})},
		{name: "channel spread within tolerance", img: filled(64, 64, color.RGBA{R: 100, G: 102, B: 105, A: 255})},
		{name: "colored area under one percent", img: speck},
		{name: "single channel image", img: image.NewGray(image.Rect(0, 0, 8, 8))},
		{name: "empty image", img: image.NewRGBA(image.Rectangle{})},
		{name: "large colored page is sampled", img: filled(1000, 800, color.RGBA{B: 200, A: 255}), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsColored(tt.img); got != tt.want {
				t.Errorf("IsColored() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasColor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG := func(name string, img image.Image) string {
		t.Helper()
		path := filepath.Join(dir, name)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	colored, err := HasColor(writePNG("color.png", checkerboard(32, 32)))
	if err != nil {
		t.Fatalf("HasColor: %v", err)
	}
	if !colored {
		t.Error("red checkerboard should be colored")
	}

	colored, err = HasColor(writePNG("gray.png", filled(32, 32, color.White)))
	if err != nil {
		t.Fatalf("HasColor: %v", err)
	}
	if colored {
		t.Error("white page should not be colored")
	}

	if _, err := HasColor(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
