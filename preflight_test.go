package pdfcomply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// TestTier - Presets
// ---------------------------------------------------------------------------

func TestParseTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"screen", TierScreen, false},
		{"EBOOK", TierEbook, false},
		{" printer ", TierPrinter, false},
		{"prepress", TierPrepress, false},
		{"", "", true},
		{"default", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseTier(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTier) {
					t.Errorf("ParseTier(%q) error = %v, want ErrInvalidTier", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseTier(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestTier_Settings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tier           Tier
		wantDPI        int
		wantDownsample bool
	}{
		{TierScreen, 72, true},
		{TierEbook, 150, true},
		{TierPrinter, 300, false},
		{TierPrepress, 300, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			t.Parallel()

			s := tt.tier.settings(300)
			if s.Resolution != tt.wantDPI || tt.tier.DPI() != tt.wantDPI {
				t.Errorf("resolution = %d, want %d", s.Resolution, tt.wantDPI)
			}
			if s.Downsample != tt.wantDownsample {
				t.Errorf("Downsample = %v, want %v", s.Downsample, tt.wantDownsample)
			}
			if s.PDFSettings != string(tt.tier) {
				t.Errorf("PDFSettings = %q", s.PDFSettings)
			}
		})
	}

	if TierPrepress.settings(300).QFactor >= TierPrinter.settings(300).QFactor {
		t.Error("prepress should quantize less than printer")
	}
}

// ---------------------------------------------------------------------------
// TestCompress - Re-encoding
// ---------------------------------------------------------------------------

func compressEnv(t *testing.T, fc *fakeCompressor, opts ...Option) (*testEnv, *Converter) {
	t.Helper()
	env := newTestEnv(1)
	opts = append(opts, withCollaborators(func(c *Converter) { c.compressor = fc }))
	return env, env.converter(t, opts...)
}

func TestCompress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		tier          Tier
		ratio         float64
		maxBytes      int64
		wantKinds     []FindingKind
		wantCompliant bool
		wantUnchanged bool
	}{
		{
			name:          "printer halves the file",
			tier:          TierPrinter,
			ratio:         0.5,
			wantCompliant: true,
		},
		{
			name:          "not smaller keeps original",
			tier:          TierPrepress,
			ratio:         1.2,
			wantKinds:     []FindingKind{Unchanged},
			wantCompliant: true,
			wantUnchanged: true,
		},
		{
			name:      "ebook is below the profile density",
			tier:      TierEbook,
			ratio:     0.3,
			wantKinds: []FindingKind{ResolutionNonConformant},
		},
		{
			name:      "still over the size limit",
			tier:      TierPrinter,
			ratio:     0.9,
			maxBytes:  1000,
			wantKinds: []FindingKind{SizeExceeded},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var opts []Option
			if tt.maxBytes > 0 {
				opts = append(opts, WithProfile(Profile{DPI: 300, MaxBytes: tt.maxBytes, Version: "1.4"}))
			}
			fc := &fakeCompressor{ratio: tt.ratio}
			env, conv := compressEnv(t, fc, opts...)
			src := mustFakePDF(t, t.TempDir(), "report.pdf", 1, 4000)

			res, err := conv.Compress(context.Background(), CompressInput{Path: src, Tier: tt.tier})
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}

			wantOut := filepath.Join(filepath.Dir(src), fmt.Sprintf("report_%s.pdf", tt.tier))
			if res.Output != wantOut {
				t.Errorf("Output = %q, want %q", res.Output, wantOut)
			}
			if res.OriginalSize != 4000 {
				t.Errorf("OriginalSize = %d, want 4000", res.OriginalSize)
			}
			info, err := os.Stat(res.Output)
			if err != nil {
				t.Fatalf("output missing: %v", err)
			}
			if info.Size() != res.Size {
				t.Errorf("Size = %d, file has %d", res.Size, info.Size())
			}
			if res.Compliant != tt.wantCompliant {
				t.Errorf("Compliant = %v, want %v", res.Compliant, tt.wantCompliant)
			}
			if diff := cmp.Diff(tt.wantKinds, kinds(res.Findings)); len(tt.wantKinds)+len(res.Findings) > 0 && diff != "" {
				t.Errorf("findings mismatch (-want +got):\n%s", diff)
			}

			if tt.wantUnchanged {
				orig, _ := os.ReadFile(src)
				got, _ := os.ReadFile(res.Output)
				if !bytes.Equal(orig, got) || res.Reduction != 0 {
					t.Error("output should be a copy of the original")
				}
			} else if res.Reduction <= 0 {
				t.Errorf("Reduction = %v, want positive", res.Reduction)
			}
			if fc.settings.PDFSettings != string(tt.tier) {
				t.Errorf("compressor got %+v", fc.settings)
			}
			env.assertWorkspaceEmpty(t)
		})
	}
}

func TestCompress_InPlaceNotSmaller(t *testing.T) {
	t.Parallel()

	_, conv := compressEnv(t, &fakeCompressor{ratio: 1.5})
	src := mustFakePDF(t, t.TempDir(), "a.pdf", 1, 3000)

	res, err := conv.Compress(context.Background(), CompressInput{Path: src, Output: src, Tier: TierPrinter})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if res.Size != 3000 {
		t.Errorf("Size = %d, want 3000", res.Size)
	}
	if info, _ := os.Stat(src); info.Size() != 3000 {
		t.Errorf("source changed size: %d", info.Size())
	}
}

func TestCompress_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("gs: Unrecoverable error")
	src := mustFakePDF(t, t.TempDir(), "a.pdf", 1, 3000)

	tests := []struct {
		name    string
		fc      *fakeCompressor
		in      CompressInput
		wantErr error
	}{
		{"missing input", &fakeCompressor{ratio: 0.5}, CompressInput{Path: "/nope.pdf", Tier: TierPrinter}, ErrInputNotFound},
		{"invalid tier", &fakeCompressor{ratio: 0.5}, CompressInput{Path: src, Tier: "max"}, ErrInvalidTier},
		{"no ghostscript", nil, CompressInput{Path: src, Tier: TierPrinter}, ErrMissingDependency},
		{"tool failure", &fakeCompressor{err: boom}, CompressInput{Path: src, Tier: TierPrinter}, boom},
		{"empty output", &fakeCompressor{ratio: 0.001}, CompressInput{Path: src, Tier: TierPrinter}, ErrEmptyOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(1)
			conv := env.converter(t, withCollaborators(func(c *Converter) {
				if tt.fc != nil {
					c.compressor = tt.fc
				}
			}))

			if _, err := conv.Compress(context.Background(), tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			env.assertWorkspaceEmpty(t)
		})
	}
}

// ---------------------------------------------------------------------------
// TestMerge - Page-by-page join
// ---------------------------------------------------------------------------

type countFunc func(path string) (int, error)

func (f countFunc) CountPages(path string) (int, error) { return f(path) }

func TestMerge(t *testing.T) {
	t.Parallel()

	env := newTestEnv(1)
	conv := env.converter(t)
	dir := t.TempDir()
	paths := []string{
		mustFakePDF(t, dir, "a.pdf", 2, 1000),
		mustFakePDF(t, dir, "b.pdf", 3, 1500),
		mustFakePDF(t, dir, "c.pdf", 1, 500),
	}

	res, err := conv.Merge(context.Background(), MergeInput{Paths: paths})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if want := filepath.Join(dir, "a_merged.pdf"); res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if res.Pages != 6 || res.Inputs != 3 || res.Strategy != "direct" {
		t.Errorf("result = %+v", res)
	}
	if n, _ := readFakePages(res.Output); n != 6 {
		t.Errorf("merged file has %d pages, want 6", n)
	}
	if len(res.Findings) != 0 {
		t.Errorf("unexpected findings: %+v", res.Findings)
	}
	env.assertWorkspaceEmpty(t)
}

func TestMerge_Fallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(1)
	env.concat.fail = map[string]error{"direct": errors.New("argument list too long")}
	conv := env.converter(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "all.pdf")
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		t.Fatal(err)
	}

	res, err := conv.Merge(context.Background(), MergeInput{
		Paths:  []string{mustFakePDF(t, dir, "a.pdf", 1, 800), mustFakePDF(t, dir, "b.pdf", 1, 800)},
		Output: out,
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Strategy != "filelist" || res.Output != out {
		t.Errorf("result = %+v", res)
	}
}

func TestMerge_Findings(t *testing.T) {
	t.Parallel()

	t.Run("oversize", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(1)
		conv := env.converter(t, WithProfile(Profile{DPI: 300, MaxBytes: 1000, Version: "1.4"}))
		dir := t.TempDir()

		res, err := conv.Merge(context.Background(), MergeInput{
			Paths: []string{mustFakePDF(t, dir, "a.pdf", 1, 800), mustFakePDF(t, dir, "b.pdf", 1, 800)},
		})
		if err != nil {
			t.Fatalf("Merge: %v", err)
		}
		if diff := cmp.Diff([]FindingKind{SizeExceeded}, kinds(res.Findings)); diff != "" {
			t.Errorf("findings mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("page count unavailable", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(1)
		conv := env.converter(t, withCollaborators(func(c *Converter) {
			c.counter = fakeCounter{err: errors.New("pdfcpu: corrupt xref")}
		}))
		dir := t.TempDir()

		res, err := conv.Merge(context.Background(), MergeInput{
			Paths: []string{mustFakePDF(t, dir, "a.pdf", 1, 800), mustFakePDF(t, dir, "b.pdf", 1, 800)},
		})
		if err != nil {
			t.Fatalf("Merge: %v", err)
		}
		if diff := cmp.Diff([]FindingKind{Unverified}, kinds(res.Findings)); diff != "" {
			t.Errorf("findings mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMerge_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := mustFakePDF(t, dir, "a.pdf", 1, 800)
	b := mustFakePDF(t, dir, "b.pdf", 1, 800)
	many := make([]string, MaxMergeInputs+1)
	for i := range many {
		many[i] = a
	}

	tests := []struct {
		name    string
		paths   []string
		setup   func(env *testEnv, c *Converter)
		wantErr error
	}{
		{name: "one input", paths: []string{a}, wantErr: ErrTooFewInputs},
		{name: "too many inputs", paths: many, wantErr: ErrTooManyInputs},
		{name: "missing input", paths: []string{a, filepath.Join(dir, "gone.pdf")}, wantErr: ErrInputNotFound},
		{
			name:  "no merge tool",
			paths: []string{a, b},
			setup: func(_ *testEnv, c *Converter) {
				c.concat = nil
				c.qpdfMerge = nil
			},
			wantErr: ErrMissingDependency,
		},
		{
			name:  "page count mismatch",
			paths: []string{a, b},
			setup: func(_ *testEnv, c *Converter) {
				c.counter = countFunc(func(p string) (int, error) {
					if filepath.Base(p) == "merged.pdf" {
						return 3, nil
					}
					return 1, nil
				})
			},
			wantErr: ErrAssemblyFailure,
		},
		{
			name:  "every strategy fails",
			paths: []string{a, b},
			setup: func(env *testEnv, _ *Converter) {
				boom := errors.New("merge failed")
				env.concat.fail = map[string]error{"direct": boom, "filelist": boom, "pairwise": boom, "qpdf": boom}
			},
			wantErr: ErrAssemblyFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(1)
			conv := env.converter(t)
			if tt.setup != nil {
				tt.setup(env, conv)
			}

			if _, err := conv.Merge(context.Background(), MergeInput{Paths: tt.paths}); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			env.assertWorkspaceEmpty(t)
		})
	}
}
