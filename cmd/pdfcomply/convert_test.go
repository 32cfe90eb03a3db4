package main

// Notes:
// - runConvertCmd: we drive it through run() with a fake pool, so exit codes,
//   output and the Input handed to the converter are all observable.
// - convertBatch: we test worker fan-out and converter init failure. The
//   progress bar is exercised but its rendering is not asserted.
// - discoverFiles: we test directory walks, skipping of earlier outputs and
//   output path resolution.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	pdfcomply "github.com/alnah/go-pdfcomply"
)

// ---------------------------------------------------------------------------
// TestRunConvert - Single document
// ---------------------------------------------------------------------------

func TestRunConvert_SingleFile(t *testing.T) {
	t.Parallel()

	src := touch(t, filepath.Join(t.TempDir(), "scan.pdf"))
	conv := &fakeConverter{}
	te := newTestEnv(conv)

	if code := te.run(t, "convert", src); code != ExitSuccess {
		t.Fatalf("exit = %d, want 0; stderr: %s", code, te.stderr.String())
	}

	if len(conv.inputs) != 1 {
		t.Fatalf("Convert called %d times, want 1", len(conv.inputs))
	}
	want := pdfcomply.Input{Path: src, PartCount: 2}
	if diff := cmp.Diff(want, conv.inputs[0]); diff != "" {
		t.Errorf("input mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(te.stdout.String(), "Created "+src+".out.pdf (2.0 KiB)") {
		t.Errorf("stdout = %q", te.stdout.String())
	}
	if te.sizes[0] != 1 {
		t.Errorf("pool size = %d, want 1 for one file", te.sizes[0])
	}
	if !te.pool.closed {
		t.Error("pool not closed")
	}
	if te.pool.acquired != te.pool.released {
		t.Errorf("acquired %d, released %d", te.pool.acquired, te.pool.released)
	}
}

func TestRunConvert_SplitFlags(t *testing.T) {
	t.Parallel()

	src := touch(t, filepath.Join(t.TempDir(), "scan.pdf"))
	conv := &fakeConverter{}
	te := newTestEnv(conv)

	out := filepath.Join(t.TempDir(), "upload.pdf")
	if code := te.run(t, "convert", "--split", "--parts", "3", "--verify", "-o", out, src); code != ExitSuccess {
		t.Fatalf("exit = %d; stderr: %s", code, te.stderr.String())
	}

	want := pdfcomply.Input{Path: src, Output: out, Split: true, PartCount: 3, Verify: true}
	if diff := cmp.Diff(want, conv.inputs[0]); diff != "" {
		t.Errorf("input mismatch (-want +got):\n%s", diff)
	}
}

func TestRunConvert_Shorthand(t *testing.T) {
	t.Parallel()

	src := touch(t, filepath.Join(t.TempDir(), "notes.md"))
	conv := &fakeConverter{}
	te := newTestEnv(conv)

	if code := te.run(t, src, "-q"); code != ExitSuccess {
		t.Fatalf("exit = %d; stderr: %s", code, te.stderr.String())
	}
	if len(conv.inputs) != 1 || conv.inputs[0].Path != src {
		t.Errorf("inputs = %+v", conv.inputs)
	}
	if te.stdout.Len() != 0 {
		t.Errorf("quiet run wrote %q", te.stdout.String())
	}
}

func TestRunConvert_Findings(t *testing.T) {
	t.Parallel()

	src := touch(t, filepath.Join(t.TempDir(), "big.pdf"))
	conv := &fakeConverter{findings: []pdfcomply.Finding{
		{Kind: pdfcomply.SizeExceeded, Message: "output is 4.0 MiB, above the 3.0 MiB limit"},
	}}
	te := newTestEnv(conv)

	if code := te.run(t, "convert", "-q", src); code != ExitSuccess {
		t.Fatalf("exit = %d, want 0 (findings are not errors)", code)
	}
	stderr := te.stderr.String()
	if !strings.Contains(stderr, "warning: "+src+": output is 4.0 MiB") {
		t.Errorf("stderr missing finding: %q", stderr)
	}
	if !strings.Contains(stderr, "hint: split the document") {
		t.Errorf("stderr missing oversize hint: %q", stderr)
	}
}

func TestRunConvert_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pdf := touch(t, filepath.Join(dir, "a.pdf"))
	touch(t, filepath.Join(dir, "b.pdf"))
	txt := touch(t, filepath.Join(dir, "notes.txt"))

	tests := []struct {
		name       string
		args       []string
		conv       *fakeConverter
		acquireErr error
		want       int
		wantStderr string
	}{
		{
			name:       "missing tool",
			args:       []string{"convert", pdf},
			conv:       &fakeConverter{convertErr: map[string]error{pdf: fmt.Errorf("%w: ghostscript", pdfcomply.ErrMissingDependency)}},
			want:       ExitTool,
			wantStderr: "PDFCOMPLY_GHOSTSCRIPT_PATH",
		},
		{
			name:       "converter init",
			args:       []string{"convert", pdf},
			acquireErr: errBoom,
			want:       ExitTool,
			wantStderr: "failed to initialize converter",
		},
		{
			name: "input missing",
			args: []string{"convert", filepath.Join(dir, "nope.pdf")},
			want: ExitIO,
		},
		{
			name:       "unsupported input",
			args:       []string{"convert", txt},
			want:       ExitUsage,
			wantStderr: "hint: supported inputs",
		},
		{
			name: "no input",
			args: []string{"convert"},
			want: ExitIO,
		},
		{
			name: "parts out of range",
			args: []string{"convert", "--split", "--parts", "9", pdf},
			want: ExitUsage,
		},
		{
			name: "too many workers",
			args: []string{"convert", "-w", "9", pdf},
			want: ExitUsage,
		},
		{
			name: "negative workers",
			args: []string{"convert", "-w", "-1", pdf},
			want: ExitUsage,
		},
		{
			name: "bad timeout",
			args: []string{"convert", "-t", "later", pdf},
			want: ExitUsage,
		},
		{
			name: "bad rasterizer",
			args: []string{"convert", "--rasterizer", "pdfium", pdf},
			want: ExitUsage,
		},
		{
			name: "unknown flag",
			args: []string{"convert", "--nope", pdf},
			want: ExitUsage,
		},
		{
			name: "file output for a directory",
			args: []string{"convert", "-o", "all.pdf", dir},
			want: ExitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := tt.conv
			if conv == nil {
				conv = &fakeConverter{}
			}
			te := newTestEnv(conv)
			te.pool.acquireErr = tt.acquireErr

			if code := te.run(t, tt.args...); code != tt.want {
				t.Errorf("exit = %d, want %d; stderr: %s", code, tt.want, te.stderr.String())
			}
			if tt.wantStderr != "" && !strings.Contains(te.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", te.stderr.String(), tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunConvert_Batch - Directories and partial failure
// ---------------------------------------------------------------------------

func TestRunConvert_Batch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.pdf"))
	b := touch(t, filepath.Join(dir, "b.md"))
	e := touch(t, filepath.Join(dir, "sub", "e.png"))
	touch(t, filepath.Join(dir, "a_compliant.pdf"))
	touch(t, filepath.Join(dir, "c_part2.pdf"))
	touch(t, filepath.Join(dir, "readme.txt"))
	out := t.TempDir()

	conv := &fakeConverter{}
	te := newTestEnv(conv)

	if code := te.run(t, "convert", "-w", "2", "-o", out, dir); code != ExitSuccess {
		t.Fatalf("exit = %d; stderr: %s", code, te.stderr.String())
	}

	got := map[string]string{}
	for _, in := range conv.inputs {
		got[in.Path] = in.Output
	}
	want := map[string]string{
		a: filepath.Join(out, "a_compliant.pdf"),
		b: filepath.Join(out, "b_compliant.pdf"),
		e: filepath.Join(out, "sub", "e_compliant.pdf"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("conversions mismatch (-want +got):\n%s", diff)
	}
	if te.sizes[0] != 2 {
		t.Errorf("pool size = %d, want 2", te.sizes[0])
	}
	if !strings.Contains(te.stdout.String(), "3 succeeded, 0 failed") {
		t.Errorf("stdout missing summary: %q", te.stdout.String())
	}
}

func TestRunConvert_BatchPartialFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "a.pdf"))
	b := touch(t, filepath.Join(dir, "b.pdf"))
	conv := &fakeConverter{convertErr: map[string]error{b: pdfcomply.ErrAssemblyFailure}}
	te := newTestEnv(conv)

	code := te.run(t, "convert", a, b)
	if code != ExitGeneral {
		t.Errorf("exit = %d, want %d", code, ExitGeneral)
	}
	stderr := te.stderr.String()
	if !strings.Contains(stderr, "FAILED "+b) {
		t.Errorf("stderr missing FAILED line: %q", stderr)
	}
	if !strings.Contains(stderr, "1 of 2 conversion(s) failed") {
		t.Errorf("stderr missing batch error: %q", stderr)
	}
	if !strings.Contains(te.stdout.String(), "1 succeeded, 1 failed") {
		t.Errorf("stdout missing summary: %q", te.stdout.String())
	}
}

func TestConvertBatch_AcquireFailure(t *testing.T) {
	t.Parallel()

	pool := &fakePool{conv: &fakeConverter{}, size: 2, acquireErr: errBoom}
	files := []FileToConvert{{InputPath: "a.pdf"}, {InputPath: "b.pdf"}, {InputPath: "c.pdf"}}

	results := convertBatch(context.Background(), pool, files, pdfcomply.Input{}, nil)

	for _, r := range results {
		if !errors.Is(r.Err, ErrConverterInit) {
			t.Errorf("%s: error = %v, want ErrConverterInit", r.InputPath, r.Err)
		}
	}
}

func TestConvertBatch_Canceled(t *testing.T) {
	t.Parallel()

	conv := &fakeConverter{}
	pool := &fakePool{conv: conv, size: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := convertBatch(ctx, pool, []FileToConvert{{InputPath: "a.pdf"}}, pdfcomply.Input{}, nil)

	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", results[0].Err)
	}
	if len(conv.inputs) != 0 {
		t.Error("Convert called after cancellation")
	}
}

// ---------------------------------------------------------------------------
// TestDiscoverFiles - Input expansion
// ---------------------------------------------------------------------------

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"a.PDF", "b.html", "c.jpeg", "d.tif", "e_compliant.pdf", "f_part1.pdf", "g.docx"} {
		touch(t, filepath.Join(dir, name))
	}

	files, err := discoverFiles([]string{dir}, "")
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, f := range files {
		got = append(got, filepath.Base(f.InputPath))
		if f.OutputPath != "" {
			t.Errorf("%s: OutputPath = %q, want empty (converter default)", f.InputPath, f.OutputPath)
		}
	}
	sort.Strings(got)
	want := []string{"a.PDF", "b.html", "c.jpeg", "d.tif"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverFiles_ExplicitProducedFile(t *testing.T) {
	t.Parallel()

	// Naming a produced file explicitly still converts it.
	p := touch(t, filepath.Join(t.TempDir(), "x_compliant.pdf"))
	files, err := discoverFiles([]string{p}, "")
	if err != nil || len(files) != 1 {
		t.Errorf("discoverFiles() = %v, %v", files, err)
	}
}

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		want      string
	}{
		{"no output", "/in/a.pdf", "", "", ""},
		{"explicit file", "/in/a.pdf", "/out/final.pdf", "", "/out/final.pdf"},
		{"explicit file uppercase", "/in/a.pdf", "/out/FINAL.PDF", "", "/out/FINAL.PDF"},
		{"directory", "/in/a.md", "/out", "", filepath.Join("/out", "a_compliant.pdf")},
		{"mirrors tree", "/in/sub/a.png", "/out", "/in", filepath.Join("/out", "sub", "a_compliant.pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir); got != tt.want {
				t.Errorf("resolveOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsProduced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"a_compliant.pdf", true},
		{"A_COMPLIANT.PDF", true},
		{"a_part1.pdf", true},
		{"a_part12.pdf", true},
		{"a_part.pdf", false},
		{"a_partial.pdf", false},
		{"a_part1.png", false},
		{"report.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := isProduced(tt.path); got != tt.want {
				t.Errorf("isProduced(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, pdfcomply.MaxPoolSize} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{-1, pdfcomply.MaxPoolSize + 1} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}
