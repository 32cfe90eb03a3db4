package pdfcomply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-pdfcomply/internal/ghostscript"
	"github.com/alnah/go-pdfcomply/internal/tools"
)

// ---------------------------------------------------------------------------
// Fake documents
// ---------------------------------------------------------------------------

// Fake documents are plain files with a version header and a page marker,
// padded to the requested size. fakeCounter reads the marker back.

func writeFakePDF(path string, pages int, size int64) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%%PDF-1.4\n%%pages=%d\n", pages)
	for int64(b.Len()) < size {
		b.WriteByte(' ')
	}
	return os.WriteFile(path, b.Bytes(), 0o600)
}

func readFakePages(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	_, rest, ok := strings.Cut(string(data), "%pages=")
	if !ok {
		return 0, errors.New("no page marker")
	}
	line, _, _ := strings.Cut(rest, "\n")
	return strconv.Atoi(strings.TrimSpace(line))
}

func mustFakePDF(t *testing.T, dir, name string, pages int, size int64) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := writeFakePDF(p, pages, size); err != nil {
		t.Fatal(err)
	}
	return p
}

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

type fakeRasterizer struct {
	pages int
	err   error
	calls int
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ string, _ int, outDir string) ([]RasterPage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	pages := make([]RasterPage, f.pages)
	for i := range pages {
		pages[i] = RasterPage{
			Index:  i + 1,
			Width:  2550,
			Height: 3300,
			Total:  f.pages,
			Path:   filepath.Join(outDir, fmt.Sprintf("page_%04d.tif", i+1)),
		}
	}
	return pages, nil
}

// fakeAssembler writes perPage[quality] bytes for every page. Qualities in
// fail return that error instead.
type fakeAssembler struct {
	mu      sync.Mutex
	perPage map[int]int64
	fail    map[int]error
	calls   []int // quality of each call
	pages   [][]int
}

func (f *fakeAssembler) Assemble(_ context.Context, pages []RasterPage, _, quality int, output, _ string) error {
	f.mu.Lock()
	f.calls = append(f.calls, quality)
	idx := make([]int, len(pages))
	for i, p := range pages {
		idx[i] = p.Index
	}
	f.pages = append(f.pages, idx)
	f.mu.Unlock()

	if err := f.fail[quality]; err != nil {
		return err
	}
	per, ok := f.perPage[quality]
	if !ok {
		per = 1000
	}
	return writeFakePDF(output, len(pages), per*int64(len(pages)))
}

// fakeConcat joins fake documents. Strategies listed in fail return errors;
// empty makes a strategy succeed without writing anything.
type fakeConcat struct {
	fail  map[string]error
	empty map[string]bool
	used  []string
}

func (f *fakeConcat) join(name string, inputs []string, output string) error {
	f.used = append(f.used, name)
	if err := f.fail[name]; err != nil {
		return err
	}
	if f.empty[name] {
		return nil
	}
	var pages int
	var size int64
	for _, in := range inputs {
		n, err := readFakePages(in)
		if err != nil {
			return err
		}
		info, err := os.Stat(in)
		if err != nil {
			return err
		}
		pages += n
		size += info.Size()
	}
	return writeFakePDF(output, pages, size)
}

func (f *fakeConcat) Concat(_ context.Context, inputs []string, output string) error {
	return f.join("direct", inputs, output)
}

func (f *fakeConcat) ConcatFileList(_ context.Context, inputs []string, output, _ string) error {
	return f.join("filelist", inputs, output)
}

func (f *fakeConcat) ConcatPairwise(_ context.Context, inputs []string, output, _ string) error {
	return f.join("pairwise", inputs, output)
}

type fakeQPDFMerge struct {
	concat  *fakeConcat
	version string
}

func (f *fakeQPDFMerge) Merge(_ context.Context, inputs []string, output, version string) error {
	f.version = version
	return f.concat.join("qpdf", inputs, output)
}

type fakeCounter struct {
	err error
}

func (f fakeCounter) CountPages(path string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return readFakePages(path)
}

type fakeCompressor struct {
	ratio    float64 // output size as a fraction of input size
	err      error
	settings ghostscript.CompressSettings
}

func (f *fakeCompressor) Compress(_ context.Context, input, output string, s ghostscript.CompressSettings) error {
	f.settings = s
	if f.err != nil {
		return f.err
	}
	info, err := os.Stat(input)
	if err != nil {
		return err
	}
	return writeFakePDF(output, 1, int64(float64(info.Size())*f.ratio))
}

type fakeRenderer struct {
	called  bool
	content string
	err     error
}

func (f *fakeRenderer) RenderToFile(_ context.Context, htmlPath, output string) error {
	f.called = true
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		return err
	}
	f.content = string(data)
	if f.err != nil {
		return f.err
	}
	return writeFakePDF(output, 1, 500)
}

func (f *fakeRenderer) Close() error { return nil }

type fakeImages struct {
	records []ImageRecord
	err     error
	calls   int
}

func (f *fakeImages) InspectImages(context.Context, string) ([]ImageRecord, error) {
	f.calls++
	return f.records, f.err
}

type fakeDocs struct {
	info DocumentInfo
	err  error
}

func (f fakeDocs) Inspect(context.Context, string) (DocumentInfo, error) {
	return f.info, f.err
}

type fakeInk struct {
	pages []InkCoverage
	err   error
}

func (f fakeInk) InkCoverage(context.Context, string) ([]InkCoverage, error) {
	return f.pages, f.err
}

type fakeSampler struct {
	colored []int
	err     error
	calls   int
}

func (f *fakeSampler) ColoredPages(context.Context, string) ([]int, error) {
	f.calls++
	return f.colored, f.err
}

type fakeProber struct {
	encrypted bool
	err       error
}

func (f fakeProber) ProbeEncryption(context.Context, string) (bool, error) {
	return f.encrypted, f.err
}

// ---------------------------------------------------------------------------
// Internal test options
// ---------------------------------------------------------------------------

// withNoTools skips tool discovery so only injected collaborators are wired.
func withNoTools() Option {
	return func(c *Converter) {
		c.tools = tools.NewSet(nil)
		c.toolsResolved = true
	}
}

func withCollaborators(set func(c *Converter)) Option {
	return set
}

// testEnv bundles the fakes behind one converter.
type testEnv struct {
	raster   *fakeRasterizer
	asm      *fakeAssembler
	concat   *fakeConcat
	qpdf     *fakeQPDFMerge
	renderer *fakeRenderer
	work     string
}

func newTestEnv(pages int) *testEnv {
	concat := &fakeConcat{}
	return &testEnv{
		raster:   &fakeRasterizer{pages: pages},
		asm:      &fakeAssembler{perPage: map[int]int64{}},
		concat:   concat,
		qpdf:     &fakeQPDFMerge{concat: concat},
		renderer: &fakeRenderer{},
	}
}

func (e *testEnv) converter(t *testing.T, opts ...Option) *Converter {
	t.Helper()
	e.work = t.TempDir()
	base := []Option{
		withNoTools(),
		WithWorkDir(e.work),
		withCollaborators(func(c *Converter) {
			c.rasterizer = e.raster
			c.assembler = e.asm
			c.concat = e.concat
			c.qpdfMerge = e.qpdf
			c.counter = fakeCounter{}
			c.renderer = e.renderer
		}),
	}
	conv, err := NewConverter(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv
}

// assertWorkspaceEmpty fails when a job left anything behind.
func (e *testEnv) assertWorkspaceEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.work)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, en := range entries {
			names[i] = en.Name()
		}
		t.Errorf("workspace root not empty: %v", names)
	}
}
