package main

// Notes:
// - This file contains fakes shared by the command tests.
// - fakeConverter records every request and answers from canned results, so
//   no external tool or browser is needed.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	pdfcomply "github.com/alnah/go-pdfcomply"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

type fakeConverter struct {
	mu sync.Mutex

	convertErr  map[string]error // by input path
	findings    []pdfcomply.Finding
	report      pdfcomply.ComplianceReport
	auditErr    error
	compressRes *pdfcomply.CompressResult
	mergeRes    *pdfcomply.MergeResult
	extractRes  *pdfcomply.ExtractResult
	err         error // returned by Compress, Merge and ExtractImages

	inputs     []pdfcomply.Input
	audited    []string
	merged     pdfcomply.MergeInput
	extracts   []pdfcomply.ExtractInput
	compressIn []pdfcomply.CompressInput
}

func (f *fakeConverter) Convert(_ context.Context, in pdfcomply.Input) (*pdfcomply.Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()

	if err := f.convertErr[in.Path]; err != nil {
		return nil, err
	}
	out := in.Output
	if out == "" {
		out = in.Path + ".out.pdf"
	}
	return &pdfcomply.Result{Output: out, Pages: 1, Size: 2048, Quality: 75, Attempts: 1, Findings: f.findings}, nil
}

func (f *fakeConverter) Audit(_ context.Context, path string) (pdfcomply.ComplianceReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audited = append(f.audited, path)
	if f.auditErr != nil {
		return pdfcomply.ComplianceReport{}, f.auditErr
	}
	rep := f.report
	rep.Path = path
	return rep, nil
}

func (f *fakeConverter) Compress(_ context.Context, in pdfcomply.CompressInput) (*pdfcomply.CompressResult, error) {
	f.compressIn = append(f.compressIn, in)
	return f.compressRes, f.err
}

func (f *fakeConverter) Merge(_ context.Context, in pdfcomply.MergeInput) (*pdfcomply.MergeResult, error) {
	f.merged = in
	return f.mergeRes, f.err
}

func (f *fakeConverter) ExtractImages(_ context.Context, in pdfcomply.ExtractInput) (*pdfcomply.ExtractResult, error) {
	f.extracts = append(f.extracts, in)
	return f.extractRes, f.err
}

// fakePool hands out one shared converter.
type fakePool struct {
	conv       *fakeConverter
	size       int
	acquireErr error

	mu       sync.Mutex
	acquired int
	released int
	closed   bool
	opts     int
}

func (p *fakePool) Acquire() (Converter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.conv, nil
}

func (p *fakePool) Release(Converter) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
}

func (p *fakePool) Size() int { return p.size }

func (p *fakePool) Close() error {
	p.closed = true
	return nil
}

// ---------------------------------------------------------------------------
// Test environment
// ---------------------------------------------------------------------------

type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	vars   map[string]string
	pool   *fakePool
	sizes  []int
}

func newTestEnv(conv *fakeConverter) *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		vars:   map[string]string{},
		pool:   &fakePool{conv: conv, size: 1},
	}
	te.Environment = &Environment{
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(te.vars))
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewPool: func(size int, opts ...pdfcomply.Option) Pool {
			te.sizes = append(te.sizes, size)
			te.pool.size = size
			te.pool.opts = len(opts)
			return te.pool
		},
	}
	return te
}

func (te *testEnv) run(t *testing.T, args ...string) int {
	t.Helper()
	return run(context.Background(), append([]string{"pdfcomply"}, args...), te.Environment)
}

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("%PDF-1.4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

var errBoom = errors.New("boom")
