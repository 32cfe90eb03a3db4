package poppler

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/alnah/go-pdfcomply/internal/process"
)

type fakeRunner struct {
	calls []process.Command
	res   process.Result
	err   error
}

func (f *fakeRunner) Run(_ context.Context, cmd process.Command) (process.Result, error) {
	f.calls = append(f.calls, cmd)
	return f.res, f.err
}

// ---------------------------------------------------------------------------
// TestListImages - Invocation and errors
// ---------------------------------------------------------------------------

func TestListImages(t *testing.T) {
	t.Parallel()

	table := "page   num  type   width height color comp bpc  enc interp  object ID x-ppi y-ppi size ratio\n"
	runner := &fakeRunner{res: process.Result{Stdout: []byte(table)}}

	got, err := New("pdfimages", runner, 0).ListImages(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if got != table {
		t.Errorf("output = %q", got)
	}
	if !slices.Equal(runner.calls[0].Args, []string{"-list", "doc.pdf"}) {
		t.Errorf("args = %v", runner.calls[0].Args)
	}
	if runner.calls[0].Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", runner.calls[0].Timeout, DefaultTimeout)
	}
}

func TestListImages_CustomTimeoutAndError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: process.ErrTimeout}
	_, err := New("pdfimages", runner, 5*time.Second).ListImages(context.Background(), "doc.pdf")
	if !errors.Is(err, process.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if runner.calls[0].Timeout != 5*time.Second {
		t.Errorf("timeout = %v", runner.calls[0].Timeout)
	}
}

// ---------------------------------------------------------------------------
// TestVersion - stderr banner parsing
// ---------------------------------------------------------------------------

func TestVersion(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{res: process.Result{Stderr: []byte("pdfimages version 24.02.0\nCopyright 2005-2024 The Poppler Developers\n")}}
	got, err := New("pdfimages", runner, 0).Version(context.Background())
	if err != nil || got != "24.02.0" {
		t.Errorf("Version() = (%q, %v), want 24.02.0", got, err)
	}
}
