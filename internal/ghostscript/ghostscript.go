// Package ghostscript drives the Ghostscript command-line interpreter for
// rasterization, page assembly, concatenation, re-encoding and probes.
package ghostscript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-pdfcomply/internal/process"
)

// DefaultVersion is the document format written by pdfwrite unless
// WithVersion overrides it.
const DefaultVersion = "1.4"

// Timeouts bounds each class of invocation.
type Timeouts struct {
	Render time.Duration // rasterize, assemble, merge, compress
	Probe  time.Duration // version and encryption probes
	Ink    time.Duration // inkcov pass over the whole document
}

// DefaultTimeouts returns the production deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Render: 10 * time.Minute,
		Probe:  30 * time.Second,
		Ink:    3 * time.Minute,
	}
}

// Client runs one Ghostscript executable.
type Client struct {
	bin      string
	runner   process.Runner
	timeouts Timeouts
	version  string
}

// New creates a Client. A nil runner uses process.ExecRunner.
func New(bin string, runner process.Runner, timeouts Timeouts) *Client {
	if runner == nil {
		runner = process.ExecRunner{}
	}
	return &Client{bin: bin, runner: runner, timeouts: timeouts, version: DefaultVersion}
}

// WithVersion returns a copy of c that writes documents at version v.
func (c *Client) WithVersion(v string) *Client {
	cp := *c
	if v != "" {
		cp.version = v
	}
	return &cp
}

// Bin returns the executable path.
func (c *Client) Bin() string {
	return c.bin
}

// baseArgs are shared by every batch invocation.
var baseArgs = []string{"-dBATCH", "-dNOPAUSE", "-dQUIET", "-dSAFER"}

// run executes gs with baseArgs prepended. When dir is set, Ghostscript's
// own scratch files go there instead of the shared temp directory.
func (c *Client) run(ctx context.Context, timeout time.Duration, dir string, args ...string) (process.Result, error) {
	cmd := process.Command{
		Name:    c.bin,
		Args:    append(append([]string{}, baseArgs...), args...),
		Timeout: timeout,
	}
	if dir != "" {
		cmd.Env = []string{"TEMP=" + dir, "TMP=" + dir, "TMPDIR=" + dir}
	}
	return c.runner.Run(ctx, cmd)
}

// Version returns the interpreter version, e.g. "10.02.1".
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.runner.Run(ctx, process.Command{
		Name:    c.bin,
		Args:    []string{"--version"},
		Timeout: c.timeouts.Probe,
	})
	if err != nil {
		return "", fmt.Errorf("ghostscript version: %w", err)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// pdfwriteArgs configures pdfwrite to emit a grayscale document at the
// target version without touching embedded image density.
func (c *Client) pdfwriteArgs(output string) []string {
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=" + c.version,
		"-sColorConversionStrategy=Gray",
		"-dProcessColorModel=/DeviceGray",
		"-dAutoRotatePages=/None",
		"-sOutputFile=" + output,
	}
}

// noResampleArgs disables every downsampling path in pdfwrite.
var noResampleArgs = []string{
	"-dDownsampleGrayImages=false",
	"-dDownsampleColorImages=false",
	"-dDownsampleMonoImages=false",
	"-dPassThroughJPEGImages=true",
}
