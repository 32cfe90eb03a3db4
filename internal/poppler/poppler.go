// Package poppler wraps the poppler-utils pdfimages inspector.
package poppler

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-pdfcomply/internal/process"
)

// DefaultTimeout bounds one "pdfimages -list" run.
const DefaultTimeout = 2 * time.Minute

// Client runs pdfimages.
type Client struct {
	bin     string
	runner  process.Runner
	timeout time.Duration
}

// New creates a Client. A nil runner uses process.ExecRunner; a zero timeout
// uses DefaultTimeout.
func New(bin string, runner process.Runner, timeout time.Duration) *Client {
	if runner == nil {
		runner = process.ExecRunner{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{bin: bin, runner: runner, timeout: timeout}
}

// ListImages returns the raw "pdfimages -list" table for path.
func (c *Client) ListImages(ctx context.Context, path string) (string, error) {
	res, err := c.runner.Run(ctx, process.Command{
		Name:    c.bin,
		Args:    []string{"-list", path},
		Timeout: c.timeout,
	})
	if err != nil {
		return "", fmt.Errorf("listing images: %w", err)
	}
	return string(res.Stdout), nil
}

var versionRe = regexp.MustCompile(`version\s+([0-9][0-9.]*)`)

// Version returns the poppler version. pdfimages prints it on stderr.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.runner.Run(ctx, process.Command{
		Name:    c.bin,
		Args:    []string{"-v"},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return "", fmt.Errorf("pdfimages version: %w", err)
	}
	if m := versionRe.FindStringSubmatch(res.Combined()); m != nil {
		return m[1], nil
	}
	return strings.TrimSpace(res.Combined()), nil
}
