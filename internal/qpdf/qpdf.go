// Package qpdf wraps the qpdf structural inspector and page merger.
package qpdf

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-pdfcomply/internal/process"
)

// ErrUnparseable indicates qpdf produced no recognizable report.
var ErrUnparseable = errors.New("unrecognized qpdf output")

// Timeouts used by Client.
const (
	DefaultProbeTimeout = 30 * time.Second
	DefaultMergeTimeout = 10 * time.Minute
)

// Info is the subset of "qpdf --check" the auditor relies on.
type Info struct {
	Version   string
	Encrypted bool
}

// Client runs qpdf.
type Client struct {
	bin          string
	runner       process.Runner
	probeTimeout time.Duration
	mergeTimeout time.Duration
}

// New creates a Client. A nil runner uses process.ExecRunner.
func New(bin string, runner process.Runner) *Client {
	if runner == nil {
		runner = process.ExecRunner{}
	}
	return &Client{
		bin:          bin,
		runner:       runner,
		probeTimeout: DefaultProbeTimeout,
		mergeTimeout: DefaultMergeTimeout,
	}
}

// WithProbeTimeout returns a copy of c using d for --check probes.
func (c *Client) WithProbeTimeout(d time.Duration) *Client {
	cp := *c
	if d > 0 {
		cp.probeTimeout = d
	}
	return &cp
}

// Check runs "qpdf --check". qpdf exits 2 on errors and 3 on warnings but
// still prints the header lines, so output is parsed regardless of status.
func (c *Client) Check(ctx context.Context, path string) (Info, error) {
	res, err := c.runner.Run(ctx, process.Command{
		Name:    c.bin,
		Args:    []string{"--check", path},
		Timeout: c.probeTimeout,
	})
	var exitErr *process.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Info{}, fmt.Errorf("qpdf check: %w", err)
	}

	info, perr := ParseCheck(res.Combined())
	if perr != nil {
		if err != nil {
			return Info{}, fmt.Errorf("qpdf check: %w", err)
		}
		return Info{}, perr
	}
	return info, nil
}

var versionRe = regexp.MustCompile(`PDF Version:\s*([0-9]+\.[0-9]+)`)

// ParseCheck reads the version and encryption state from --check output.
func ParseCheck(out string) (Info, error) {
	lower := strings.ToLower(out)
	var info Info
	if m := versionRe.FindStringSubmatch(out); m != nil {
		info.Version = m[1]
	}

	switch {
	case strings.Contains(lower, "file is not encrypted"):
		info.Encrypted = false
	case strings.Contains(lower, "invalid password"),
		strings.Contains(lower, "user password"),
		strings.Contains(lower, "r = "):
		info.Encrypted = true
	default:
		if info.Version == "" {
			return Info{}, ErrUnparseable
		}
	}
	return info, nil
}

// Merge concatenates inputs page by page without re-rendering and stamps the
// requested version.
func (c *Client) Merge(ctx context.Context, inputs []string, output, version string) error {
	if len(inputs) == 0 {
		return errors.New("qpdf merge: no input documents")
	}
	args := []string{"--force-version=" + version, "--empty", "--pages"}
	args = append(args, inputs...)
	args = append(args, "--", output)

	_, err := c.runner.Run(ctx, process.Command{Name: c.bin, Args: args, Timeout: c.mergeTimeout})
	var exitErr *process.ExitError
	// Exit status 3 means success with warnings.
	if errors.As(err, &exitErr) && exitErr.Code == 3 {
		return nil
	}
	if err != nil {
		return fmt.Errorf("qpdf merge: %w", err)
	}
	return nil
}

// Version returns the qpdf version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.runner.Run(ctx, process.Command{
		Name:    c.bin,
		Args:    []string{"--version"},
		Timeout: c.probeTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("qpdf version: %w", err)
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(res.Stdout)), "\n")
	return strings.TrimPrefix(first, "qpdf version "), nil
}
