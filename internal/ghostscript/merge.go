package ghostscript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var errNoInputs = errors.New("no input documents")

// Concat appends inputs into output in one pdfwrite pass. Explicit gray
// conversion and disabled resampling keep every source at its density.
func (c *Client) Concat(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return errNoInputs
	}
	args := c.pdfwriteArgs(output)
	args = append(args, noResampleArgs...)
	args = append(args, inputs...)
	if _, err := c.run(ctx, c.timeouts.Render, filepath.Dir(output), args...); err != nil {
		return fmt.Errorf("concatenating %d documents: %w", len(inputs), err)
	}
	return nil
}

// ConcatFileList passes inputs through an @argument file, which avoids
// command-line length limits with many parts.
func (c *Client) ConcatFileList(ctx context.Context, inputs []string, output, listPath string) error {
	if len(inputs) == 0 {
		return errNoInputs
	}
	var b strings.Builder
	for _, in := range inputs {
		// Quote each entry so paths with spaces survive argument splitting.
		fmt.Fprintf(&b, "%q\n", filepath.ToSlash(in))
	}
	if err := os.WriteFile(listPath, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("writing file list: %w", err)
	}
	defer os.Remove(listPath)

	args := c.pdfwriteArgs(output)
	args = append(args, noResampleArgs...)
	args = append(args, "@"+listPath)
	if _, err := c.run(ctx, c.timeouts.Render, filepath.Dir(output), args...); err != nil {
		return fmt.Errorf("concatenating from file list: %w", err)
	}
	return nil
}

// ConcatPairwise folds inputs two at a time, then rewrites the result once
// more so the final file carries the target version.
func (c *Client) ConcatPairwise(ctx context.Context, inputs []string, output, workDir string) error {
	if len(inputs) == 0 {
		return errNoInputs
	}

	current := inputs[0]
	for i := 1; i < len(inputs); i++ {
		next := filepath.Join(workDir, fmt.Sprintf("pairwise_%03d.pdf", i))
		if err := c.Concat(ctx, []string{current, inputs[i]}, next); err != nil {
			return fmt.Errorf("pairwise step %d: %w", i, err)
		}
		if i > 1 {
			_ = os.Remove(current)
		}
		current = next
	}

	err := c.Concat(ctx, []string{current}, output)
	if current != inputs[0] {
		_ = os.Remove(current)
	}
	return err
}
