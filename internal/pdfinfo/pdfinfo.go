// Package pdfinfo reads document facts that need no external tool.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoHeader indicates the file does not start with a %PDF-x.y header.
var ErrNoHeader = errors.New("no PDF header")

// headerWindow is how far into the file the header may appear. Some
// producers prepend garbage before %PDF-.
const headerWindow = 1024

var headerRe = regexp.MustCompile(`%PDF-([0-9]+\.[0-9]+)`)

// HeaderVersion returns the version declared in the file header.
func HeaderVersion(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-supplied document
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, headerWindow)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return ParseHeader(buf[:n])
}

// ParseHeader extracts the version from the leading bytes of a document.
func ParseHeader(head []byte) (string, error) {
	if i := bytes.Index(head, []byte("%PDF-")); i >= 0 {
		if m := headerRe.FindSubmatch(head[i:]); m != nil {
			return string(m[1]), nil
		}
	}
	return "", ErrNoHeader
}

// PageCount returns the number of pages using pdfcpu.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return n, nil
}
