package ghostscript

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-pdfcomply/internal/imaging"
)

// InkCoverage is the per-page ink ratio reported by the inkcov device.
type InkCoverage struct {
	Page       int
	C, M, Y, K float64
}

var inkLineRe = regexp.MustCompile(`^\s*(?:Page\s+(\d+):\s*)?([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+CMYK`)

// InkCoverage runs the inkcov device over every page.
func (c *Client) InkCoverage(ctx context.Context, path string) ([]InkCoverage, error) {
	res, err := c.run(ctx, c.timeouts.Ink, "",
		"-sDEVICE=inkcov",
		"-sOutputFile=%stdout%",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ink coverage: %w", err)
	}
	return ParseInkCoverage(string(res.Stdout)), nil
}

// ParseInkCoverage extracts one record per "c m y k CMYK OK" line. Lines
// may carry a "Page N:" prefix; unnumbered lines are counted in order.
func ParseInkCoverage(out string) []InkCoverage {
	var pages []InkCoverage
	for _, line := range strings.Split(out, "\n") {
		m := inkLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		page := len(pages) + 1
		if m[1] != "" {
			page, _ = strconv.Atoi(m[1])
		}
		var v [4]float64
		for i := range v {
			v[i], _ = strconv.ParseFloat(m[i+2], 64)
		}
		pages = append(pages, InkCoverage{
			Page: page,
			C:    v[0], M: v[1], Y: v[2], K: v[3],
		})
	}
	return pages
}

// samplePattern is the output template for low resolution color samples.
const samplePattern = "sample_%04d.png"

// sampleDPI keeps color samples small; only hue matters, not detail.
const sampleDPI = 72

var sampleFileRe = regexp.MustCompile(`^sample_(\d+)\.png$`)

// ColoredPages renders every page of path to RGB at low resolution in outDir
// and returns the numbers of the pages whose pixels carry color. It is the
// fallback for documents where inkcov reports nothing.
func (c *Client) ColoredPages(ctx context.Context, path, outDir string) ([]int, error) {
	if _, err := c.run(ctx, c.timeouts.Render, outDir,
		"-sDEVICE=png16m",
		"-r"+strconv.Itoa(sampleDPI),
		"-sOutputFile="+filepath.Join(outDir, samplePattern),
		path,
	); err != nil {
		return nil, fmt.Errorf("color sample: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "sample_*.png"))
	if err != nil {
		return nil, err
	}
	var colored []int
	rendered := 0
	for _, m := range matches {
		sub := sampleFileRe.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		rendered++
		ok, err := imaging.HasColor(m)
		if err != nil {
			return nil, fmt.Errorf("color sample: %w", err)
		}
		if ok {
			n, _ := strconv.Atoi(sub[1])
			colored = append(colored, n)
		}
	}
	if rendered == 0 {
		return nil, errors.New("color sample: no pages rendered")
	}
	sort.Ints(colored)
	return colored, nil
}

// encryptionPhrases are the fragments of Ghostscript diagnostics raised by
// password protected documents.
var encryptionPhrases = []string{"password", "encrypt", "decrypt"}

// ProbeEncryption opens the first page of path and reports whether the
// interpreter complained about a password or encryption. Documents with an
// owner password only open normally and are reported unencrypted.
func (c *Client) ProbeEncryption(ctx context.Context, path string) (bool, error) {
	res, err := c.run(ctx, c.timeouts.Probe, "",
		"-dNODISPLAY",
		"-dFirstPage=1",
		"-dLastPage=1",
		path,
	)
	if isEncryptionDiagnostic(res.Combined(), path) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("encryption probe: %w", err)
	}
	return false, nil
}

// isEncryptionDiagnostic reports whether out mentions encryption once every
// echo of path has been removed, so directory or file names never match.
func isEncryptionDiagnostic(out, path string) bool {
	out = strings.ReplaceAll(out, path, "")
	if base := filepath.Base(path); base != "." {
		out = strings.ReplaceAll(out, base, "")
	}
	out = strings.ToLower(out)
	for _, phrase := range encryptionPhrases {
		if strings.Contains(out, phrase) {
			return true
		}
	}
	return false
}
