// Package tools discovers the external command-line tools the engine drives.
//
// Discovery runs once and yields an immutable Set; nothing outside this
// package branches on the operating system.
package tools

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
)

// ErrNotFound indicates a tool could not be located.
var ErrNotFound = errors.New("tool not found")

// Tool identifies an external program.
type Tool string

// Known tools.
const (
	Ghostscript Tool = "ghostscript"
	PDFImages   Tool = "pdfimages"
	QPDF        Tool = "qpdf"
)

// All lists every tool in reporting order.
var All = []Tool{Ghostscript, PDFImages, QPDF}

// EnvVar returns the environment variable that overrides the tool path.
func (t Tool) EnvVar() string {
	switch t {
	case Ghostscript:
		return "GHOSTSCRIPT_PATH"
	case PDFImages:
		return "PDFIMAGES_PATH"
	case QPDF:
		return "QPDF_PATH"
	}
	return ""
}

// Set is the resolved location of every tool. The zero value has no tools.
type Set struct {
	paths map[Tool]string
}

// NewSet builds a Set from explicit paths. Empty paths are ignored.
func NewSet(paths map[Tool]string) Set {
	s := Set{paths: make(map[Tool]string, len(paths))}
	for t, p := range paths {
		if p != "" {
			s.paths[t] = p
		}
	}
	return s
}

// Path returns the executable for t or ErrNotFound.
func (s Set) Path(t Tool) (string, error) {
	if p, ok := s.paths[t]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, t)
}

// Has reports whether t was located.
func (s Set) Has(t Tool) bool {
	_, ok := s.paths[t]
	return ok
}

// Locator searches for tools in a fixed order: explicit override,
// PATH lookup by candidate name, well-known install directories,
// then vendor install globs (Windows).
type Locator struct {
	Overrides map[Tool]string
	GOOS      string

	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	glob     func(string) ([]string, error)
}

// NewLocator creates a Locator for the running platform.
func NewLocator(overrides map[Tool]string) *Locator {
	return &Locator{
		Overrides: overrides,
		GOOS:      runtime.GOOS,
		lookPath:  exec.LookPath,
		stat:      os.Stat,
		glob:      filepath.Glob,
	}
}

// OverridesFromEnv reads GHOSTSCRIPT_PATH, PDFIMAGES_PATH and QPDF_PATH.
func OverridesFromEnv(getenv func(string) string) map[Tool]string {
	out := make(map[Tool]string)
	for _, t := range All {
		if v := getenv(t.EnvVar()); v != "" {
			out[t] = v
		}
	}
	return out
}

// Resolve locates every known tool. Missing tools are simply absent from the Set.
func (l *Locator) Resolve() Set {
	paths := make(map[Tool]string, len(All))
	for _, t := range All {
		if p, ok := l.Find(t); ok {
			paths[t] = p
		}
	}
	return Set{paths: paths}
}

// Find locates a single tool.
func (l *Locator) Find(t Tool) (string, bool) {
	if p := l.Overrides[t]; p != "" {
		if l.isFile(p) {
			return p, true
		}
		// A bare name override ("gs") is resolved through PATH.
		if resolved, err := l.lookPath(p); err == nil {
			return resolved, true
		}
	}

	for _, name := range l.candidateNames(t) {
		if p, err := l.lookPath(name); err == nil {
			return p, true
		}
	}

	for _, dir := range l.fixedDirs() {
		for _, name := range l.candidateNames(t) {
			p := filepath.Join(dir, name)
			if l.isFile(p) {
				return p, true
			}
		}
	}

	for _, pattern := range l.globs(t) {
		matches, err := l.glob(pattern)
		if err != nil || len(matches) == 0 {
			continue
		}
		// Newest install first: gs10.06.0 before gs9.56.1.
		sort.Slice(matches, func(i, j int) bool { return naturalLess(matches[j], matches[i]) })
		for _, m := range matches {
			if l.isFile(m) {
				return m, true
			}
		}
	}
	return "", false
}

func (l *Locator) isFile(p string) bool {
	info, err := l.stat(p)
	return err == nil && !info.IsDir()
}

func (l *Locator) windows() bool {
	return l.GOOS == "windows"
}

func (l *Locator) candidateNames(t Tool) []string {
	if l.windows() {
		switch t {
		case Ghostscript:
			return []string{"gswin64c.exe", "gswin32c.exe", "gs.exe"}
		case PDFImages:
			return []string{"pdfimages.exe"}
		case QPDF:
			return []string{"qpdf.exe"}
		}
		return nil
	}
	switch t {
	case Ghostscript:
		return []string{"gs"}
	case PDFImages:
		return []string{"pdfimages"}
	case QPDF:
		return []string{"qpdf"}
	}
	return nil
}

func (l *Locator) fixedDirs() []string {
	if l.windows() {
		return nil
	}
	return []string{"/usr/bin", "/usr/local/bin", "/opt/local/bin", "/opt/homebrew/bin", "/snap/bin"}
}

func (l *Locator) globs(t Tool) []string {
	if !l.windows() {
		return nil
	}
	switch t {
	case Ghostscript:
		return []string{
			`C:\Program Files\gs\gs*\bin\gswin64c.exe`,
			`C:\Program Files (x86)\gs\gs*\bin\gswin32c.exe`,
		}
	case PDFImages:
		return []string{
			`C:\Program Files\poppler*\Library\bin\pdfimages.exe`,
			`C:\Program Files\poppler*\bin\pdfimages.exe`,
			`C:\poppler*\Library\bin\pdfimages.exe`,
			`C:\Poppler\Library\bin\pdfimages.exe`,
		}
	case QPDF:
		return []string{`C:\Program Files\qpdf*\bin\qpdf.exe`}
	}
	return nil
}

// naturalLess compares strings treating digit runs as numbers.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, restA := leadingDigits(a)
		db, restB := leadingDigits(b)
		if da != "" && db != "" {
			na, _ := strconv.Atoi(da)
			nb, _ := strconv.Atoi(db)
			if na != nb {
				return na < nb
			}
			a, b = restA, restB
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}
