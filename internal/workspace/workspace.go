// Package workspace provides per-job scratch directories.
//
// Each job gets a fresh directory named after a random identifier, so two
// concurrent jobs never share files. Release deletes everything under it.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrReleased is returned when using a workspace after Release.
var ErrReleased = errors.New("workspace already released")

// dirPrefix marks scratch directories created by this package.
const dirPrefix = "pdfcomply-"

// dirPermissions keeps intermediate rasters private to the current user.
const dirPermissions = 0o700

// Workspace is a scoped scratch directory owned by exactly one job.
type Workspace struct {
	ID  string
	Dir string

	mu       sync.Mutex
	released bool
}

// Acquire creates a new workspace under base (os.TempDir() when empty).
func Acquire(base string) (*Workspace, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}

	id := uuid.NewString()
	dir := filepath.Join(base, dirPrefix+id)
	if err := os.Mkdir(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Sub creates (if needed) and returns a subdirectory.
func (w *Workspace) Sub(name string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return "", ErrReleased
	}
	if strings.ContainsAny(name, `/\`) || name == ".." || name == "" {
		return "", fmt.Errorf("invalid workspace subdirectory %q", name)
	}
	dir := filepath.Join(w.Dir, name)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return "", fmt.Errorf("creating %s: %w", name, err)
	}
	return dir, nil
}

// Release deletes the workspace. Safe to call more than once.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.released {
		return nil
	}
	w.released = true
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("releasing workspace %s: %w", w.ID, err)
	}
	return nil
}

// Released reports whether Release has run.
func (w *Workspace) Released() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}
