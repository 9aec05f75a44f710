package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RunDirPrefix prefixes every per-run directory created under the temp root.
const RunDirPrefix = "recap-run-"

// ErrReleased is returned when a released workspace is asked for storage.
var ErrReleased = errors.New("workspace already released")

// Releaser is anything holding a temporary resource.
type Releaser interface {
	Release() error
}

// Workspace owns the temporary resources of one pipeline run: files in a
// lazily created, uniquely named directory and any tracked in-memory buffers.
// Release frees all of them exactly once.
type Workspace struct {
	root string

	mu        sync.Mutex
	dir       string
	releasers []Releaser
	released  bool
}

// NewWorkspace creates a workspace rooted at root (os.TempDir when empty).
// Nothing touches the disk until a file is requested.
func NewWorkspace(root string) *Workspace {
	if root == "" {
		root = os.TempDir()
	}
	return &Workspace{root: root}
}

// Dir returns the run directory, creating it on first use.
func (w *Workspace) Dir() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirLocked()
}

func (w *Workspace) dirLocked() (string, error) {
	if w.released {
		return "", ErrReleased
	}
	if w.dir != "" {
		return w.dir, nil
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return "", fmt.Errorf("create temp root: %w", err)
	}
	dir, err := os.MkdirTemp(w.root, RunDirPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	w.dir = dir
	return dir, nil
}

// CreateTemp creates a uniquely named file inside the run directory.
func (w *Workspace) CreateTemp(pattern string) (*os.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir, err := w.dirLocked()
	if err != nil {
		return nil, err
	}
	return os.CreateTemp(dir, pattern)
}

// Remove deletes one file from the run directory ahead of Release.
// Paths outside the run directory are rejected.
func (w *Workspace) Remove(path string) error {
	w.mu.Lock()
	dir := w.dir
	w.mu.Unlock()
	if dir == "" {
		return nil
	}
	absDir, _ := filepath.Abs(dir)
	absPath, _ := filepath.Abs(path)
	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		return os.ErrPermission
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Track registers r to be released with the workspace. Tracking on a
// released workspace releases r immediately.
func (w *Workspace) Track(r Releaser) {
	if r == nil {
		return
	}
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		_ = r.Release()
		return
	}
	w.releasers = append(w.releasers, r)
	w.mu.Unlock()
}

// Release frees every tracked resource and removes the run directory.
// Subsequent calls are no-ops and return nil.
func (w *Workspace) Release() error {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return nil
	}
	w.released = true
	releasers := w.releasers
	w.releasers = nil
	dir := w.dir
	w.mu.Unlock()

	var errs []error
	for i := len(releasers) - 1; i >= 0; i-- {
		if err := releasers[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	if dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("remove run dir: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Released reports whether Release has run.
func (w *Workspace) Released() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released
}

// Path returns the run directory if it has been created.
func (w *Workspace) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}
