package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/video-stream/recap/internal/media"
)

type countingReleaser struct {
	calls int
}

func (c *countingReleaser) Release() error {
	c.calls++
	return nil
}

func TestWorkspaceIsLazy(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root)

	if err := ws.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	runs, err := ListRuns(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no run dirs, got %v", runs)
	}
}

func TestWorkspaceReleaseRemovesFilesAndBlobs(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root)

	f, err := ws.CreateTemp("video-*.mp4")
	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}
	f.Close()

	blob := media.NewBlob(media.KindVideo, "video/mp4", []byte("data"))
	ws.Track(blob)
	counter := &countingReleaser{}
	ws.Track(counter)

	if filepath.Dir(f.Name()) != ws.Path() {
		t.Fatalf("temp file %s not inside run dir %s", f.Name(), ws.Path())
	}

	if err := ws.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := ws.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}

	if counter.calls != 1 {
		t.Fatalf("releaser called %d times, want 1", counter.calls)
	}
	if !blob.Released() {
		t.Fatal("tracked blob not released")
	}
	if _, err := os.Stat(f.Name()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file still present, stat err = %v", err)
	}
	if runs, _ := ListRuns(root); len(runs) != 0 {
		t.Fatalf("run dir left behind: %v", runs)
	}
}

func TestWorkspaceAfterRelease(t *testing.T) {
	ws := NewWorkspace(t.TempDir())
	ws.Release()

	if _, err := ws.CreateTemp("x-*"); !errors.Is(err, ErrReleased) {
		t.Fatalf("CreateTemp after release err = %v, want ErrReleased", err)
	}

	counter := &countingReleaser{}
	ws.Track(counter)
	if counter.calls != 1 {
		t.Fatalf("late Track should release immediately, calls = %d", counter.calls)
	}
}

func TestWorkspaceUniqueDirs(t *testing.T) {
	root := t.TempDir()
	a, b := NewWorkspace(root), NewWorkspace(root)
	defer a.Release()
	defer b.Release()

	da, err := a.Dir()
	if err != nil {
		t.Fatal(err)
	}
	db, err := b.Dir()
	if err != nil {
		t.Fatal(err)
	}
	if da == db {
		t.Fatalf("workspaces share directory %s", da)
	}
}

func TestWorkspaceRemoveRejectsOutsidePaths(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root)
	defer ws.Release()

	if _, err := ws.Dir(); err != nil {
		t.Fatal(err)
	}
	outside := filepath.Join(root, "other.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ws.Remove(outside); !errors.Is(err, os.ErrPermission) {
		t.Fatalf("Remove(outside) err = %v, want ErrPermission", err)
	}
}

func TestSweepStale(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, RunDirPrefix+"old")
	fresh := filepath.Join(root, RunDirPrefix+"fresh")
	unrelated := filepath.Join(root, "keep-me")
	for _, d := range []string{old, fresh, unrelated} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	removed, err := SweepStale(root, time.Hour)
	if err != nil {
		t.Fatalf("SweepStale() error = %v", err)
	}
	if len(removed) != 1 || removed[0] != old {
		t.Fatalf("removed = %v, want [%s]", removed, old)
	}
	for _, d := range []string{fresh, unrelated} {
		if _, err := os.Stat(d); err != nil {
			t.Fatalf("%s should survive: %v", d, err)
		}
	}
}

func TestVideoExtension(t *testing.T) {
	tests := []struct {
		name        string
		urlPath     string
		contentType string
		want        string
	}{
		{"from path", "/rec/call.MOV", "", ".mov"},
		{"path wins", "/rec/call.webm", "video/mp4", ".webm"},
		{"from content type", "/download", "video/webm", ".webm"},
		{"quicktime", "/download", "video/quicktime", ".mov"},
		{"default", "/download", "application/octet-stream", ".mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VideoExtension(tt.urlPath, tt.contentType); got != tt.want {
				t.Errorf("VideoExtension() = %q, want %q", got, tt.want)
			}
		})
	}
}
