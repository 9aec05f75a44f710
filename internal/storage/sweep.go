package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ListRuns returns the run directories currently present under root.
func ListRuns(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), RunDirPrefix) {
			runs = append(runs, filepath.Join(root, e.Name()))
		}
	}
	return runs, nil
}

// SweepStale removes run directories older than maxAge, left behind by a
// process that died mid-request. It returns the removed paths.
func SweepStale(root string, maxAge time.Duration) ([]string, error) {
	runs, err := ListRuns(root)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed []string
	for _, dir := range runs {
		info, err := os.Stat(dir)
		if err != nil {
			continue // raced with its owner
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, err
		}
		removed = append(removed, dir)
	}
	return removed, nil
}
