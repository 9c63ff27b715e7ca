package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the canonical runtime folder layout under the data path.
type Paths struct {
	Store     string // pebble database
	Blobs     string // attachment blob files
	Reconcile string // reconciler lock/artifact files
	Tmp       string // scratch space for staged writes
}

// Layout returns the folder layout rooted at dataPath without creating it.
func Layout(dataPath string) Paths {
	statePath := filepath.Join(dataPath, "state")
	return Paths{
		Store:     filepath.Join(dataPath, "store"),
		Blobs:     filepath.Join(dataPath, "blobs", "attachments"),
		Reconcile: filepath.Join(statePath, "reconcile"),
		Tmp:       filepath.Join(statePath, "tmp"),
	}
}

// EnsureDirs ensures the runtime folder layout exists. It rejects symlinked
// or group/other-writable directories and verifies each path is writable by
// the process.
func EnsureDirs(p Paths) error {
	for _, dir := range []string{p.Store, p.Blobs, p.Reconcile, p.Tmp} {
		if err := os.MkdirAll(filepath.Dir(dir), 0o700); err != nil {
			return fmt.Errorf("cannot create parent for %s: %w", dir, err)
		}
		if fi, err := os.Lstat(dir); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", dir)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", dir)
			}
			if fi.Mode().Perm()&0o022 != 0 {
				return fmt.Errorf("path has permissive mode (group/other write): %s", dir)
			}
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", dir, err)
		}
		// writability check: create and remove a temp file
		tmp, err := os.CreateTemp(dir, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", dir, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	return nil
}
