package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatstore/pkg/errs"
	"chatstore/pkg/logger"
)

// Disk stores blobs as flat files in a single directory. Writes are staged
// to a temp file and renamed into place, so a Put that replaces an existing
// name is atomic.
type Disk struct {
	dir string
}

// NewDisk opens (or creates) a disk blob store rooted at dir.
func NewDisk(dir string) (*Disk, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty blob dir")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the backing directory.
func (d *Disk) Dir() string { return d.dir }

func (d *Disk) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := sanitize(name)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(d.dir, ".put-*")
	if err != nil {
		return "", fmt.Errorf("stage blob %s: %w: %w", clean, errs.ErrStorageFailure, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write blob %s: %w: %w", clean, errs.ErrStorageFailure, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("sync blob %s: %w: %w", clean, errs.ErrStorageFailure, err)
	}
	tmp.Close()

	dst := filepath.Join(d.dir, clean)
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("place blob %s: %w: %w", clean, errs.ErrStorageFailure, err)
	}
	logger.Debug("blob_stored", "name", clean, "bytes", len(data))
	return dst, nil
}

func (d *Disk) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := sanitize(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.dir, clean)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete blob %s: %w: %w", clean, errs.ErrStorageFailure, err)
	}
	logger.Debug("blob_deleted", "name", clean)
	return nil
}

func (d *Disk) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w: %w", errs.ErrStorageFailure, err)
	}
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: e.Name(), Size: fi.Size(), ModTime: fi.ModTime()})
	}
	return out, nil
}

// sanitize rejects names that would escape the blob directory.
func sanitize(name string) (string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == ".." || strings.ContainsAny(clean, "/\\") {
		return "", fmt.Errorf("%w: bad blob name %q", errs.ErrInvalidRequest, name)
	}
	return clean, nil
}
