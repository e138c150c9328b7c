// Package workspace manages the scratch directory an install stages
// into before committing, and the moves that commit it.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const dirPerm = 0o755

// Scratch is a temporary staging tree. Downloads land here and are
// checked here, so the destination is only ever touched by a commit.
type Scratch struct {
	root string
}

func NewScratch() (*Scratch, error) {
	root, err := os.MkdirTemp("", "spkg-install-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return &Scratch{root: root}, nil
}

func (s *Scratch) Root() string {
	return s.root
}

// Path joins segments under the scratch root.
func (s *Scratch) Path(segments ...string) string {
	return filepath.Join(append([]string{s.root}, segments...)...)
}

// Cleanup removes the scratch tree. Safe to call after the tree has
// already been moved away.
func (s *Scratch) Cleanup() {
	os.RemoveAll(s.root)
}

// Move relocates the tree at src to dest, falling back to
// copy-and-delete when the rename crosses filesystems.
func Move(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return fmt.Errorf("creating parent of %s: %w", dest, err)
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := CopyTree(src, dest); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

// CopyTree copies the directory tree at src to dest, preserving file
// modes.
func CopyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, dirPerm)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode().Perm())
	})
}
