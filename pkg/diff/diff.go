// Package diff compares an incoming skill tree against the version
// already installed at the destination.
package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const hashPrefix = "sha256:"

// Result describes how a new tree differs from an old one. Paths are
// slash-separated and relative to the tree roots, sorted for stable
// output.
type Result struct {
	Added     []string
	Removed   []string
	Modified  []string
	Identical bool
}

// Compare hashes every file under newTree and oldTree and reports what
// an install would add, remove, and overwrite.
func Compare(newTree, oldTree string) (*Result, error) {
	newHashes, err := hashTree(newTree)
	if err != nil {
		return nil, fmt.Errorf("hashing new tree: %w", err)
	}
	oldHashes, err := hashTree(oldTree)
	if err != nil {
		return nil, fmt.Errorf("hashing installed tree: %w", err)
	}

	r := &Result{}
	for path, sum := range newHashes {
		old, ok := oldHashes[path]
		switch {
		case !ok:
			r.Added = append(r.Added, path)
		case old != sum:
			r.Modified = append(r.Modified, path)
		}
	}
	for path := range oldHashes {
		if _, ok := newHashes[path]; !ok {
			r.Removed = append(r.Removed, path)
		}
	}

	sort.Strings(r.Added)
	sort.Strings(r.Removed)
	sort.Strings(r.Modified)
	r.Identical = len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
	return r, nil
}

func hashTree(root string) (map[string]string, error) {
	hashes := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		hashes[filepath.ToSlash(rel)] = hashPrefix + hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hashes, nil
}

// TreeHash computes a "sha256:<hex>" integrity hash over all file
// contents in the tree, walking in sorted order for determinism.
func TreeHash(root string) (string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	sort.Strings(files)

	h := sha256.New()
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f)))
		if err != nil {
			return "", err
		}
		h.Write([]byte(f))
		h.Write(data)
	}
	return hashPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
