package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/terjecfg/internal/apperr"
	"github.com/starford/terjecfg/internal/checksum"
	"github.com/starford/terjecfg/internal/models"
	"github.com/starford/terjecfg/internal/parser"
)

const tmpPattern = ".terjecfg-tmp-*"

// FS implements Provider backed by the local file system.
type FS struct {
	root   string // absolute path to the settings directory
	filter Filter
}

// Option configures an FS.
type Option func(*FS)

// WithFilter hides matching files and folders from List and Tree.
func WithFilter(f Filter) Option {
	return func(s *FS) { s.filter = f }
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, opts ...Option) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	s := &FS{root: abs}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute settings directory.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the root and rejects any result
// that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s: %w", rel, apperr.ErrInvalidPath)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes settings root: %s: %w", rel, apperr.ErrInvalidPath)
	}
	return abs, nil
}

func (f *FS) rel(abs string) string {
	r, _ := filepath.Rel(f.root, abs)
	return filepath.ToSlash(r)
}

func (f *FS) ignored(rel string, isDir bool) bool {
	return f.filter != nil && rel != "." && f.filter.ShouldIgnore(rel, isDir)
}

// List walks dir (relative to root) and returns metadata for every .cfg and
// .xml file.
func (f *FS) List(dir string) ([]models.FileMeta, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.FileMeta
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel := f.rel(p)
		if d.IsDir() {
			if p != base && f.ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.Supported(d.Name()) || f.ignored(rel, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, models.FileMeta{
			Path:      rel,
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Tree returns the folders and editable files under the root in directory
// order. Folders without editable files are kept.
func (f *FS) Tree() ([]*models.TreeNode, error) {
	nodes, err := f.tree(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: tree: %w", err)
	}
	return nodes, nil
}

func (f *FS) tree(dir string) ([]*models.TreeNode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	nodes := make([]*models.TreeNode, 0, len(entries))
	for _, e := range entries {
		abs := filepath.Join(dir, e.Name())
		rel := f.rel(abs)
		if e.IsDir() {
			if f.ignored(rel, true) {
				continue
			}
			children, err := f.tree(abs)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &models.TreeNode{
				Name:     e.Name(),
				Path:     rel,
				Type:     models.NodeFolder,
				Children: children,
			})
			continue
		}
		if !parser.Supported(e.Name()) || f.ignored(rel, false) {
			continue
		}
		nodes = append(nodes, &models.TreeNode{Name: e.Name(), Path: rel, Type: models.NodeFile})
	}
	return nodes, nil
}

// Read returns the raw bytes of a settings file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename. An existing
// file keeps its permission bits.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Remove deletes a settings file. A missing file is not an error.
func (f *FS) Remove(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if abs == f.root {
		return fmt.Errorf("storage: cannot remove settings root: %w", apperr.ErrInvalidPath)
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}
