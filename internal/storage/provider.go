// Package storage defines the settings-directory file-system abstraction.
package storage

import "github.com/starford/terjecfg/internal/models"

// Provider is the interface for settings file operations. Paths are
// slash-separated and relative to the settings root.
type Provider interface {
	// Root returns the absolute settings directory.
	Root() string
	// List returns metadata for every editable file under dir.
	List(dir string) ([]models.FileMeta, error)
	// Tree returns the folder hierarchy with its editable files.
	Tree() ([]*models.TreeNode, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Remove deletes the file at path. A missing file is not an error.
	Remove(path string) error
}

// Filter hides paths from listings. rel is slash-separated.
type Filter interface {
	ShouldIgnore(rel string, isDir bool) bool
}
