// Package models defines the domain types shared across terjecfg packages.
package models

import "time"

// Metadata describes a recognised setting: its value type tag, the default
// value and a human-readable description.
type Metadata struct {
	Type        string `json:"type" yaml:"type"`
	Default     string `json:"default" yaml:"default"`
	Description string `json:"description" yaml:"description"`
}

// IsZero reports whether no field is set.
func (m Metadata) IsZero() bool {
	return m.Type == "" && m.Default == "" && m.Description == ""
}

// Merge returns m with every empty field filled from fallback.
func (m Metadata) Merge(fallback Metadata) Metadata {
	if m.Type == "" {
		m.Type = fallback.Type
	}
	if m.Default == "" {
		m.Default = fallback.Default
	}
	if m.Description == "" {
		m.Description = fallback.Description
	}
	return m
}

// Node types used in TreeNode.Type.
const (
	NodeFile   = "file"
	NodeFolder = "folder"
)

// TreeNode is one entry of the editable file tree.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"` // "file" or "folder"
	Children []*TreeNode `json:"children,omitempty"`
}

// FileMeta is a lightweight representation of an editable file on disk.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
