// Package parser turns .cfg and .xml configuration text into line-addressable
// models and prints them back without disturbing unedited bytes.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/terjecfg/internal/apperr"
	"github.com/starford/terjecfg/internal/models"
)

// Format identifies which line model a file uses.
type Format string

// Supported formats.
const (
	FormatCFG Format = "cfg"
	FormatXML Format = "xml"
)

// MetadataLookup resolves setting metadata by dotted key.
type MetadataLookup interface {
	Lookup(key string) (models.Metadata, bool)
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cfg":
		return FormatCFG, nil
	case ".xml":
		return FormatXML, nil
	default:
		return "", fmt.Errorf("%w: %s", apperr.ErrUnsupportedFormat, path)
	}
}

// Supported reports whether path has an editable extension.
func Supported(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

// Content is a parsed file: exactly one of CFG or XML is set.
type Content struct {
	Format Format   `json:"format"`
	CFG    *CFGFile `json:"cfg,omitempty"`
	XML    *XMLFile `json:"xml,omitempty"`
}

// Parse dispatches text to the parser matching the extension of path.
func Parse(path, text string) (*Content, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCFG:
		return &Content{Format: FormatCFG, CFG: ParseCFG(text)}, nil
	default:
		xf, err := ParseXML(text)
		if err != nil {
			return nil, err
		}
		return &Content{Format: FormatXML, XML: xf}, nil
	}
}

// String prints the content back to text.
func (c *Content) String() string {
	if c.CFG != nil {
		return c.CFG.String()
	}
	if c.XML != nil {
		return c.XML.String()
	}
	return ""
}

// Clone returns a deep copy of c.
func (c *Content) Clone() *Content {
	out := &Content{Format: c.Format}
	if c.CFG != nil {
		out.CFG = c.CFG.Clone()
	}
	if c.XML != nil {
		out.XML = c.XML.Clone()
	}
	return out
}

// AttachMetadata annotates the content with catalog metadata.
func (c *Content) AttachMetadata(lookup MetadataLookup) {
	if c.CFG != nil {
		c.CFG.AttachMetadata(lookup)
	}
	if c.XML != nil {
		c.XML.AttachMetadata(lookup)
	}
}

// LineCount returns the number of addressable lines.
func (c *Content) LineCount() int {
	if c.CFG != nil {
		return len(c.CFG.Lines)
	}
	if c.XML != nil {
		return len(c.XML.Lines)
	}
	return 0
}
