package parser

import (
	"errors"
	"testing"

	"github.com/starford/terjecfg/internal/apperr"
)

func TestFormatOf(t *testing.T) {
	cases := map[string]Format{
		"Core.cfg":         FormatCFG,
		"dir/Items.XML":    FormatXML,
		"a/b/Medicine.Cfg": FormatCFG,
	}
	for path, want := range cases {
		got, err := FormatOf(path)
		if err != nil || got != want {
			t.Errorf("FormatOf(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatOf("notes.txt"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("FormatOf(txt) err = %v", err)
	}
}

func TestParse_DispatchByExtension(t *testing.T) {
	// Extension decides the format, not the content.
	c, err := Parse("Looks.cfg", "<xml>not really</xml>\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Format != FormatCFG || c.CFG == nil || c.XML != nil {
		t.Errorf("content = %+v", c)
	}

	c, err = Parse("Items.xml", "<a x=\"1\"/>\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Format != FormatXML || c.XML == nil || c.LineCount() != 1 {
		t.Errorf("content = %+v", c)
	}

	if _, err := Parse("Broken.xml", "<a>\n"); err == nil {
		t.Error("expected structural error")
	}
}

func TestContentClone(t *testing.T) {
	c, err := Parse("Items.xml", "<a x=\"1\"/>\n")
	if err != nil {
		t.Fatal(err)
	}
	cp := c.Clone()
	cp.XML.Lines[0].SetSegmentValue(1, "2")
	if c.String() != "<a x=\"1\"/>\n" {
		t.Errorf("original changed: %q", c.String())
	}
	if cp.String() != "<a x=\"2\"/>\n" {
		t.Errorf("clone = %q", cp.String())
	}
}
