package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/starford/terjecfg/internal/apperr"
	"github.com/starford/terjecfg/internal/models"
)

func tempSettings(t *testing.T, opts ...Option) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir, opts...)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempSettings(t)
	content := []byte("Core.DatabaseAutosaveInterval = 300;\n")
	if err := s.Write("Core.cfg", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("Core.cfg")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempSettings(t)
	if err := s.Write("a/b/c.xml", []byte("<c/>")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.xml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "<c/>" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteKeepsMode(t *testing.T) {
	s := tempSettings(t)
	abs := filepath.Join(s.Root(), "ro.cfg")
	if err := os.WriteFile(abs, []byte("A = 1;"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("ro.cfg", []byte("A = 2;")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestRead_NotFound(t *testing.T) {
	s := tempSettings(t)
	if _, err := s.Read("missing.cfg"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	s := tempSettings(t)
	if err := s.Write("gone.cfg", []byte("A = 1;")); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("gone.cfg"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Read("gone.cfg"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("after remove err = %v, want ErrNotFound", err)
	}
	if err := s.Remove("gone.cfg"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
	if err := s.Remove("../escape.cfg"); err == nil {
		t.Error("expected traversal error")
	}
}

func TestList(t *testing.T) {
	s := tempSettings(t)
	_ = s.Write("Core.cfg", []byte("a"))
	_ = s.Write("sub/Items.xml", []byte("<b/>"))
	_ = s.Write("readme.txt", []byte("not editable"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
		if it.Checksum == "" {
			t.Errorf("%s: empty checksum", it.Path)
		}
	}
	sort.Strings(paths)
	if strings.Join(paths, ",") != "Core.cfg,sub/Items.xml" {
		t.Errorf("paths = %v", paths)
	}
}

type prefixFilter string

func (p prefixFilter) ShouldIgnore(rel string, _ bool) bool {
	return strings.HasPrefix(rel, string(p))
}

func TestTree(t *testing.T) {
	s := tempSettings(t, WithFilter(prefixFilter("backup")))
	_ = s.Write("Core.cfg", []byte("a"))
	_ = s.Write("Items/Food.xml", []byte("<f/>"))
	_ = s.Write("Items/notes.txt", []byte("x"))
	_ = s.Write("backup/Core.cfg", []byte("old"))
	if err := os.MkdirAll(filepath.Join(s.Root(), "Empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	nodes, err := s.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	// os.ReadDir sorts by name.
	want := []*models.TreeNode{
		{Name: "Core.cfg", Path: "Core.cfg", Type: models.NodeFile},
		{Name: "Empty", Path: "Empty", Type: models.NodeFolder, Children: []*models.TreeNode{}},
		{Name: "Items", Path: "Items", Type: models.NodeFolder, Children: []*models.TreeNode{
			{Name: "Food.xml", Path: "Items/Food.xml", Type: models.NodeFile},
		}},
	}
	if len(nodes) != len(want) {
		t.Fatalf("nodes = %d, want %d", len(nodes), len(want))
	}
	for i, w := range want {
		n := nodes[i]
		if n.Name != w.Name || n.Path != w.Path || n.Type != w.Type || len(n.Children) != len(w.Children) {
			t.Errorf("node %d = %+v, want %+v", i, n, w)
		}
	}
	if nodes[2].Children[0].Path != "Items/Food.xml" {
		t.Errorf("child = %+v", nodes[2].Children[0])
	}

	items, _ := s.List("")
	for _, it := range items {
		if strings.HasPrefix(it.Path, "backup") {
			t.Errorf("filtered path listed: %s", it.Path)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempSettings(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.cfg",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Read(%q) err = %v, want ErrInvalidPath", p, err)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempSettings(t)
	_ = s.Write("atomic.cfg", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.cfg", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.cfg")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	// Confirm no leftover temp files.
	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "terjecfg-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
