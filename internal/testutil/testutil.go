// Package testutil provides shared test helpers for setting up settings
// directories and version databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/terjecfg/internal/history"
	"github.com/starford/terjecfg/internal/storage"
)

// TestDB creates a temporary history database that is automatically cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "terjecfg-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSettings creates a temporary settings directory with a storage.Provider.
func TestSettings(t *testing.T, opts ...storage.Option) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content to rel under dir, creating parent folders.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of rel under dir.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// CoreCFG is a small Core.cfg in the layout the game server ships.
const CoreCFG = "// Terje Core settings\n" +
	"Core.DatabaseAutosaveInterval = 300; // [type: int; default: 300] Autosave interval\n" +
	"Core.WaterDrainFromVomit = 70;\n" +
	"Custom.Unknown = abc;\n"

// ItemsXML is a small nested XML settings file.
const ItemsXML = "<Items>\n" +
	"  <!-- food -->\n" +
	"  <Item name=\"Apple\" price=\"5\"/>\n" +
	"  <Item name=\"Knife\" price=\"25\"/>\n" +
	"</Items>\n"
