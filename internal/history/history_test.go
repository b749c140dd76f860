package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/starford/terjecfg/internal/apperr"
	"github.com/starford/terjecfg/internal/checksum"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "terjecfg-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func commit(t *testing.T, db *DB, path, content string, src Source) *Version {
	t.Helper()
	v, err := db.Commit(context.Background(), Snapshot{Path: path, Content: content, Source: src, OpID: "op"})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return v
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM versions`).Scan(&count); err != nil {
		t.Fatalf("versions table missing: %v", err)
	}
}

func TestCommitAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	v := commit(t, db, "Core.cfg", "A = 1;\n", SourceSave)
	if v.ID <= 0 {
		t.Fatalf("id = %d", v.ID)
	}
	if v.Checksum != checksum.Text("A = 1;\n") {
		t.Errorf("checksum = %q", v.Checksum)
	}

	got, err := db.Get(ctx, v.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "A = 1;\n" || got.Path != "Core.cfg" || got.Source != SourceSave || got.OpID != "op" {
		t.Errorf("Get = %+v", got)
	}
	if got.RestoredFrom != nil {
		t.Errorf("restoredFrom = %v, want nil", *got.RestoredFrom)
	}
	if got.CreatedAt.IsZero() {
		t.Error("createdAt not set")
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get(context.Background(), 999); !errors.Is(err, apperr.ErrVersionNotFound) {
		t.Errorf("err = %v, want ErrVersionNotFound", err)
	}
	if _, err := db.Latest(context.Background(), "nope.cfg"); !errors.Is(err, apperr.ErrVersionNotFound) {
		t.Errorf("Latest err = %v, want ErrVersionNotFound", err)
	}
}

func TestList_NewestLastWithLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		commit(t, db, "Core.cfg", fmt.Sprintf("A = %d;\n", i), SourceSave)
		commit(t, db, "Other.cfg", "B = 1;\n", SourceSave)
	}

	all, err := db.List(ctx, "Core.cfg", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Errorf("ids not increasing: %d then %d", all[i-1].ID, all[i].ID)
		}
	}
	for _, v := range all {
		if v.Content != "" {
			t.Error("list must not load content")
		}
	}

	recent, err := db.List(ctx, "Core.cfg", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recent) != 2 || recent[1].ID != all[4].ID || recent[0].ID != all[3].ID {
		t.Errorf("recent = %+v", recent)
	}

	empty, err := db.List(ctx, "missing.cfg", 10)
	if err != nil || len(empty) != 0 {
		t.Errorf("List(missing) = %v, %v", empty, err)
	}
}

func TestLatest(t *testing.T) {
	db := testDB(t)
	commit(t, db, "Core.cfg", "A = 1;\n", SourceBaseline)
	last := commit(t, db, "Core.cfg", "A = 2;\n", SourceSave)

	got, err := db.Latest(context.Background(), "Core.cfg")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != last.ID || got.Content != "A = 2;\n" {
		t.Errorf("Latest = %+v", got)
	}
}

func TestRestore_AppendsCopy(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	first := commit(t, db, "Core.cfg", "A = 1;\n", SourceBaseline)
	commit(t, db, "Core.cfg", "A = 2;\n", SourceSave)

	restored, err := db.Restore(ctx, first.ID, "op-restore")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Source != SourceRestore || restored.RestoredFrom == nil || *restored.RestoredFrom != first.ID {
		t.Errorf("restored = %+v", restored)
	}
	if restored.Content != "A = 1;\n" || restored.Path != "Core.cfg" || restored.OpID != "op-restore" {
		t.Errorf("restored = %+v", restored)
	}

	orig, err := db.Get(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if orig.Content != "A = 1;\n" || orig.Source != SourceBaseline {
		t.Errorf("original changed: %+v", orig)
	}

	list, _ := db.List(ctx, "Core.cfg", 0)
	if len(list) != 3 || list[2].ID != restored.ID {
		t.Errorf("list after restore = %+v", list)
	}
	if list[2].RestoredFrom == nil || *list[2].RestoredFrom != first.ID {
		t.Error("restoredFrom not listed")
	}
}

func TestRestore_UnknownID(t *testing.T) {
	db := testDB(t)
	if _, err := db.Restore(context.Background(), 42, ""); !errors.Is(err, apperr.ErrVersionNotFound) {
		t.Errorf("err = %v", err)
	}
	paths, _ := db.Paths(context.Background())
	if len(paths) != 0 {
		t.Errorf("failed restore wrote a version: %v", paths)
	}
}

func TestPaths(t *testing.T) {
	db := testDB(t)
	commit(t, db, "b.xml", "<b/>", SourceSave)
	commit(t, db, "a.cfg", "A = 1;", SourceSave)
	commit(t, db, "a.cfg", "A = 2;", SourceSave)

	paths, err := db.Paths(context.Background())
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if strings.Join(paths, ",") != "a.cfg,b.xml" {
		t.Errorf("paths = %v", paths)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	commit(t, db, "Core.cfg", "Core.DatabaseAutosaveInterval = 300;\n", SourceSave)
	commit(t, db, "Medicine.cfg", "Medicine.MindCanSuicide = 1;\n", SourceSave)

	results, err := db.Search(ctx, "MindCanSuicide", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "Medicine.cfg" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected snippet")
	}

	results, err = db.Search(ctx, "MindCanSuicide", "Core.cfg", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("path filter ignored: %+v", results)
	}
}
