//go:build sqlite_fts5

package history

import (
	"context"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM versions_fts`).Scan(&count); err != nil {
		t.Fatalf("versions_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	commit(t, db, "Skills.cfg", "Skills.SurvLifetimeOffset = 3600; // survival experience tick\n", SourceSave)

	results, err := db.Search(context.Background(), "survival", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "Skills.cfg" {
		t.Errorf("path = %q", results[0].Path)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_RestoreIsSearchable(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	first := commit(t, db, "Core.cfg", "alpha", SourceSave)
	commit(t, db, "Core.cfg", "beta", SourceSave)
	if _, err := db.Restore(ctx, first.ID, ""); err != nil {
		t.Fatal(err)
	}

	results, _ := db.Search(ctx, "alpha", "", 10)
	if len(results) != 2 {
		t.Errorf("expected original and restored version, got %+v", results)
	}
}
