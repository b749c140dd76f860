//go:build !sqlite_fts5

package history

import (
	"context"
	"strings"
	"testing"
)

func TestSearch_WildcardsMatchLiterally(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	commit(t, db, "Core.cfg", "Core.AxB = 1;\n", SourceSave)
	commit(t, db, "Other.cfg", "Core.A_B = 1;\n", SourceSave)
	commit(t, db, "Rates.cfg", "Rates.Loot = 50%;\n", SourceSave)

	results, err := db.Search(ctx, "A_B", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "Other.cfg" {
		t.Errorf("underscore results = %+v", results)
	}

	results, err = db.Search(ctx, "%", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "Rates.cfg" {
		t.Errorf("percent results = %+v", results)
	}

	results, err = db.Search(ctx, `\`, "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("backslash results = %+v", results)
	}
}

func TestSearch_SnippetIgnoresCase(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	content := strings.Repeat("// filler comment line\n", 20) + "Medicine.MindCanSuicide = 1;\n"
	commit(t, db, "Medicine.cfg", content, SourceSave)

	results, err := db.Search(ctx, "mindcansuicide", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(results[0].Snippet, "MindCanSuicide") {
		t.Errorf("snippet %q does not contain the match", results[0].Snippet)
	}
}
