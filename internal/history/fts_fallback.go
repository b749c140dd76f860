//go:build !sqlite_fts5

package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// likeEscaper makes LIKE wildcards in a query match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE scan over versions.content.
	return nil
}

func ftsInsert(_ context.Context, _ execer, _ int64, _, _ string) error {
	// Content is already stored in the versions table.
	return nil
}

// Search performs a LIKE-based content search (fallback when FTS5 is not
// compiled in). Matching is a case-insensitive substring test, as with LIKE
// on ASCII text. An empty path searches every file. Newest versions first.
func (db *DB) Search(ctx context.Context, query, path string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+versionColumns+`,
		       substr(content, max(1, instr(lower(content), lower(?)) - 40), 160)
		FROM versions
		WHERE content LIKE ? ESCAPE '\' AND (? = '' OR path = ?)
		ORDER BY id DESC
		LIMIT ?
	`, query, like, path, path, limit)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}
