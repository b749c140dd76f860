//go:build sqlite_fts5

package history

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS versions_fts USING fts5(
			path UNINDEXED,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(ctx context.Context, tx execer, id int64, path, content string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO versions_fts (rowid, path, content) VALUES (?, ?, ?)`,
		id, path, content)
	if err != nil {
		return fmt.Errorf("history: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search over version contents. An empty
// path searches every file.
func (db *DB) Search(ctx context.Context, query, path string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT v.id, v.path, v.checksum, v.source, v.op_id, v.restored_from, v.created_at,
		       snippet(versions_fts, 1, '<b>', '</b>', '...', 32)
		FROM versions_fts
		JOIN versions v ON v.id = versions_fts.rowid
		WHERE versions_fts MATCH ? AND (? = '' OR v.path = ?)
		ORDER BY rank
		LIMIT ?
	`, query, path, path, limit)
	if err != nil {
		return nil, fmt.Errorf("history: search: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}
