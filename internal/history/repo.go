package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/starford/terjecfg/internal/apperr"
	"github.com/starford/terjecfg/internal/checksum"
)

const versionColumns = `id, path, checksum, source, op_id, restored_from, created_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Commit appends a new version.
func (db *DB) Commit(ctx context.Context, s Snapshot) (*Version, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	v, err := insertVersion(ctx, tx, s, nil)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("history: commit: %w", err)
	}
	return v, nil
}

// Restore copies version id into a new version of the same path. The
// original row is left untouched.
func (db *DB) Restore(ctx context.Context, id int64, opID string) (*Version, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	src, err := scanVersion(tx.QueryRowContext(ctx,
		`SELECT `+versionColumns+`, content FROM versions WHERE id = ?`, id), true)
	if err != nil {
		return nil, err
	}

	v, err := insertVersion(ctx, tx, Snapshot{
		Path:    src.Path,
		Content: src.Content,
		Source:  SourceRestore,
		OpID:    opID,
	}, &id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("history: commit: %w", err)
	}
	return v, nil
}

func insertVersion(ctx context.Context, tx *sql.Tx, s Snapshot, restoredFrom *int64) (*Version, error) {
	v := &Version{
		Path:         s.Path,
		Checksum:     checksum.Text(s.Content),
		Source:       s.Source,
		OpID:         s.OpID,
		RestoredFrom: restoredFrom,
		CreatedAt:    time.Now().UTC(),
		Content:      s.Content,
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO versions (path, checksum, source, op_id, restored_from, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, v.Path, v.Checksum, string(v.Source), v.OpID, restoredFrom, v.Content, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("history: insert version: %w", err)
	}
	v.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("history: last insert id: %w", err)
	}
	// FTS insert (no-op when FTS5 tag is absent).
	if err := ftsInsert(ctx, tx, v.ID, v.Path, v.Content); err != nil {
		return nil, err
	}
	return v, nil
}

// List returns the most recent limit versions of path, oldest first.
func (db *DB) List(ctx context.Context, path string, limit int) ([]Version, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+versionColumns+` FROM versions
		WHERE path = ?
		ORDER BY id DESC
		LIMIT ?
	`, path, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	out := make([]Version, 0)
	for rows.Next() {
		v, err := scanVersion(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// Get returns version id including its content.
func (db *DB) Get(ctx context.Context, id int64) (*Version, error) {
	return scanVersion(db.conn.QueryRowContext(ctx,
		`SELECT `+versionColumns+`, content FROM versions WHERE id = ?`, id), true)
}

// Latest returns the most recent version of path including its content.
func (db *DB) Latest(ctx context.Context, path string) (*Version, error) {
	return scanVersion(db.conn.QueryRowContext(ctx,
		`SELECT `+versionColumns+`, content FROM versions WHERE path = ? ORDER BY id DESC LIMIT 1`, path), true)
}

// Paths returns every path with at least one version.
func (db *DB) Paths(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT path FROM versions ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("history: paths: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner, withContent bool) (*Version, error) {
	var (
		v            Version
		source       string
		restoredFrom sql.NullInt64
	)
	dest := []any{&v.ID, &v.Path, &v.Checksum, &source, &v.OpID, &restoredFrom, &v.CreatedAt}
	if withContent {
		dest = append(dest, &v.Content)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrVersionNotFound
		}
		return nil, fmt.Errorf("history: scan version: %w", err)
	}
	v.Source = Source(source)
	if restoredFrom.Valid {
		id := restoredFrom.Int64
		v.RestoredFrom = &id
	}
	return &v, nil
}
