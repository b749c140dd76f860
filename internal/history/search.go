package history

import (
	"database/sql"
	"fmt"
)

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	out := make([]SearchResult, 0)
	for rows.Next() {
		var (
			r            SearchResult
			source       string
			restoredFrom sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Path, &r.Checksum, &source, &r.OpID, &restoredFrom, &r.CreatedAt, &r.Snippet); err != nil {
			return nil, fmt.Errorf("history: scan result: %w", err)
		}
		r.Source = Source(source)
		if restoredFrom.Valid {
			id := restoredFrom.Int64
			r.RestoredFrom = &id
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
