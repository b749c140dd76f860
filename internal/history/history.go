package history

import (
	"context"
	"time"
)

// Source records what produced a version.
type Source string

// Version sources.
const (
	SourceSave     Source = "save"
	SourceRestore  Source = "restore"
	SourceBaseline Source = "baseline"
	SourceExternal Source = "external"
)

// DefaultListLimit is used when List is called without a positive limit.
const DefaultListLimit = 20

// Version is one immutable snapshot of a file. Content is empty in listings.
type Version struct {
	ID           int64     `json:"id"`
	Path         string    `json:"path"`
	Checksum     string    `json:"checksum"`
	Source       Source    `json:"source"`
	OpID         string    `json:"opId,omitempty"`
	RestoredFrom *int64    `json:"restoredFrom,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Content      string    `json:"content,omitempty"`
}

// Snapshot is the input of Commit.
type Snapshot struct {
	Path    string
	Content string
	Source  Source
	OpID    string
}

// SearchResult is one version whose content matched a search.
type SearchResult struct {
	Version
	Snippet string `json:"snippet"`
}

// Store defines the version-log operations. Consumers should depend on this
// interface rather than on *DB.
type Store interface {
	Commit(ctx context.Context, s Snapshot) (*Version, error)
	List(ctx context.Context, path string, limit int) ([]Version, error)
	Get(ctx context.Context, id int64) (*Version, error)
	Latest(ctx context.Context, path string) (*Version, error)
	Restore(ctx context.Context, id int64, opID string) (*Version, error)
	Search(ctx context.Context, query, path string, limit int) ([]SearchResult, error)
	Paths(ctx context.Context) ([]string, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
