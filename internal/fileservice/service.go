// Package fileservice coordinates parsing, editing, file storage and the
// version log for settings files.
package fileservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/starford/terjecfg/internal/apperr"
	"github.com/starford/terjecfg/internal/catalog"
	"github.com/starford/terjecfg/internal/checksum"
	"github.com/starford/terjecfg/internal/editor"
	"github.com/starford/terjecfg/internal/history"
	"github.com/starford/terjecfg/internal/models"
	"github.com/starford/terjecfg/internal/parser"
	"github.com/starford/terjecfg/internal/storage"
)

// Event kinds passed to the Notifier.
const (
	EventSaved    = "saved"
	EventRestored = "restored"
	EventChanged  = "changed"
)

// Notifier receives a message after every persisted change.
type Notifier interface {
	PublishFileEvent(kind, path string, versionID int64, opID string)
}

// FileDetail is a parsed file with metadata attached.
type FileDetail struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	*parser.Content
}

// SaveResult is the outcome of Save. Version is nil when nothing was written.
type SaveResult struct {
	Path     string           `json:"path"`
	Content  *parser.Content  `json:"content"`
	Outcomes []editor.Outcome `json:"outcomes"`
	Version  *history.Version `json:"version,omitempty"`
	OpID     string           `json:"opId"`
}

// Service coordinates storage, catalog and history operations.
type Service struct {
	store        storage.Provider
	catalog      catalog.Lookuper
	history      history.Store
	logger       *slog.Logger
	notifier     Notifier
	historyLimit int
	locks        keyedMutex
	newOpID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithNotifier sets the change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithHistoryLimit caps how many versions History returns.
func WithHistoryLimit(n int) Option {
	return func(s *Service) { s.historyLimit = n }
}

// New creates a file service. cat may be nil, in which case only inline
// metadata is attached.
func New(store storage.Provider, cat catalog.Lookuper, hist history.Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		catalog:      cat,
		history:      hist,
		logger:       slog.Default(),
		historyLimit: history.DefaultListLimit,
		newOpID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.Empty()
	}
	return s
}

// Tree returns the folder hierarchy with its .cfg and .xml files.
func (s *Service) Tree(_ context.Context) ([]*models.TreeNode, error) {
	return s.store.Tree()
}

// Files returns metadata for every editable file.
func (s *Service) Files(_ context.Context) ([]models.FileMeta, error) {
	return s.store.List("")
}

// Load reads and parses a file and attaches catalog metadata.
func (s *Service) Load(ctx context.Context, p string) (*FileDetail, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	if _, err := parser.FormatOf(p); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	content, err := s.parse(p, string(data))
	if err != nil {
		return nil, err
	}
	return &FileDetail{Path: p, Checksum: checksum.Sum(data), Content: content}, nil
}

func (s *Service) parse(p, text string) (*parser.Content, error) {
	content, err := parser.Parse(p, text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	content.AttachMetadata(s.catalog)
	return content, nil
}

// Save applies edits to the current file text. When at least one edit
// succeeds and the text changes, the file is written and a save version is
// committed. On-disk text that no version holds yet is recorded first, so
// the state before the edit stays restorable. Per-edit failures are reported
// in the outcomes, not as errors.
func (s *Service) Save(ctx context.Context, p string, edits []editor.Edit) (*SaveResult, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	if _, err := parser.FormatOf(p); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(p)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	current := string(data)
	content, err := s.parse(p, current)
	if err != nil {
		return nil, err
	}

	updated, outcomes := editor.Apply(content, edits)
	res := &SaveResult{Path: p, Content: updated, Outcomes: outcomes, OpID: s.newOpID()}

	applied := editor.Succeeded(outcomes)
	text := updated.String()
	if applied == 0 || text == current {
		s.logger.Debug("save: nothing to write",
			slog.String("path", p),
			slog.Int("edits", len(edits)),
			slog.Int("applied", applied))
		return res, nil
	}

	if _, err := s.snapshot(ctx, p, data); err != nil {
		return nil, err
	}
	if err := s.store.Write(p, []byte(text)); err != nil {
		return nil, err
	}
	v, err := s.history.Commit(ctx, history.Snapshot{
		Path:    p,
		Content: text,
		Source:  history.SourceSave,
		OpID:    res.OpID,
	})
	if err != nil {
		return nil, s.rollback(p, data, err)
	}
	res.Version = withoutContent(v)

	s.logger.Info("file saved",
		slog.String("path", p),
		slog.Int64("version", v.ID),
		slog.String("op_id", res.OpID),
		slog.Int("applied", applied),
		slog.Int("failed", len(edits)-applied))
	s.notify(EventSaved, p, v.ID, res.OpID)
	return res, nil
}

// History lists the most recent versions of a file, oldest first.
func (s *Service) History(ctx context.Context, p string) ([]history.Version, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	return s.history.List(ctx, p, s.historyLimit)
}

// Version returns a stored version including its content.
func (s *Service) Version(ctx context.Context, id int64) (*history.Version, error) {
	return s.history.Get(ctx, id)
}

// Restore writes the content of version id back to its file and records it
// as a new restore version. Version id itself is left untouched. If the
// restore version cannot be committed the file is put back as it was.
func (s *Service) Restore(ctx context.Context, id int64) (*history.Version, error) {
	src, err := s.history.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(src.Path)
	defer unlock()

	prev, err := s.store.Read(src.Path)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		prev = nil
	case err != nil:
		return nil, err
	default:
		if _, err := s.snapshot(ctx, src.Path, prev); err != nil {
			return nil, err
		}
	}

	opID := s.newOpID()
	if err := s.store.Write(src.Path, []byte(src.Content)); err != nil {
		return nil, err
	}
	v, err := s.history.Restore(ctx, id, opID)
	if err != nil {
		return nil, s.rollback(src.Path, prev, err)
	}

	s.logger.Info("version restored",
		slog.String("path", v.Path),
		slog.Int64("version", v.ID),
		slog.Int64("restored_from", id),
		slog.String("op_id", opID))
	s.notify(EventRestored, v.Path, v.ID, opID)
	return v, nil
}

// SearchHistory finds versions whose content contains query. An empty path
// searches every file.
func (s *Service) SearchHistory(ctx context.Context, query, p string, limit int) ([]history.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []history.SearchResult{}, nil
	}
	if p != "" {
		var err error
		if p, err = cleanPath(p); err != nil {
			return nil, err
		}
	}
	return s.history.Search(ctx, query, p, limit)
}

// Track snapshots the on-disk text of a file when it differs from the latest
// version. The first snapshot of a path is a baseline, later ones are
// external. It returns nil when the file is unchanged.
func (s *Service) Track(ctx context.Context, p string) (*history.Version, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	if !parser.Supported(p) {
		return nil, nil
	}

	unlock := s.locks.Lock(p)
	defer unlock()

	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, p, data)
}

// snapshot commits data as a version of p unless it matches the latest one.
// The caller holds the lock for p.
func (s *Service) snapshot(ctx context.Context, p string, data []byte) (*history.Version, error) {
	source := history.SourceExternal
	latest, err := s.history.Latest(ctx, p)
	switch {
	case errors.Is(err, apperr.ErrVersionNotFound):
		source = history.SourceBaseline
	case err != nil:
		return nil, err
	case latest.Checksum == checksum.Sum(data):
		return nil, nil
	}

	v, err := s.history.Commit(ctx, history.Snapshot{Path: p, Content: string(data), Source: source})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("file tracked",
		slog.String("path", p),
		slog.String("source", string(source)),
		slog.Int64("version", v.ID))
	if source == history.SourceExternal {
		s.notify(EventChanged, p, v.ID, "")
	}
	return withoutContent(v), nil
}

// rollback puts prev back at p after the version for a write could not be
// committed. A nil prev means p did not exist before the write.
func (s *Service) rollback(p string, prev []byte, cause error) error {
	var err error
	if prev == nil {
		err = s.store.Remove(p)
	} else {
		err = s.store.Write(p, prev)
	}
	if err != nil {
		s.logger.Error("rollback failed",
			slog.String("path", p),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()))
		return multierr.Append(cause, fmt.Errorf("rollback %s: %w", p, err))
	}
	s.logger.Warn("write rolled back", slog.String("path", p), slog.String("error", cause.Error()))
	return cause
}

func (s *Service) notify(kind, p string, versionID int64, opID string) {
	if s.notifier != nil {
		s.notifier.PublishFileEvent(kind, p, versionID, opID)
	}
}

func withoutContent(v *history.Version) *history.Version {
	cp := *v
	cp.Content = ""
	return &cp
}

// cleanPath normalizes a client-supplied path to the slash-separated form
// used as history key.
func cleanPath(p string) (string, error) {
	p = path.Clean(filepath.ToSlash(strings.TrimSpace(p)))
	if p == "." || p == "/" {
		return "", fmt.Errorf("empty path: %w", apperr.ErrInvalidPath)
	}
	return p, nil
}
