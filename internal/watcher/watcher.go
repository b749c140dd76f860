// Package watcher follows edits made to settings files outside the service
// and records them in the version log.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/terjecfg/internal/apperr"
	"github.com/starford/terjecfg/internal/history"
	"github.com/starford/terjecfg/internal/parser"
)

// Event kinds reported to the callback.
const (
	KindCreated = "created"
	KindRemoved = "removed"
)

// DefaultDebounce is the quiet period before changed files are tracked.
const DefaultDebounce = 200 * time.Millisecond

// Tracker snapshots a file when its content changed.
type Tracker interface {
	Track(ctx context.Context, path string) (*history.Version, error)
}

// IgnoreChecker hides paths from the watcher.
type IgnoreChecker interface {
	ShouldIgnoreAbs(abs string, isDir bool) bool
}

// EventCallback is called when a file appears or disappears. path is
// slash-separated and relative to the root.
type EventCallback func(kind string, path string)

// Options configures Watch.
type Options struct {
	Root     string
	Tracker  Tracker
	Ignore   IgnoreChecker
	Logger   *slog.Logger
	OnEvent  EventCallback
	Debounce time.Duration
}

type state struct {
	Options
	w       *fsnotify.Watcher
	known   map[string]struct{}
	pending map[string]struct{}
}

// Watch starts an fsnotify watcher on the settings root and tracks changed
// .cfg and .xml files until ctx is cancelled. Bursts of writes to the same
// file are collapsed into one Track call.
//
// New directories created at runtime are added to the watch list. A change
// to the root .gitignore reloads the ignore rules when Ignore supports it.
func Watch(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	s := &state{
		Options: opts,
		w:       w,
		known:   make(map[string]struct{}),
		pending: make(map[string]struct{}),
	}
	if err := s.addDir(opts.Root, false); err != nil {
		return err
	}

	opts.Logger.Info("watcher: started", slog.String("root", opts.Root))

	timer := time.NewTimer(opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			opts.Logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			s.flush(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if s.handle(ev) {
				timer.Reset(opts.Debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle processes one event and reports whether a flush should be scheduled.
func (s *state) handle(ev fsnotify.Event) bool {
	abs := ev.Name
	rel, err := filepath.Rel(s.Root, abs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if rel == ".gitignore" {
		if r, ok := s.Ignore.(interface{ Reload() }); ok {
			r.Reload()
			s.Logger.Info("watcher: ignore rules reloaded")
		}
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
			if s.ignored(abs, true) {
				return false
			}
			if addErr := s.addDir(abs, true); addErr != nil {
				s.Logger.Warn("watcher: add new dir failed",
					slog.String("path", rel),
					slog.String("error", addErr.Error()))
			} else {
				s.Logger.Debug("watcher: watching new dir", slog.String("path", rel))
			}
			return len(s.pending) > 0
		}
	}

	if !parser.Supported(abs) || s.ignored(abs, false) {
		return false
	}

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		s.see(rel)
		s.pending[rel] = struct{}{}
		return true

	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		// fsnotify reports Rename on the old path only; the new path arrives
		// as a Create.
		delete(s.pending, rel)
		if _, ok := s.known[rel]; ok {
			delete(s.known, rel)
			s.Logger.Debug("watcher: removed", slog.String("path", rel))
			s.emit(KindRemoved, rel)
		}
	}
	return false
}

func (s *state) flush(ctx context.Context) {
	for rel := range s.pending {
		delete(s.pending, rel)
		v, err := s.Tracker.Track(ctx, rel)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			continue
		case err != nil:
			s.Logger.Warn("watcher: track failed", slog.String("path", rel), slog.String("error", err.Error()))
		case v != nil:
			s.Logger.Info("watcher: external change recorded",
				slog.String("path", rel),
				slog.Int64("version", v.ID),
				slog.String("source", string(v.Source)))
		}
	}
}

// see records rel as present and reports a creation the first time.
func (s *state) see(rel string) {
	if _, ok := s.known[rel]; ok {
		return
	}
	s.known[rel] = struct{}{}
	s.emit(KindCreated, rel)
}

func (s *state) emit(kind, rel string) {
	if s.OnEvent != nil {
		s.OnEvent(kind, rel)
	}
}

func (s *state) ignored(abs string, isDir bool) bool {
	return s.Ignore != nil && abs != s.Root && s.Ignore.ShouldIgnoreAbs(abs, isDir)
}

// addDir watches dir and every non-ignored subdirectory. Files found are
// remembered; when fresh is set they are reported as created and queued.
func (s *state) addDir(dir string, fresh bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if s.ignored(p, true) {
				return filepath.SkipDir
			}
			return s.w.Add(p)
		}
		if !parser.Supported(p) || s.ignored(p, false) {
			return nil
		}
		rel, relErr := filepath.Rel(s.Root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if fresh {
			s.see(rel)
			s.pending[rel] = struct{}{}
		} else {
			s.known[rel] = struct{}{}
		}
		return nil
	})
}
