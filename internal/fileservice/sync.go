package fileservice

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"
)

// Baseline walks the settings directory and tracks every file, so that the
// state before the first edit is always restorable. Per-file failures are
// logged and joined; the walk continues past them.
func (s *Service) Baseline(ctx context.Context) (int, error) {
	metas, err := s.store.List("")
	if err != nil {
		return 0, err
	}

	var (
		errs    error
		tracked int
	)
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return tracked, multierr.Append(errs, err)
		}
		v, err := s.Track(ctx, m.Path)
		if err != nil {
			s.logger.Warn("baseline: track failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", m.Path, err))
			continue
		}
		if v != nil {
			tracked++
			s.logger.Debug("baseline: tracked", slog.String("path", m.Path), slog.String("source", string(v.Source)))
		}
	}
	return tracked, errs
}
