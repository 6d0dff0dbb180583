package dictionary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/heartmarshall/synonyms-backend/internal/dico"
	"github.com/heartmarshall/synonyms-backend/internal/dicofile"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// Import replaces the dictionary with the one read from r. The new
// dictionary is built without holding the lock; readers keep seeing the old
// one until the swap. On error the current dictionary is kept.
func (s *Service) Import(ctx context.Context, r io.Reader) (dicofile.Stats, error) {
	start := time.Now()

	d, res, err := dicofile.Load(r)
	s.metrics.ObserveOperation("import", err, time.Since(start))
	if err != nil {
		s.log.WarnContext(ctx, "import failed", slog.String("error", err.Error()))
		return res.Stats, err
	}

	s.swap(d)
	s.log.InfoContext(ctx, "dictionary imported",
		slog.Int("radicals", d.Len()),
		slog.Int("groups", d.GroupCount()),
		slog.Int("lines", res.Stats.TotalLines),
		slog.Duration("duration", time.Since(start)),
	)
	return res.Stats, nil
}

// Export writes the dictionary in text format.
func (s *Service) Export(_ context.Context, w io.Writer) error {
	snap := s.snapshot("export")
	if err := dicofile.Write(w, snap); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Save persists the current dictionary as a new revision.
func (s *Service) Save(ctx context.Context) (domain.Revision, error) {
	if s.repo == nil {
		return domain.Revision{}, ErrPersistenceDisabled
	}

	start := time.Now()
	snap := s.snapshot("snapshot")

	rev, err := s.repo.Save(ctx, snap)
	s.metrics.ObserveOperation("save", err, time.Since(start))
	if err != nil {
		s.log.ErrorContext(ctx, "save dictionary", slog.String("error", err.Error()))
		return domain.Revision{}, fmt.Errorf("save snapshot: %w", err)
	}

	s.log.InfoContext(ctx, "dictionary saved",
		slog.String("revision", rev.ID.String()),
		slog.Int("radicals", rev.Radicals),
		slog.Int("groups", rev.Groups),
	)
	return rev, nil
}

// Restore replaces the dictionary with the last saved revision. When no
// revision exists the error wraps domain.ErrNotFound and the current
// dictionary is kept.
func (s *Service) Restore(ctx context.Context) (domain.Revision, error) {
	if s.repo == nil {
		return domain.Revision{}, ErrPersistenceDisabled
	}

	start := time.Now()
	rev, d, err := s.load(ctx)
	s.metrics.ObserveOperation("restore", err, time.Since(start))
	if err != nil {
		s.log.LogAttrs(ctx, levelFor(err), "restore dictionary", slog.String("error", err.Error()))
		return domain.Revision{}, err
	}

	s.swap(d)
	s.log.InfoContext(ctx, "dictionary restored",
		slog.String("revision", rev.ID.String()),
		slog.Int("radicals", d.Len()),
		slog.Int("groups", d.GroupCount()),
	)
	return rev, nil
}

func (s *Service) load(ctx context.Context) (domain.Revision, *dico.Dictionary, error) {
	rev, err := s.repo.LatestRevision(ctx)
	if err != nil {
		return domain.Revision{}, nil, fmt.Errorf("latest revision: %w", err)
	}
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Revision{}, nil, fmt.Errorf("load snapshot: %w", err)
	}
	d, err := dico.FromSnapshot(snap)
	if err != nil {
		return domain.Revision{}, nil, err
	}
	return rev, d, nil
}

// snapshot copies the dictionary under the read lock.
func (s *Service) snapshot(op string) domain.Snapshot {
	var snap domain.Snapshot
	_ = s.read(op, func(d *dico.Dictionary) error {
		snap = d.Snapshot()
		return nil
	})
	return snap
}
