package dictionary

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/synonyms-backend/internal/config"
	"github.com/heartmarshall/synonyms-backend/internal/dico"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// ErrPersistenceDisabled is returned by Save and Restore when no snapshot
// repository is configured.
var ErrPersistenceDisabled = errors.New("persistence is disabled")

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type snapshotRepo interface {
	Save(ctx context.Context, snap domain.Snapshot) (domain.Revision, error)
	Load(ctx context.Context) (domain.Snapshot, error)
	LatestRevision(ctx context.Context) (domain.Revision, error)
}

type metricsRecorder interface {
	ObserveOperation(op string, err error, elapsed time.Duration)
	SetSize(s domain.DictionaryStats)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service owns the in-memory dictionary and serialises access to it: one
// writer at a time, any number of concurrent readers.
type Service struct {
	log     *slog.Logger
	repo    snapshotRepo
	metrics metricsRecorder
	cfg     config.DictionaryConfig

	mu   sync.RWMutex
	dict *dico.Dictionary
}

// NewService creates a Service over an empty dictionary. repo may be nil
// when persistence is disabled; metrics may be nil.
func NewService(
	logger *slog.Logger,
	repo snapshotRepo,
	metrics metricsRecorder,
	cfg config.DictionaryConfig,
) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	s := &Service{
		log:     logger.With("service", "dictionary"),
		repo:    repo,
		metrics: metrics,
		cfg:     cfg,
		dict:    dico.New(),
	}
	s.metrics.SetSize(s.dict.Stats())
	return s
}

// Persistent reports whether Save and Restore are available.
func (s *Service) Persistent() bool { return s.repo != nil }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// write runs fn under the write lock and records the operation.
func (s *Service) write(ctx context.Context, op string, fn func(d *dico.Dictionary) error, attrs ...slog.Attr) error {
	start := time.Now()

	s.mu.Lock()
	err := fn(s.dict)
	size := sizeOf(s.dict)
	s.mu.Unlock()

	s.metrics.ObserveOperation(op, err, time.Since(start))
	if err != nil {
		s.log.LogAttrs(ctx, levelFor(err), op+" failed",
			append(attrs, slog.String("error", err.Error()))...)
		return err
	}

	s.metrics.SetSize(size)
	s.log.LogAttrs(ctx, slog.LevelDebug, op, attrs...)
	return nil
}

// read runs fn under the read lock and records the operation.
func (s *Service) read(op string, fn func(d *dico.Dictionary) error) error {
	start := time.Now()

	s.mu.RLock()
	err := fn(s.dict)
	s.mu.RUnlock()

	s.metrics.ObserveOperation(op, err, time.Since(start))
	return err
}

// swap replaces the whole dictionary.
func (s *Service) swap(d *dico.Dictionary) {
	s.mu.Lock()
	s.dict = d
	size := sizeOf(d)
	s.mu.Unlock()

	s.metrics.SetSize(size)
}

// sizeOf returns the O(1) part of the stats; the balance check walks the
// whole tree and is left to Stats.
func sizeOf(d *dico.Dictionary) domain.DictionaryStats {
	return domain.DictionaryStats{
		Radicals: d.Len(),
		Groups:   d.GroupCount(),
		Height:   d.Height(),
	}
}

// levelFor logs caller mistakes at debug and everything else at warn.
func levelFor(err error) slog.Level {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyExists):
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, error, time.Duration) {}
func (noopMetrics) SetSize(domain.DictionaryStats)                {}
