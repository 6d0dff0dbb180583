package dictionary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/synonyms-backend/internal/config"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockSnapshotRepo struct {
	SaveFunc           func(ctx context.Context, snap domain.Snapshot) (domain.Revision, error)
	LoadFunc           func(ctx context.Context) (domain.Snapshot, error)
	LatestRevisionFunc func(ctx context.Context) (domain.Revision, error)
}

func (m *mockSnapshotRepo) Save(ctx context.Context, snap domain.Snapshot) (domain.Revision, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, snap)
	}
	return domain.Revision{ID: uuid.New(), Radicals: len(snap.Radicals), Groups: len(snap.Groups)}, nil
}

func (m *mockSnapshotRepo) Load(ctx context.Context) (domain.Snapshot, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return domain.Snapshot{}, domain.ErrNotFound
}

func (m *mockSnapshotRepo) LatestRevision(ctx context.Context) (domain.Revision, error) {
	if m.LatestRevisionFunc != nil {
		return m.LatestRevisionFunc(ctx)
	}
	return domain.Revision{}, domain.ErrNotFound
}

type observedOp struct {
	op  string
	err bool
}

type mockMetrics struct {
	mu    sync.Mutex
	ops   []observedOp
	sizes []domain.DictionaryStats
}

func (m *mockMetrics) ObserveOperation(op string, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, observedOp{op: op, err: err != nil})
}

func (m *mockMetrics) SetSize(s domain.DictionaryStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizes = append(m.sizes, s)
}

func (m *mockMetrics) last() domain.DictionaryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sizes[len(m.sizes)-1]
}

// ===========================================================================
// Helpers
// ===========================================================================

func defaultCfg() config.DictionaryConfig {
	return config.DictionaryConfig{MaxWordLength: 20, SaveOnShutdown: true}
}

type testDeps struct {
	repo    *mockSnapshotRepo
	metrics *mockMetrics
}

func newTestService(cfg config.DictionaryConfig) (*Service, *testDeps) {
	deps := &testDeps{
		repo:    &mockSnapshotRepo{},
		metrics: &mockMetrics{},
	}
	svc := NewService(slog.Default(), deps.repo, deps.metrics, cfg)
	return svc, deps
}

func ptrInt(i int) *int { return &i }

const seed = `rapide
rapides rapidement
vite

lent
lentement
$
rapide vite
`

func seededService(t *testing.T) (*Service, *testDeps) {
	t.Helper()
	svc, deps := newTestService(defaultCfg())
	_, err := svc.Import(context.Background(), strings.NewReader(seed))
	require.NoError(t, err)
	return svc, deps
}

// ===========================================================================
// 1. Mutations
// ===========================================================================

func TestService_AddRadical_Normalizes(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())
	ctx := context.Background()

	require.NoError(t, svc.AddRadical(ctx, "  Rapide "))

	assert.Equal(t, []string{"rapide"}, svc.Radicals(ctx))
	assert.Equal(t, 1, deps.metrics.last().Radicals)
}

func TestService_AddRadical_Validation(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(defaultCfg())
	ctx := context.Background()

	tests := []struct {
		name string
		word string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"two words", "pomme de"},
		{"too long", strings.Repeat("a", 21)},
	}
	for _, tt := range tests {
		err := svc.AddRadical(ctx, tt.word)
		require.ErrorIs(t, err, domain.ErrValidation, tt.name)
	}

	assert.Empty(t, svc.Radicals(ctx))
	assert.Empty(t, deps.metrics.ops, "validation happens before the dictionary is touched")
}

func TestService_AddRadical_LengthCountsRunes(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(config.DictionaryConfig{MaxWordLength: 5})

	require.NoError(t, svc.AddRadical(context.Background(), "été"))
	require.NoError(t, svc.AddRadical(context.Background(), "éééée"))
}

func TestService_AddRadical_Duplicate(t *testing.T) {
	t.Parallel()
	svc, deps := seededService(t)

	err := svc.AddRadical(context.Background(), "rapide")
	require.ErrorIs(t, err, domain.ErrDuplicateKey)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Contains(t, deps.metrics.ops, observedOp{op: "add_radical", err: true})
}

func TestService_Flexions(t *testing.T) {
	t.Parallel()
	svc, _ := seededService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddFlexion(ctx, "vite", "VITES"))
	flex, err := svc.Flexions(ctx, "vite")
	require.NoError(t, err)
	assert.Equal(t, []string{"vites"}, flex)

	require.ErrorIs(t, svc.AddFlexion(ctx, "vite", "vites"), domain.ErrDuplicateFlexion)
	require.NoError(t, svc.RemoveFlexion(ctx, "vite", "vites"))
	require.ErrorIs(t, svc.RemoveFlexion(ctx, "vite", "vites"), domain.ErrFlexionNotFound)
	require.ErrorIs(t, svc.AddFlexion(ctx, "absent", "x"), domain.ErrKeyNotFound)
	require.ErrorIs(t, svc.AddFlexion(ctx, "vite", ""), domain.ErrValidation)
}

func TestService_AddSynonym(t *testing.T) {
	t.Parallel()
	svc, deps := seededService(t)
	ctx := context.Background()

	g, err := svc.AddSynonym(ctx, AddSynonymInput{Radical: "rapide", Synonym: "Prompt", Group: ptrInt(0)})
	require.NoError(t, err)
	assert.Equal(t, domain.GroupID(0), g)

	g, err = svc.AddSynonym(ctx, AddSynonymInput{Radical: "lent", Synonym: "mou"})
	require.NoError(t, err)
	assert.Equal(t, domain.GroupID(1), g)

	members, err := svc.Synonyms(ctx, "rapide", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"vite", "prompt"}, members)

	last := deps.metrics.last()
	assert.Equal(t, 2, last.Groups)
	assert.Equal(t, 5, last.Radicals)
}

func TestService_AddSynonym_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input AddSynonymInput
		want  error
	}{
		{"missing radical", AddSynonymInput{Synonym: "x"}, domain.ErrValidation},
		{"negative group", AddSynonymInput{Radical: "rapide", Synonym: "x", Group: ptrInt(-1)}, domain.ErrValidation},
		{"self synonym", AddSynonymInput{Radical: "rapide", Synonym: "RAPIDE"}, domain.ErrValidation},
		{"unknown radical", AddSynonymInput{Radical: "absent", Synonym: "x"}, domain.ErrKeyNotFound},
		{"unknown group", AddSynonymInput{Radical: "rapide", Synonym: "x", Group: ptrInt(9)}, domain.ErrInvalidGroupID},
		{"duplicate", AddSynonymInput{Radical: "rapide", Synonym: "vite"}, domain.ErrDuplicateSynonym},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := seededService(t)

			g, err := svc.AddSynonym(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, domain.NewGroup, g)
			assert.Equal(t, 1, svc.Stats(context.Background()).Groups)
		})
	}
}

func TestService_RemoveSynonym_CompactsGroups(t *testing.T) {
	t.Parallel()
	svc, _ := seededService(t)
	ctx := context.Background()

	_, err := svc.AddSynonym(ctx, AddSynonymInput{Radical: "lent", Synonym: "mou"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveSynonym(ctx, RemoveSynonymInput{Radical: "rapide", Synonym: "vite", Group: 0}))

	n, err := svc.SenseCount(ctx, "rapide")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	senses, err := svc.Senses(ctx, "lent")
	require.NoError(t, err)
	require.Len(t, senses, 1)
	assert.Equal(t, domain.GroupID(0), senses[0].Group)

	err = svc.RemoveSynonym(ctx, RemoveSynonymInput{Radical: "rapide", Synonym: "vite", Group: -1})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_RemoveRadical(t *testing.T) {
	t.Parallel()
	svc, _ := seededService(t)
	ctx := context.Background()

	require.NoError(t, svc.RemoveRadical(ctx, "vite"))
	require.ErrorIs(t, svc.RemoveRadical(ctx, "vite"), domain.ErrKeyNotFound)

	assert.Equal(t, []string{"lent", "rapide"}, svc.Radicals(ctx))
	assert.Equal(t, 0, svc.Stats(ctx).Groups)
}

// ===========================================================================
// 2. Queries
// ===========================================================================

func TestService_Queries(t *testing.T) {
	t.Parallel()
	svc, _ := seededService(t)
	ctx := context.Background()

	r, err := svc.ResolveRadical(ctx, " Rapidement ")
	require.NoError(t, err)
	assert.Equal(t, "rapide", r)

	_, err = svc.ResolveRadical(ctx, "inconnu")
	require.ErrorIs(t, err, domain.ErrFlexionNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first, err := svc.Sense(ctx, "rapide", 0)
	require.NoError(t, err)
	assert.Equal(t, "vite", first)

	_, err = svc.Sense(ctx, "rapide", -1)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Sense(ctx, "rapide", 1)
	require.ErrorIs(t, err, domain.ErrInvalidPosition)
	_, err = svc.Synonyms(ctx, "lent", 0)
	require.ErrorIs(t, err, domain.ErrInvalidPosition)

	rad, err := svc.Radical(ctx, "rapide")
	require.NoError(t, err)
	assert.Equal(t, []string{"rapides", "rapidement"}, rad.Flexions)

	assert.Equal(t, domain.DictionaryStats{Radicals: 3, Groups: 1, Height: 1, Balanced: true}, svc.Stats(ctx))
}

func TestService_ResolveRadical_Empty(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(defaultCfg())

	_, err := svc.ResolveRadical(context.Background(), "x")
	require.ErrorIs(t, err, domain.ErrEmptyTree)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ===========================================================================
// 3. Import / Export
// ===========================================================================

func TestService_Import_KeepsDictionaryOnError(t *testing.T) {
	t.Parallel()
	svc, _ := seededService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, strings.NewReader("a\n\na\n\n"))
	require.ErrorIs(t, err, domain.ErrConstruction)

	assert.Equal(t, []string{"lent", "rapide", "vite"}, svc.Radicals(ctx))
}

func TestService_Import_ReplacesDictionary(t *testing.T) {
	t.Parallel()
	svc, deps := seededService(t)
	ctx := context.Background()

	stats, err := svc.Import(ctx, strings.NewReader("seul\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Radicals)

	assert.Equal(t, []string{"seul"}, svc.Radicals(ctx))
	assert.Equal(t, domain.DictionaryStats{Radicals: 1, Groups: 0, Height: 0}, deps.metrics.last())
}

func TestService_ExportImport_RoundTrip(t *testing.T) {
	t.Parallel()
	svc, _ := seededService(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf))

	other, _ := newTestService(defaultCfg())
	_, err := other.Import(ctx, &buf)
	require.NoError(t, err)

	assert.Equal(t, svc.Radicals(ctx), other.Radicals(ctx))
	assert.Equal(t, svc.Stats(ctx), other.Stats(ctx))
}

// ===========================================================================
// 4. Save / Restore
// ===========================================================================

func TestService_Save(t *testing.T) {
	t.Parallel()
	svc, deps := seededService(t)

	var saved domain.Snapshot
	deps.repo.SaveFunc = func(_ context.Context, snap domain.Snapshot) (domain.Revision, error) {
		saved = snap
		return domain.Revision{ID: uuid.New(), Radicals: len(snap.Radicals), Groups: len(snap.Groups)}, nil
	}

	rev, err := svc.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rev.Radicals)
	assert.Equal(t, 1, rev.Groups)
	require.Len(t, saved.Radicals, 3)
	assert.Equal(t, [][]string{{"vite"}}, saved.Groups)
}

func TestService_Save_RepoError(t *testing.T) {
	t.Parallel()
	svc, deps := seededService(t)

	deps.repo.SaveFunc = func(context.Context, domain.Snapshot) (domain.Revision, error) {
		return domain.Revision{}, errors.New("connection reset")
	}

	_, err := svc.Save(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save snapshot")
	assert.Contains(t, deps.metrics.ops, observedOp{op: "save", err: true})
}

func TestService_Restore(t *testing.T) {
	t.Parallel()
	svc, deps := seededService(t)
	ctx := context.Background()

	revID := uuid.New()
	deps.repo.LatestRevisionFunc = func(context.Context) (domain.Revision, error) {
		return domain.Revision{ID: revID, Radicals: 2, Groups: 1}, nil
	}
	deps.repo.LoadFunc = func(context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{
			Radicals: []domain.Radical{
				{Key: "agile", Groups: []domain.GroupID{0}},
				{Key: "leste"},
			},
			Groups: [][]string{{"leste"}},
		}, nil
	}

	rev, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, revID, rev.ID)
	assert.Equal(t, []string{"agile", "leste"}, svc.Radicals(ctx))

	first, err := svc.Sense(ctx, "agile", 0)
	require.NoError(t, err)
	assert.Equal(t, "leste", first)
}

func TestService_Restore_NothingSaved(t *testing.T) {
	t.Parallel()
	svc, _ := seededService(t)
	ctx := context.Background()

	_, err := svc.Restore(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{"lent", "rapide", "vite"}, svc.Radicals(ctx))
}

func TestService_Restore_CorruptSnapshot(t *testing.T) {
	t.Parallel()
	svc, deps := seededService(t)
	ctx := context.Background()

	deps.repo.LatestRevisionFunc = func(context.Context) (domain.Revision, error) {
		return domain.Revision{ID: uuid.New()}, nil
	}
	deps.repo.LoadFunc = func(context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{Radicals: []domain.Radical{{Key: "a", Groups: []domain.GroupID{3}}}}, nil
	}

	_, err := svc.Restore(ctx)
	require.ErrorIs(t, err, domain.ErrConstruction)
	assert.Len(t, svc.Radicals(ctx), 3)
}

func TestService_PersistenceDisabled(t *testing.T) {
	t.Parallel()
	svc := NewService(slog.Default(), nil, nil, defaultCfg())

	assert.False(t, svc.Persistent())
	_, err := svc.Save(context.Background())
	require.ErrorIs(t, err, ErrPersistenceDisabled)
	_, err = svc.Restore(context.Background())
	require.ErrorIs(t, err, ErrPersistenceDisabled)
}

// ===========================================================================
// 5. Concurrency
// ===========================================================================

// TestService_ConcurrentReadersAndWriters is meant to be run with -race.
func TestService_ConcurrentReadersAndWriters(t *testing.T) {
	t.Parallel()
	svc, _ := seededService(t)
	ctx := context.Background()

	const writers, readers, rounds = 4, 8, 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				word := fmt.Sprintf("mot%d-%d", w, i)
				if err := svc.AddRadical(ctx, word); err != nil {
					t.Errorf("add %s: %v", word, err)
					return
				}
				if _, err := svc.AddSynonym(ctx, AddSynonymInput{Radical: word, Synonym: "lent"}); err != nil {
					t.Errorf("synonym %s: %v", word, err)
					return
				}
				if i%2 == 0 {
					if err := svc.RemoveRadical(ctx, word); err != nil {
						t.Errorf("remove %s: %v", word, err)
						return
					}
				}
			}
		}(w)
	}
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if got, err := svc.ResolveRadical(ctx, "rapidement"); err != nil || got != "rapide" {
					t.Errorf("resolve: %q, %v", got, err)
					return
				}
				_ = svc.Radicals(ctx)
				if st := svc.Stats(ctx); !st.Balanced {
					t.Errorf("unbalanced: %+v", st)
					return
				}
			}
		}()
	}
	wg.Wait()

	st := svc.Stats(ctx)
	assert.Equal(t, 3+writers*rounds/2, st.Radicals)
	// Groups listing only "lent" outlive the radical that created them.
	assert.Equal(t, 1+writers*rounds, st.Groups)
}
