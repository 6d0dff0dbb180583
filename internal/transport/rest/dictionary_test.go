package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/synonyms-backend/internal/config"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/internal/service/dictionary"
)

const adminToken = "test-admin"

// memoryRepo keeps the last saved snapshot in memory.
type memoryRepo struct {
	mu   sync.Mutex
	snap *domain.Snapshot
	rev  domain.Revision
}

func (m *memoryRepo) Save(_ context.Context, snap domain.Snapshot) (domain.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &snap
	m.rev = domain.Revision{ID: uuid.New(), Radicals: len(snap.Radicals), Groups: len(snap.Groups), CreatedAt: time.Now()}
	return m.rev, nil
}

func (m *memoryRepo) Load(_ context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return *m.snap, nil
}

func (m *memoryRepo) LatestRevision(_ context.Context) (domain.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return domain.Revision{}, domain.ErrNotFound
	}
	return m.rev, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, persistent bool) http.Handler {
	t.Helper()

	log := discardLogger()
	cfg := config.DictionaryConfig{MaxWordLength: 20}

	var svc *dictionary.Service
	if persistent {
		svc = dictionary.NewService(log, &memoryRepo{}, nil, cfg)
	} else {
		svc = dictionary.NewService(log, nil, nil, cfg)
	}

	return NewRouter(RouterParams{
		Dictionary: NewDictionaryHandler(svc, log),
		Health:     NewHealthHandler(nil, svc, "test"),
		Server:     config.ServerConfig{AdminToken: adminToken},
		CORS:       config.CORSConfig{AllowedOrigins: "*"},
		Logger:     log,
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if strings.HasPrefix(target, "/admin/") {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func TestDictionaryHandler_Lifecycle(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, false)

	rec := do(t, h, http.MethodPost, "/radicals", `{"radical":"Rapide"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "rapide", decode[RadicalResponse](t, rec).Radical)

	rec = do(t, h, http.MethodPost, "/radicals/rapide/flexions", `{"flexion":"rapides"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"rapides"}, decode[RadicalResponse](t, rec).Flexions)

	rec = do(t, h, http.MethodPost, "/radicals/rapide/synonyms", `{"synonym":"vite"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]int{"group": 0}, decode[map[string]int](t, rec))

	rec = do(t, h, http.MethodPost, "/radicals/rapide/synonyms", `{"synonym":"prompt","group":0}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/radicals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string][]string{"radicals": {"prompt", "rapide", "vite"}}, decode[map[string][]string](t, rec))

	rec = do(t, h, http.MethodGet, "/radicals/rapide", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RadicalResponse{Radical: "rapide", Flexions: []string{"rapides"}, Groups: []domain.GroupID{0}}, decode[RadicalResponse](t, rec))

	rec = do(t, h, http.MethodGet, "/radicals/rapide/flexions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"radical":"rapide","flexions":["rapides"]}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/radicals/rapide/senses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SensesResponse{
		Radical: "rapide",
		Count:   1,
		Senses:  []SenseSummary{{Position: 0, Group: 0, First: "vite"}},
	}, decode[SensesResponse](t, rec))

	rec = do(t, h, http.MethodGet, "/radicals/rapide/senses/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"vite", "prompt"}, decode[SynonymsResponse](t, rec).Synonyms)

	rec = do(t, h, http.MethodGet, "/resolve?word=rapides", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"word":"rapides","radical":"rapide"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[domain.DictionaryStats](t, rec)
	assert.Equal(t, 3, stats.Radicals)
	assert.Equal(t, 1, stats.Groups)
	assert.True(t, stats.Balanced)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/radicals/rapide/synonyms/prompt?group=0", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/radicals/rapide/flexions/rapides", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/radicals/prompt", "").Code)

	rec = do(t, h, http.MethodGet, "/radicals", "")
	assert.Equal(t, map[string][]string{"radicals": {"rapide", "vite"}}, decode[map[string][]string](t, rec))
}

func TestDictionaryHandler_Errors(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, false)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/radicals", `{"radical":"lent"}`).Code)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "duplicate radical", method: http.MethodPost, target: "/radicals", body: `{"radical":"lent"}`, want: http.StatusConflict},
		{name: "radical with space", method: http.MethodPost, target: "/radicals", body: `{"radical":"pas lent"}`, want: http.StatusBadRequest},
		{name: "empty radical", method: http.MethodPost, target: "/radicals", body: `{"radical":""}`, want: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, target: "/radicals", body: `{"word":"x"}`, want: http.StatusBadRequest},
		{name: "malformed json", method: http.MethodPost, target: "/radicals", body: `{`, want: http.StatusBadRequest},
		{name: "unknown radical", method: http.MethodGet, target: "/radicals/rapide", want: http.StatusNotFound},
		{name: "remove unknown radical", method: http.MethodDelete, target: "/radicals/rapide", want: http.StatusNotFound},
		{name: "flexion of unknown radical", method: http.MethodPost, target: "/radicals/rapide/flexions", body: `{"flexion":"rapides"}`, want: http.StatusNotFound},
		{name: "remove unknown flexion", method: http.MethodDelete, target: "/radicals/lent/flexions/lents", want: http.StatusNotFound},
		{name: "sense position not a number", method: http.MethodGet, target: "/radicals/lent/senses/x", want: http.StatusBadRequest},
		{name: "sense position out of range", method: http.MethodGet, target: "/radicals/lent/senses/0", want: http.StatusBadRequest},
		{name: "self synonym", method: http.MethodPost, target: "/radicals/lent/synonyms", body: `{"synonym":"lent"}`, want: http.StatusBadRequest},
		{name: "invalid group", method: http.MethodPost, target: "/radicals/lent/synonyms", body: `{"synonym":"lambin","group":7}`, want: http.StatusBadRequest},
		{name: "remove synonym without group", method: http.MethodDelete, target: "/radicals/lent/synonyms/lambin", want: http.StatusBadRequest},
		{name: "remove synonym bad group", method: http.MethodDelete, target: "/radicals/lent/synonyms/lambin?group=abc", want: http.StatusBadRequest},
		{name: "resolve unknown flexion", method: http.MethodGet, target: "/resolve?word=lents", want: http.StatusNotFound},
		{name: "resolve without word", method: http.MethodGet, target: "/resolve", want: http.StatusBadRequest},
		{name: "save without persistence", method: http.MethodPost, target: "/admin/save", want: http.StatusServiceUnavailable},
		{name: "restore without persistence", method: http.MethodPost, target: "/admin/restore", want: http.StatusServiceUnavailable},
		{name: "method not allowed", method: http.MethodPut, target: "/radicals", want: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestDictionaryHandler_ValidationFields(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, false)
	rec := do(t, h, http.MethodPost, "/radicals/x/synonyms", `{"synonym":"a b","group":-1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation failed", resp.Error)
	fields := make([]string, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"synonym", "group"}, fields)
}

func TestDictionaryHandler_EmptyDictionary(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, false)

	rec := do(t, h, http.MethodGet, "/radicals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"radicals":[]}`, rec.Body.String())

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodGet, "/resolve?word=vite", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodDelete, "/radicals/vite", "").Code)
}

func TestDictionaryHandler_ImportExport(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, false)

	text := "rapide\nrapides rapidement\nlent\nlents\n$\nrapide vite prompt\n"
	rec := do(t, h, http.MethodPost, "/admin/import", text)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats["radicals"])
	assert.Equal(t, 1, stats["groups"])
	assert.Equal(t, 2, stats["synonyms"])

	rec = do(t, h, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "rapide\nrapides rapidement\n")
	assert.Contains(t, body, "$\nrapide vite prompt\n")

	rec = do(t, h, http.MethodPost, "/admin/import", "rapide\nrapides\n$\nrapide\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/radicals", "")
	assert.Contains(t, rec.Body.String(), "rapide", "failed import must keep the previous dictionary")
}

func TestDictionaryHandler_SaveRestore(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/admin/restore", "").Code)

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/radicals", `{"radical":"vite"}`).Code)
	rec := do(t, h, http.MethodPost, "/admin/save", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[RevisionResponse](t, rec)
	assert.Equal(t, 1, saved.Radicals)
	_, err := uuid.Parse(saved.ID)
	assert.NoError(t, err)

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/radicals/vite", "").Code)

	rec = do(t, h, http.MethodPost, "/admin/restore", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, saved.ID, decode[RevisionResponse](t, rec).ID)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/radicals/vite", "").Code)
}

func TestDictionaryHandler_AdminRequiresToken(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodPost, "/admin/save", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/import", bytes.NewBufferString("x\n"))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_GraphQLMounted(t *testing.T) {
	t.Parallel()

	log := discardLogger()
	svc := dictionary.NewService(log, nil, nil, config.DictionaryConfig{MaxWordLength: 20})
	var methods []string
	gql := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	h := NewRouter(RouterParams{
		Dictionary: NewDictionaryHandler(svc, log),
		GraphQL:    gql,
		Health:     NewHealthHandler(nil, svc, "test"),
		Logger:     log,
	})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/graphql?query=%7Bstats%7Bgroups%7D%7D", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/graphql", `{"query":"{stats{groups}}"}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/graphql", "").Code)
	assert.Equal(t, []string{http.MethodGet, http.MethodPost}, methods)

	// Without a GraphQL handler the path is not routed.
	rec := do(t, newTestRouter(t, false), http.MethodPost, "/graphql", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleError_Mapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: domain.NewValidationError("radical", "required"), want: http.StatusBadRequest},
		{name: "invalid position", err: domain.ErrInvalidPosition, want: http.StatusBadRequest},
		{name: "key not found", err: domain.ErrKeyNotFound, want: http.StatusNotFound},
		{name: "flexion not found", err: domain.ErrFlexionNotFound, want: http.StatusNotFound},
		{name: "duplicate", err: domain.ErrDuplicateSynonym, want: http.StatusConflict},
		{name: "empty tree", err: domain.ErrEmptyTree, want: http.StatusConflict},
		{name: "construction", err: domain.ErrConstruction, want: http.StatusUnprocessableEntity},
		{name: "persistence disabled", err: dictionary.ErrPersistenceDisabled, want: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), discardLogger(), tt.err)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
			}
		})
	}
}
