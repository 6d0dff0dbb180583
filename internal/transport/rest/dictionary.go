package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/synonyms-backend/internal/dicofile"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
	"github.com/heartmarshall/synonyms-backend/internal/service/dictionary"
)

const maxImportBody = 32 << 20

type dictionaryService interface {
	AddRadical(ctx context.Context, radical string) error
	RemoveRadical(ctx context.Context, radical string) error
	AddFlexion(ctx context.Context, radical, flexion string) error
	RemoveFlexion(ctx context.Context, radical, flexion string) error
	AddSynonym(ctx context.Context, input dictionary.AddSynonymInput) (domain.GroupID, error)
	RemoveSynonym(ctx context.Context, input dictionary.RemoveSynonymInput) error

	ResolveRadical(ctx context.Context, word string) (string, error)
	Radicals(ctx context.Context) []string
	Radical(ctx context.Context, radical string) (domain.Radical, error)
	Flexions(ctx context.Context, radical string) ([]string, error)
	Senses(ctx context.Context, radical string) ([]domain.Sense, error)
	Synonyms(ctx context.Context, radical string, position int) ([]string, error)
	Stats(ctx context.Context) domain.DictionaryStats

	Import(ctx context.Context, r io.Reader) (dicofile.Stats, error)
	Export(ctx context.Context, w io.Writer) error
	Save(ctx context.Context) (domain.Revision, error)
	Restore(ctx context.Context) (domain.Revision, error)
}

// DictionaryHandler serves the dictionary REST API.
type DictionaryHandler struct {
	svc dictionaryService
	log *slog.Logger
}

// NewDictionaryHandler creates a DictionaryHandler.
func NewDictionaryHandler(svc dictionaryService, logger *slog.Logger) *DictionaryHandler {
	return &DictionaryHandler{svc: svc, log: logger.With("handler", "dictionary")}
}

// ---------------------------------------------------------------------------
// Request / response bodies
// ---------------------------------------------------------------------------

type addRadicalRequest struct {
	Radical string `json:"radical"`
}

type addFlexionRequest struct {
	Flexion string `json:"flexion"`
}

type addSynonymRequest struct {
	Synonym string `json:"synonym"`
	Group   *int   `json:"group,omitempty"`
}

// RadicalResponse describes one radical.
type RadicalResponse struct {
	Radical  string           `json:"radical"`
	Flexions []string         `json:"flexions"`
	Groups   []domain.GroupID `json:"groups"`
}

// SenseSummary is one entry of the sense list: its group and first member.
type SenseSummary struct {
	Position int            `json:"position"`
	Group    domain.GroupID `json:"group"`
	First    string         `json:"first"`
}

// SensesResponse lists the senses of a radical.
type SensesResponse struct {
	Radical string         `json:"radical"`
	Count   int            `json:"count"`
	Senses  []SenseSummary `json:"senses"`
}

// SynonymsResponse lists the members of one sense.
type SynonymsResponse struct {
	Radical  string   `json:"radical"`
	Position int      `json:"position"`
	Synonyms []string `json:"synonyms"`
}

// RevisionResponse describes a persisted snapshot.
type RevisionResponse struct {
	ID        string    `json:"id"`
	Radicals  int       `json:"radicals"`
	Groups    int       `json:"groups"`
	CreatedAt time.Time `json:"created_at"`
}

func toRevisionResponse(rev domain.Revision) RevisionResponse {
	return RevisionResponse{
		ID:        rev.ID.String(),
		Radicals:  rev.Radicals,
		Groups:    rev.Groups,
		CreatedAt: rev.CreatedAt,
	}
}

// nonNil keeps empty lists as [] rather than null in responses.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ---------------------------------------------------------------------------
// Radicals and flexions
// ---------------------------------------------------------------------------

// ListRadicals handles GET /radicals.
func (h *DictionaryHandler) ListRadicals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"radicals": nonNil(h.svc.Radicals(r.Context()))})
}

// AddRadical handles POST /radicals.
func (h *DictionaryHandler) AddRadical(w http.ResponseWriter, r *http.Request) {
	var req addRadicalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := h.svc.AddRadical(r.Context(), req.Radical); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.writeRadical(w, r, http.StatusCreated, req.Radical)
}

// GetRadical handles GET /radicals/{radical}.
func (h *DictionaryHandler) GetRadical(w http.ResponseWriter, r *http.Request) {
	h.writeRadical(w, r, http.StatusOK, r.PathValue("radical"))
}

func (h *DictionaryHandler) writeRadical(w http.ResponseWriter, r *http.Request, status int, key string) {
	rad, err := h.svc.Radical(r.Context(), key)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, status, RadicalResponse{
		Radical:  rad.Key,
		Flexions: nonNil(rad.Flexions),
		Groups:   nonNil(rad.Groups),
	})
}

// RemoveRadical handles DELETE /radicals/{radical}.
func (h *DictionaryHandler) RemoveRadical(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveRadical(r.Context(), r.PathValue("radical")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFlexions handles GET /radicals/{radical}/flexions.
func (h *DictionaryHandler) ListFlexions(w http.ResponseWriter, r *http.Request) {
	radical := r.PathValue("radical")
	flexions, err := h.svc.Flexions(r.Context(), radical)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"radical": radical, "flexions": nonNil(flexions)})
}

// AddFlexion handles POST /radicals/{radical}/flexions.
func (h *DictionaryHandler) AddFlexion(w http.ResponseWriter, r *http.Request) {
	var req addFlexionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := h.svc.AddFlexion(r.Context(), r.PathValue("radical"), req.Flexion); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.writeRadical(w, r, http.StatusCreated, r.PathValue("radical"))
}

// RemoveFlexion handles DELETE /radicals/{radical}/flexions/{flexion}.
func (h *DictionaryHandler) RemoveFlexion(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveFlexion(r.Context(), r.PathValue("radical"), r.PathValue("flexion")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Senses and synonyms
// ---------------------------------------------------------------------------

// ListSenses handles GET /radicals/{radical}/senses.
func (h *DictionaryHandler) ListSenses(w http.ResponseWriter, r *http.Request) {
	radical := r.PathValue("radical")
	senses, err := h.svc.Senses(r.Context(), radical)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := SensesResponse{Radical: radical, Count: len(senses), Senses: make([]SenseSummary, 0, len(senses))}
	for _, s := range senses {
		sum := SenseSummary{Position: s.Position, Group: s.Group}
		if len(s.Members) > 0 {
			sum.First = s.Members[0]
		}
		resp.Senses = append(resp.Senses, sum)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListSynonyms handles GET /radicals/{radical}/senses/{position}.
func (h *DictionaryHandler) ListSynonyms(w http.ResponseWriter, r *http.Request) {
	radical := r.PathValue("radical")
	position, err := strconv.Atoi(r.PathValue("position"))
	if err != nil {
		handleError(w, r, h.log, domain.NewValidationError("position", "must be an integer"))
		return
	}

	members, err := h.svc.Synonyms(r.Context(), radical, position)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, SynonymsResponse{Radical: radical, Position: position, Synonyms: nonNil(members)})
}

// AddSynonym handles POST /radicals/{radical}/synonyms.
func (h *DictionaryHandler) AddSynonym(w http.ResponseWriter, r *http.Request) {
	var req addSynonymRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	group, err := h.svc.AddSynonym(r.Context(), dictionary.AddSynonymInput{
		Radical: r.PathValue("radical"),
		Synonym: req.Synonym,
		Group:   req.Group,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]domain.GroupID{"group": group})
}

// RemoveSynonym handles DELETE /radicals/{radical}/synonyms/{synonym}?group=N.
func (h *DictionaryHandler) RemoveSynonym(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("group")
	if raw == "" {
		handleError(w, r, h.log, domain.NewValidationError("group", "required"))
		return
	}
	group, err := strconv.Atoi(raw)
	if err != nil {
		handleError(w, r, h.log, domain.NewValidationError("group", "must be an integer"))
		return
	}

	err = h.svc.RemoveSynonym(r.Context(), dictionary.RemoveSynonymInput{
		Radical: r.PathValue("radical"),
		Synonym: r.PathValue("synonym"),
		Group:   group,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Lookup and statistics
// ---------------------------------------------------------------------------

// Resolve handles GET /resolve?word=...
func (h *DictionaryHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	radical, err := h.svc.ResolveRadical(r.Context(), word)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"word": word, "radical": radical})
}

// Stats handles GET /stats.
func (h *DictionaryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}

// Export handles GET /export and streams the text format.
func (h *DictionaryHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dictionary.txt"`)
	if err := h.svc.Export(r.Context(), w); err != nil {
		// The body may already be partly written.
		h.log.ErrorContext(r.Context(), "export dictionary", slog.String("error", err.Error()))
	}
}

// ---------------------------------------------------------------------------
// Operator endpoints
// ---------------------------------------------------------------------------

// Import handles POST /admin/import with a text dictionary as body.
func (h *DictionaryHandler) Import(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Save handles POST /admin/save.
func (h *DictionaryHandler) Save(w http.ResponseWriter, r *http.Request) {
	rev, err := h.svc.Save(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRevisionResponse(rev))
}

// Restore handles POST /admin/restore.
func (h *DictionaryHandler) Restore(w http.ResponseWriter, r *http.Request) {
	rev, err := h.svc.Restore(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toRevisionResponse(rev))
}
