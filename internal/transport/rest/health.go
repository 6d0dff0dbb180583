package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

const checkTimeout = 3 * time.Second

// dbPinger is the readiness dependency. Nil means persistence is disabled.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type statsSource interface {
	Stats(ctx context.Context) domain.DictionaryStats
}

// HealthHandler serves the liveness, readiness and health endpoints.
type HealthHandler struct {
	db      dbPinger
	dict    statsSource
	version string
}

// NewHealthHandler creates a HealthHandler. db may be nil.
func NewHealthHandler(db dbPinger, dict statsSource, version string) *HealthHandler {
	return &HealthHandler{db: db, dict: dict, version: version}
}

// HealthResponse is the JSON body of every health endpoint.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of one component.
type CompStatus struct {
	Status  string                  `json:"status"`
	Latency string                  `json:"latency,omitempty"`
	Stats   *domain.DictionaryStats `json:"stats,omitempty"`
}

// Live always answers 200 while the process serves HTTP.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Ready answers 503 when the database is configured but unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "down", Timestamp: time.Now()})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now()})
}

// Health reports every component with the build version. The dictionary
// component is degraded when the index is out of balance.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]CompStatus, 2)
	overall := "ok"

	if h.db == nil {
		components["database"] = CompStatus{Status: "disabled"}
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		start := time.Now()
		if err := h.db.Ping(ctx); err != nil {
			components["database"] = CompStatus{Status: "down"}
			overall = "down"
		} else {
			components["database"] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
		}
	}

	stats := h.dict.Stats(r.Context())
	dictStatus := CompStatus{Status: "ok", Stats: &stats}
	if !stats.Balanced {
		dictStatus.Status = "degraded"
		if overall == "ok" {
			overall = "degraded"
		}
	}
	components["dictionary"] = dictStatus

	status := http.StatusOK
	if overall == "down" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}
