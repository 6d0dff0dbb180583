package rest

import (
	"log/slog"
	"net/http"

	"github.com/heartmarshall/synonyms-backend/internal/config"
	"github.com/heartmarshall/synonyms-backend/internal/transport/middleware"
)

// RouterParams collects what NewRouter wires together.
type RouterParams struct {
	Dictionary *DictionaryHandler
	// GraphQL is mounted at /graphql when set.
	GraphQL http.Handler
	Health  *HealthHandler
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Limiter throttles mutating requests when set.
	Limiter *middleware.RateLimiter
	Server  config.ServerConfig
	CORS    config.CORSConfig
	Logger  *slog.Logger
}

// NewRouter builds the HTTP handler with every route and the shared
// middleware stack.
func NewRouter(p RouterParams) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", p.Health.Live)
	mux.HandleFunc("GET /ready", p.Health.Ready)
	mux.HandleFunc("GET /health", p.Health.Health)
	if p.Metrics != nil {
		mux.Handle("GET /metrics", p.Metrics)
	}

	d := p.Dictionary
	mux.HandleFunc("GET /radicals", d.ListRadicals)
	mux.HandleFunc("POST /radicals", d.AddRadical)
	mux.HandleFunc("GET /radicals/{radical}", d.GetRadical)
	mux.HandleFunc("DELETE /radicals/{radical}", d.RemoveRadical)
	mux.HandleFunc("GET /radicals/{radical}/flexions", d.ListFlexions)
	mux.HandleFunc("POST /radicals/{radical}/flexions", d.AddFlexion)
	mux.HandleFunc("DELETE /radicals/{radical}/flexions/{flexion}", d.RemoveFlexion)
	mux.HandleFunc("GET /radicals/{radical}/senses", d.ListSenses)
	mux.HandleFunc("GET /radicals/{radical}/senses/{position}", d.ListSynonyms)
	mux.HandleFunc("POST /radicals/{radical}/synonyms", d.AddSynonym)
	mux.HandleFunc("DELETE /radicals/{radical}/synonyms/{synonym}", d.RemoveSynonym)
	mux.HandleFunc("GET /resolve", d.Resolve)
	mux.HandleFunc("GET /stats", d.Stats)
	mux.HandleFunc("GET /export", d.Export)

	if p.GraphQL != nil {
		mux.Handle("GET /graphql", p.GraphQL)
		mux.Handle("POST /graphql", p.GraphQL)
	}

	admin := middleware.AdminToken(p.Server.AdminToken)
	mux.Handle("POST /admin/import", admin(http.HandlerFunc(d.Import)))
	mux.Handle("POST /admin/save", admin(http.HandlerFunc(d.Save)))
	mux.Handle("POST /admin/restore", admin(http.HandlerFunc(d.Restore)))

	var limit middleware.Middleware
	if p.Limiter != nil {
		limit = p.Limiter.LimitWrites(p.Server.WriteRateLimit)
	}

	return middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(p.Logger),
		middleware.Recovery(p.Logger),
		middleware.CORS(p.CORS),
		limit,
	)(mux)
}
