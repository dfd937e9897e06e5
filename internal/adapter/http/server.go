package adapthttp

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"babyplate/internal/app"
	"babyplate/internal/replica"
)

// Syncer runs one sync pass against the remote authority.
type Syncer interface {
	Sync(ctx context.Context) (replica.Report, error)
}

// Options configures a Server.
type Options struct {
	// WebDir serves a single-page app from disk when set.
	WebDir string
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	catalog *app.CatalogService
	plans   *app.PlanService
	recs    *app.RecommendationService
	syncer  Syncer
	opts    Options
	log     *zap.Logger
}

// New creates a Server wired to the given application services. A nil syncer
// disables POST /api/sync.
func New(catalog *app.CatalogService, plans *app.PlanService, recs *app.RecommendationService, syncer Syncer, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{catalog: catalog, plans: plans, recs: recs, syncer: syncer, opts: opts, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}).Methods(http.MethodGet)

	api.HandleFunc("/babies", s.handleListBabies).Methods(http.MethodGet)
	api.HandleFunc("/babies", s.handleCreateBaby).Methods(http.MethodPost)
	api.HandleFunc("/babies/{babyID:[0-9]+}", s.handleUpdateBaby).Methods(http.MethodPut)
	api.HandleFunc("/recipes", s.handleListRecipes).Methods(http.MethodGet)
	api.HandleFunc("/recipes", s.handleImportRecipes).Methods(http.MethodPost)

	api.HandleFunc("/babies/{babyID:[0-9]+}/plans", s.handleListPlans).Methods(http.MethodGet)
	api.HandleFunc("/babies/{babyID:[0-9]+}/plans", s.handleCreatePlan).Methods(http.MethodPost)
	api.HandleFunc("/plans/{planID:[0-9]+}", s.handleUpdatePlan).Methods(http.MethodPut)
	api.HandleFunc("/plans/{planID:[0-9]+}", s.handleDeletePlan).Methods(http.MethodDelete)

	rec := api.PathPrefix("/babies/{babyID:[0-9]+}/recommendations").Subrouter()
	rec.HandleFunc("", s.handleWeekly).Methods(http.MethodPost)
	rec.HandleFunc("/daily", s.handleDaily).Methods(http.MethodPost)
	rec.HandleFunc("/conflicts", s.handleConflicts).Methods(http.MethodPost)
	rec.HandleFunc("/save", s.handleSave).Methods(http.MethodPost)

	api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)
	api.HandleFunc("/audit", s.handleAudit).Methods(http.MethodGet)

	if s.opts.WebDir != "" {
		r.PathPrefix("/").Handler(spaFromDisk(s.opts.WebDir))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.loggingMiddleware(withNoCache(r)))
}
