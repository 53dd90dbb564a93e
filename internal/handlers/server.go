package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pep299/trends-dashboard/internal/archive"
	"github.com/pep299/trends-dashboard/internal/cache"
	"github.com/pep299/trends-dashboard/internal/config"
	"github.com/pep299/trends-dashboard/internal/service"
	"github.com/pep299/trends-dashboard/internal/session"
	"github.com/pep299/trends-dashboard/internal/watchlist"
)

// Options holds the dependencies of the HTTP server
type Options struct {
	Config   *config.Config
	Service  *service.Service
	Sessions session.Store
	Cache    *cache.Manager
	Archive  archive.Store
	Runner   *watchlist.Runner
	Version  string
}

// Server holds the HTTP handlers and their dependencies
type Server struct {
	config       *config.Config
	service      *service.Service
	sessions     session.Store
	cacheManager *cache.Manager
	archive      archive.Store
	runner       *watchlist.Runner
	templates    *template.Template
	version      string
	sessionTTL   time.Duration
}

// NewServer creates a new HTTP server
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Service == nil || opts.Sessions == nil {
		return nil, errors.New("handlers: config, service and session store are required")
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:       opts.Config,
		service:      opts.Service,
		sessions:     opts.Sessions,
		cacheManager: opts.Cache,
		archive:      opts.Archive,
		runner:       opts.Runner,
		templates:    tmpl,
		version:      opts.Version,
		sessionTTL:   opts.Config.SessionTTL(),
	}
	if s.archive == nil {
		s.archive = archive.Noop{}
	}
	if s.runner == nil {
		s.runner = watchlist.NewRunner(opts.Service, s.archive, nil, nil)
	}
	if s.version == "" {
		s.version = "dev"
	}
	return s, nil
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Dashboard
	r.HandleFunc("/", s.dashboardHandler).Methods(http.MethodGet)
	r.HandleFunc("/analyze", s.analyzeFormHandler).Methods(http.MethodPost)
	r.HandleFunc("/reload", s.reloadFormHandler).Methods(http.MethodPost)
	r.HandleFunc("/chart.png", s.chartHandler).Methods(http.MethodGet)
	r.HandleFunc("/download/{kind}", s.downloadHandler).Methods(http.MethodGet)

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/regions", s.regionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/presets", s.presetsHandler).Methods(http.MethodGet)
	api.HandleFunc("/config", s.configHandler).Methods(http.MethodGet)

	// Analysis, scoped to the session cookie
	api.HandleFunc("/analyze", s.analyzeHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/reload", s.reloadHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/session", s.sessionHandler).Methods(http.MethodGet)
	api.HandleFunc("/export/{kind}", s.exportHandler).Methods(http.MethodGet)

	// Operations
	admin := api.NewRoute().Subrouter()
	admin.Use(authMiddleware(s.config.AdminToken))
	admin.HandleFunc("/cache/stats", s.cacheStatsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/cache/clear", s.cacheClearHandler).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/archive", s.archiveHandler).Methods(http.MethodGet)
	admin.HandleFunc("/watchlists", s.watchlistsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/watchlists/{name}/run", s.runWatchlistHandler).Methods(http.MethodPost, http.MethodOptions)

	return r
}
