package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/pep299/trends-dashboard/internal/export"
	"github.com/pep299/trends-dashboard/internal/query"
	"github.com/pep299/trends-dashboard/internal/response"
	"github.com/pep299/trends-dashboard/internal/service"
	"github.com/pep299/trends-dashboard/internal/session"
)

// RegionInfo describes a selectable region.
type RegionInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PresetInfo describes a selectable date preset and the range it resolves to today.
type PresetInfo struct {
	Name  string      `json:"name"`
	Label string      `json:"label"`
	Range query.Range `json:"range"`
}

// SessionView is the API representation of a session.
type SessionView struct {
	session.State
	RangeLabel string `json:"range_label,omitempty"`
}

func newSessionView(state session.State) SessionView {
	view := SessionView{State: state}
	if state.Query != nil {
		view.RangeLabel = rangeBanner(state.Query.Range)
	}
	return view
}

// healthHandler handles health check requests
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, "Service is healthy", map[string]any{
		"status":    "healthy",
		"version":   s.version,
		"cache":     s.cacheManager.Enabled(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// regionsHandler lists supported regions
func (s *Server) regionsHandler(w http.ResponseWriter, r *http.Request) {
	regions := make([]RegionInfo, 0, len(query.Regions()))
	for _, region := range query.Regions() {
		regions = append(regions, RegionInfo{Code: string(region), Name: region.Name()})
	}
	response.WriteSuccess(w, "", regions)
}

// presetsHandler lists date presets resolved against today
func (s *Server) presetsHandler(w http.ResponseWriter, r *http.Request) {
	now := s.service.Now()
	presets := make([]PresetInfo, 0, len(query.Presets()))
	for _, p := range query.Presets() {
		presets = append(presets, PresetInfo{Name: string(p), Label: p.Label(), Range: p.Range(now)})
	}
	response.WriteSuccess(w, "", presets)
}

// configHandler returns the non-secret configuration
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, "", s.config)
}

// analyzeHandler runs an analysis from a JSON body
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var in query.Input
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.WriteBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}

	prev := s.currentSession(r)
	next, err := s.service.Analyze(r.Context(), prev, in)
	s.storeSession(w, r, next)
	if err != nil {
		response.WriteProblem(w, problemFor(err), newSessionView(next))
		return
	}

	response.WriteSuccess(w, "Analysis completed", newSessionView(next))
}

// reloadHandler clears the held analysis
func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	next := s.service.Reload(s.currentSession(r))
	s.storeSession(w, r, next)
	response.WriteSuccess(w, "Session cleared", newSessionView(next))
}

// sessionHandler returns the current session
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	state := s.currentSession(r)
	s.storeSession(w, r, state)
	response.WriteSuccess(w, "", newSessionView(state))
}

// exportHandler downloads the held analysis
func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	artifact, err := s.artifactFor(r)
	if err != nil {
		response.WriteProblem(w, problemFor(err), nil)
		return
	}
	writeArtifact(w, artifact, "attachment")
}

// cacheStatsHandler returns cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cacheManager.Enabled() {
		response.WriteSuccess(w, "Cache is disabled", nil)
		return
	}

	stats, err := s.cacheManager.GetStats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get cache stats")
		response.WriteInternalError(w, "Failed to get cache stats")
		return
	}
	response.WriteSuccess(w, "", stats)
}

// cacheClearHandler drops every cached table
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.cacheManager.Clear(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to clear cache")
		response.WriteInternalError(w, "Failed to clear cache")
		return
	}
	log.Info().Msg("Cache cleared")
	response.WriteSuccess(w, "Cache cleared", nil)
}

// archiveHandler lists archived exports
func (s *Server) archiveHandler(w http.ResponseWriter, r *http.Request) {
	objects, err := s.archive.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		p := problemFor(err)
		if p.StatusCode == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Failed to list archive")
		}
		response.WriteProblem(w, p, nil)
		return
	}
	response.WriteSuccess(w, strconv.Itoa(len(objects))+" objects", objects)
}

// watchlistsHandler lists configured watchlists
func (s *Server) watchlistsHandler(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, "", s.runner.Lists())
}

// runWatchlistHandler runs a watchlist immediately
func (s *Server) runWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	report, err := s.runner.Run(r.Context(), name)
	if err != nil {
		log.Error().Err(err).Str("watchlist", name).Msg("Manual watchlist run failed")
		response.WriteProblem(w, problemFor(err), nil)
		return
	}
	response.WriteSuccess(w, "Watchlist run completed", report)
}

// artifactFor renders the {kind} route variable for the request's session.
func (s *Server) artifactFor(r *http.Request) (*service.Artifact, error) {
	kind, err := export.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		return nil, err
	}
	return s.service.Export(s.currentSession(r), kind)
}

func writeArtifact(w http.ResponseWriter, a *service.Artifact, disposition string) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", disposition+`; filename="`+a.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(a.Data); err != nil {
		log.Warn().Err(err).Str("file", a.FileName).Msg("Failed to write download")
	}
}
