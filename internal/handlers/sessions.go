package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pep299/trends-dashboard/internal/session"
)

// currentSession returns the state behind the request cookie, or a fresh one
// when the cookie is missing or its session expired.
func (s *Server) currentSession(r *http.Request) session.State {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil {
		return session.New()
	}

	state, err := s.sessions.Load(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to load session")
		}
		return session.New()
	}
	return state
}

// storeSession saves state and points the cookie at it.
func (s *Server) storeSession(w http.ResponseWriter, r *http.Request, state session.State) {
	if err := s.sessions.Save(r.Context(), state); err != nil {
		log.Error().Err(err).Str("session", state.ID).Msg("Failed to save session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    state.ID,
		Path:     "/",
		MaxAge:   int(s.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
