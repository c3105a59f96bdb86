package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/releases"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "health check failed", "error", err)
		api.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	s.writeSession(w, r, session, err)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.auth.Reauthenticate(r.Context(), req.RefreshToken)
	s.writeSession(w, r, session, err)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, session auth.Session, err error) {
	switch {
	case err == nil:
		s.logger.InfoContext(r.Context(), "session issued", "user_id", session.UserID(), "role", session.Role())
		api.WriteJSON(w, http.StatusOK, session)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.WriteUnauthorized(w, "Email ou senha inválidos")
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		api.WriteUnauthorized(w, "Sessão expirada")
	case errors.Is(err, auth.ErrInactiveUser):
		api.WriteForbidden(w, "Usuário inativo")
	default:
		api.WriteInternal(w, err)
	}
}

type meResponse struct {
	Profile        store.Profile      `json:"profile"`
	Capabilities   []authz.Capability `json:"capabilities"`
	LandingPath    string             `json:"landing_path"`
	UnseenReleases []releases.Note    `json:"unseen_releases"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	profile, err := s.store.GetProfile(r.Context(), p.GetID())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	caps, err := s.resolver.Resolve(authz.Role(profile.Role), map[string]bool{
		authz.FlagSCIManagerAccess: profile.SCIManagerAccess,
	})
	if err != nil {
		api.WriteInternal(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, meResponse{
		Profile:        profile,
		Capabilities:   caps.List(),
		LandingPath:    authz.LandingPath(caps),
		UnseenReleases: s.releases.Since(profile.LastSeenRelease),
	})
}

type passwordRequest struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
	Confirm string `json:"confirm_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req passwordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Confirm != req.New {
		api.WriteUnprocessable(w, "As senhas não coincidem")
		return
	}
	if err := s.users.ChangePassword(r.Context(), p.GetID(), req.Current, req.New); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type releasesResponse struct {
	Latest *releases.Note  `json:"latest,omitempty"`
	Notes  []releases.Note `json:"notes"`
}

func (s *Server) handleReleases(w http.ResponseWriter, r *http.Request) {
	resp := releasesResponse{Notes: s.releases.Since(r.URL.Query().Get("since"))}
	if latest, ok := s.releases.Latest(); ok {
		resp.Latest = &latest
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// handleReleaseSeen records that the caller has read the newest notes.
func (s *Server) handleReleaseSeen(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	latest, ok := s.releases.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.store.MarkReleaseSeen(r.Context(), p.GetID(), latest.Version); err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"last_seen_release": latest.Version})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, s.catalog.Definitions())
}

func (s *Server) handleBases(w http.ResponseWriter, r *http.Request) {
	bases, err := s.store.ListBases(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, bases)
}

// handleBaseTeams lists the teams of a base. Teams are shared by every
// base, so only the base's existence is checked.
func (s *Server) handleBaseTeams(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.GetBase(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	teams, err := s.store.ListTeams(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, teams)
}
