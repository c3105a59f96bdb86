package server

import (
	"net/http"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/collaborators"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/feedback"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/users"
)

func callerOf(p auth.Principal) users.Caller {
	return users.Caller{Role: p.GetRole(), BaseID: p.GetBaseID()}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	profiles, err := s.users.List(r.Context(), callerOf(p), r.URL.Query().Get("role"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req users.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := s.users.Create(r.Context(), callerOf(p), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req users.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := s.users.Update(r.Context(), callerOf(p), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, profile)
}

func (s *Server) handleListCollaborators(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	list, err := s.collaborators.List(r.Context(), p, q.Get("base"), q.Get("inactive") == "true")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, list)
}

// createCollaboratorsRequest accepts a single nome or a batch in nomes.
type createCollaboratorsRequest struct {
	BaseID string   `json:"base_id"`
	Name   string   `json:"nome"`
	Names  []string `json:"nomes"`
}

func (s *Server) handleCreateCollaborators(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req createCollaboratorsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	names := req.Names
	if req.Name != "" {
		names = append(names, req.Name)
	}
	created, err := s.collaborators.Create(r.Context(), p, req.BaseID, names)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCollaborator(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req collaborators.Update
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.collaborators.Edit(r.Context(), p, r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeactivateCollaborator(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := s.collaborators.Deactivate(r.Context(), p, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := s.feedback.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, list)
}

type feedbackRequest struct {
	Type    feedback.Type `json:"type"`
	Message string        `json:"message"`
}

func (s *Server) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := s.feedback.Submit(r.Context(), p, req.Type, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, f)
}

func (s *Server) handleUpdateFeedback(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req feedback.Handling
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := s.feedback.Handle(r.Context(), p, r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, f)
}
