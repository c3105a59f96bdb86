package server

import (
	"net/http"
	"strconv"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/indicator"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/submissions"
)

// submissionView is a stored submission plus its history line.
type submissionView struct {
	store.Submission
	Summary string `json:"summary"`
}

type submissionPage struct {
	Items  []submissionView `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func viewOf(sub store.Submission) submissionView {
	return submissionView{Submission: sub, Summary: indicator.SummaryOf(sub.Kind, sub.Payload)}
}

// submissionQuery reads base, team, kind, from, to, limit and offset. The
// date range defaults to the current month up to today.
func (s *Server) submissionQuery(r *http.Request) (submissions.Query, error) {
	q := r.URL.Query()
	rng, err := calendar.ParseRange(q.Get("from"), q.Get("to"), calendar.Today(s.clock))
	if err != nil {
		return submissions.Query{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return submissions.Query{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return submissions.Query{}, err
	}
	return submissions.Query{
		BaseID: q.Get("base"),
		TeamID: q.Get("team"),
		Kinds:  queryKinds(r, "kind"),
		Range:  rng,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q, err := s.submissionQuery(r)
	if err != nil {
		api.WriteBadRequest(w, err.Error())
		return
	}
	page, err := s.submissions.List(r.Context(), p, q)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := submissionPage{Items: make([]submissionView, 0, len(page.Items)), Total: page.Total, Limit: page.Limit, Offset: page.Offset}
	for _, sub := range page.Items {
		out.Items = append(out.Items, viewOf(sub))
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	api.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in submissions.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	sub, err := s.submissions.Create(r.Context(), p, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, viewOf(sub))
}

func (s *Server) handleUpdateSubmission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in submissions.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	sub, err := s.submissions.Update(r.Context(), p, r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, viewOf(sub))
}

func (s *Server) handleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := s.submissions.Delete(r.Context(), p, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
