package server

import (
	"net/http"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/analytics"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/compliance"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/submissions"
)

// targetMonth reads ?month=YYYY-MM, defaulting to the current month.
func (s *Server) targetMonth(r *http.Request) (calendar.Month, error) {
	if v := r.URL.Query().Get("month"); v != "" {
		return calendar.ParseMonth(v)
	}
	return s.evaluator.Today().MonthOf(), nil
}

func (s *Server) board(w http.ResponseWriter, r *http.Request) (compliance.Board, bool) {
	month, err := s.targetMonth(r)
	if err != nil {
		api.WriteBadRequest(w, err.Error())
		return compliance.Board{}, false
	}
	board, err := s.evaluator.Board(r.Context(), month)
	if err != nil {
		writeServiceError(w, err)
		return compliance.Board{}, false
	}
	return board, true
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	if board, ok := s.board(w, r); ok {
		api.WriteJSON(w, http.StatusOK, board)
	}
}

func (s *Server) handleComplianceChart(w http.ResponseWriter, r *http.Request) {
	board, ok := s.board(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := analytics.BoardChart(w, board); err != nil {
		s.logger.ErrorContext(r.Context(), "render compliance chart", "error", err)
	}
}

func (s *Server) handleInactive(w http.ResponseWriter, r *http.Request) {
	leads, err := s.evaluator.Inactive(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"today": s.evaluator.Today(),
		"leads": leads,
	})
}

// handleAnalytics answers JSON, or an echarts page with ?format=html.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	kind := catalog.Kind(r.PathValue("kind"))
	if _, err := s.catalog.Lookup(kind); err != nil {
		api.WriteNotFound(w, err.Error())
		return
	}
	q := r.URL.Query()
	rng, err := calendar.ParseRange(q.Get("from"), q.Get("to"), calendar.Today(s.clock))
	if err != nil {
		api.WriteBadRequest(w, err.Error())
		return
	}

	subs, err := s.submissions.All(r.Context(), p, submissions.Query{
		BaseID: q.Get("base"),
		TeamID: q.Get("team"),
		Kinds:  []catalog.Kind{kind},
		Range:  rng,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	_, teams, err := s.names(r)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}
	report, err := analytics.Build(kind, subs, s.catalog, teams)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if q.Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := analytics.ReportChart(w, report); err != nil {
			s.logger.ErrorContext(r.Context(), "render analytics chart", "kind", kind, "error", err)
		}
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"range": rng, "report": report})
}

// names maps base and team ids to their display names.
func (s *Server) names(r *http.Request) (bases, teams map[string]string, err error) {
	bs, err := s.store.ListBases(r.Context())
	if err != nil {
		return nil, nil, err
	}
	ts, err := s.store.ListTeams(r.Context())
	if err != nil {
		return nil, nil, err
	}
	bases = make(map[string]string, len(bs))
	for _, b := range bs {
		bases[b.ID] = b.Name
	}
	teams = make(map[string]string, len(ts))
	for _, t := range ts {
		teams[t.ID] = t.Name
	}
	return bases, teams, nil
}
