package server

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/api"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/exports"
)

// exportCSV renders the submissions selected by the request's query.
func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) ([]byte, int, bool) {
	p, ok := principal(w, r)
	if !ok {
		return nil, 0, false
	}
	q, err := s.submissionQuery(r)
	if err != nil {
		api.WriteBadRequest(w, err.Error())
		return nil, 0, false
	}
	subs, err := s.submissions.All(r.Context(), p, q)
	if err != nil {
		writeServiceError(w, err)
		return nil, 0, false
	}
	bases, teams, err := s.names(r)
	if err != nil {
		api.WriteInternal(w, err)
		return nil, 0, false
	}

	var buf bytes.Buffer
	if err := exports.WriteCSV(&buf, exports.Rows(subs, s.catalog, bases, teams)); err != nil {
		api.WriteInternal(w, err)
		return nil, 0, false
	}
	return buf.Bytes(), len(subs), true
}

func writeCSVFile(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.exportCSV(w, r)
	if !ok {
		return
	}
	writeCSVFile(w, exports.Filename("", calendar.Today(s.clock)), data)
}

type archiveResponse struct {
	Hash     string `json:"hash"`
	Filename string `json:"filename"`
	Rows     int    `json:"rows"`
	Download string `json:"download"`
}

func (s *Server) handleArchiveExport(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "Service Unavailable", "Export archive is not configured")
		return
	}
	data, rows, ok := s.exportCSV(w, r)
	if !ok {
		return
	}
	hash, err := s.archive.Put(r.Context(), data)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}
	s.logger.InfoContext(r.Context(), "export archived", "hash", hash, "rows", rows)
	api.WriteJSON(w, http.StatusCreated, archiveResponse{
		Hash:     hash,
		Filename: exports.Filename("", calendar.Today(s.clock)),
		Rows:     rows,
		Download: "/api/export/archive/" + hash,
	})
}

func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "Service Unavailable", "Export archive is not configured")
		return
	}
	hash := r.PathValue("hash")
	raw, found := strings.CutPrefix(hash, "sha256:")
	if _, err := hex.DecodeString(raw); !found || len(raw) != 64 || err != nil {
		api.WriteBadRequest(w, "hash must be sha256:<64 hex>")
		return
	}
	data, err := s.archive.Get(r.Context(), hash)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeCSVFile(w, raw[:12]+".csv", data)
}
