package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/audit"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/config"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/exports"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/identity"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

const password = "segredo123"

type fixture struct {
	store   *store.SQLStore
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, dialect, err := store.Open("", filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.MigrateUp(db, dialect))
	st := store.NewSQLStore(db, dialect)

	ks, err := identity.NewInMemoryKeySet()
	require.NoError(t, err)
	archive, err := exports.NewFileArchive(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		TokenTTL:       time.Hour,
		RefreshTTL:     24 * time.Hour,
		Timezone:       "UTC",
		AdminBaseName:  "ADMINISTRATIVO",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	srv, err := New(Options{
		Config:  cfg,
		Store:   st,
		Catalog: catalog.Default(),
		Keys:    ks,
		Archive: archive,
		Audit:   audit.NewStoreLogger(st),
		Clock:   calendar.NewMockClock(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return &fixture{store: st, handler: srv.Handler()}
}

func (f *fixture) addUser(t *testing.T, email, role, base, team string) {
	t.Helper()
	hash, err := identity.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateProfile(context.Background(), &store.Profile{
		Email:        email,
		Name:         email,
		PasswordHash: hash,
		Role:         role,
		BaseID:       base,
		TeamID:       team,
		Active:       true,
	}))
}

func (f *fixture) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) login(t *testing.T, email string) map[string]any {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	return session
}

func (f *fixture) token(t *testing.T, email string) string {
	t.Helper()
	return f.login(t, email)["access_token"].(string)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

var training = map[string]any{
	"indicator_kind": "treinamento",
	"reference_date": "2025-03-10",
	"payload":        map[string]any{"participantes": []map[string]string{{"nome": "Ana", "horas": "01:30"}}},
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = f.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRefreshAndMe(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "chefe@medmais.com", "chefe", "base-goiania", "team-alfa")

	w := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "chefe@medmais.com", "password": "errada"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	session := f.login(t, " CHEFE@medmais.com ")
	assert.Equal(t, "Bearer", session["token_type"])

	w = f.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": session["refresh_token"]})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": session["access_token"]})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/me", session["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		LandingPath    string   `json:"landing_path"`
		Capabilities   []string `json:"capabilities"`
		UnseenReleases []any    `json:"unseen_releases"`
	}
	decodeBody(t, w, &me)
	assert.Equal(t, "/dashboard-chefe", me.LandingPath)
	assert.Contains(t, me.Capabilities, "submissions.create")
	assert.NotEmpty(t, me.UnseenReleases)

	w = f.do(t, http.MethodPost, "/api/releases/seen", session["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, "/api/me", session["access_token"].(string), nil)
	decodeBody(t, w, &me)
	assert.Empty(t, me.UnseenReleases)
}

func TestSubmissionLifecycleAndScoping(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "chefe@medmais.com", "chefe", "base-goiania", "team-alfa")
	f.addUser(t, "outro@medmais.com", "chefe", "base-goiania", "team-alfa")
	f.addUser(t, "gerente@medmais.com", "geral", "", "")
	lead := f.token(t, "chefe@medmais.com")
	peer := f.token(t, "outro@medmais.com")
	manager := f.token(t, "gerente@medmais.com")

	w := f.do(t, http.MethodPost, "/api/submissions", manager, training)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/submissions", lead, training)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID      string `json:"id"`
		BaseID  string `json:"base_id"`
		Summary string `json:"summary"`
	}
	decodeBody(t, w, &created)
	assert.Equal(t, "base-goiania", created.BaseID)
	assert.Equal(t, "1 participante - 01:30", created.Summary)

	w = f.do(t, http.MethodGet, "/api/submissions", lead, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

	w = f.do(t, http.MethodGet, "/api/submissions?from=2024-01-01&to=2025-03-10", lead, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/api/submissions/"+created.ID, peer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	bad := map[string]any{"reference_date": "2025-03-09", "payload": map[string]any{"participantes": []any{}}}
	w = f.do(t, http.MethodPut, "/api/submissions/"+created.ID, lead, bad)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodDelete, "/api/submissions/"+created.ID, lead, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, http.MethodDelete, "/api/submissions/"+created.ID, lead, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	audits, err := f.store.ListAudit(context.Background(), "submission:"+created.ID, 10)
	require.NoError(t, err)
	assert.Len(t, audits, 2)
}

func TestIdempotentCreateReplays(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "chefe@medmais.com", "chefe", "base-goiania", "team-alfa")
	lead := f.token(t, "chefe@medmais.com")

	first := f.do(t, http.MethodPost, "/api/submissions", lead, training, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := f.do(t, http.MethodPost, "/api/submissions", lead, training, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	n, err := f.store.CountSubmissions(context.Background(), store.SubmissionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestComplianceRequiresManager(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "chefe@medmais.com", "chefe", "base-goiania", "team-alfa")
	f.addUser(t, "gerente@medmais.com", "geral", "", "")
	lead := f.token(t, "chefe@medmais.com")
	manager := f.token(t, "gerente@medmais.com")

	w := f.do(t, http.MethodPost, "/api/submissions", lead, training)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodGet, "/api/compliance?month=2025-03", lead, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	var problem struct {
		Redirect string `json:"redirect"`
	}
	decodeBody(t, w, &problem)
	assert.Equal(t, "/dashboard-chefe", problem.Redirect)

	w = f.do(t, http.MethodGet, "/api/compliance?month=2025-03", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var board struct {
		Month string `json:"month"`
		Bases []struct {
			Base struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"base"`
			Daily []struct {
				Kind   string `json:"kind"`
				Status string `json:"status"`
			} `json:"daily"`
		} `json:"bases"`
	}
	decodeBody(t, w, &board)
	require.NotEmpty(t, board.Bases)
	for _, b := range board.Bases {
		assert.NotEqual(t, "ADMINISTRATIVO", b.Base.Name)
		if b.Base.ID == "base-goiania" {
			for _, d := range b.Daily {
				if d.Kind == "treinamento" {
					assert.Equal(t, "ok", d.Status)
				}
			}
		}
	}

	w = f.do(t, http.MethodGet, "/api/compliance?month=2025-13", manager, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/compliance/chart?month=2025-03", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "GOIÂNIA")

	w = f.do(t, http.MethodGet, "/api/compliance/inactive", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/analytics/treinamento?from=2025-03-01&to=2025-03-10", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_hours":1.5`)

	w = f.do(t, http.MethodGet, "/api/analytics/inexistente", manager, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportAndArchive(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "chefe@medmais.com", "chefe", "base-goiania", "team-alfa")
	f.addUser(t, "gerente@medmais.com", "geral", "", "")
	lead := f.token(t, "chefe@medmais.com")
	manager := f.token(t, "gerente@medmais.com")
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/submissions", lead, training).Code)

	w := f.do(t, http.MethodGet, "/api/export/submissions.csv", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	csv := w.Body.String()
	assert.True(t, strings.HasPrefix(csv, "\ufeffData,Base,Equipe"))
	assert.Contains(t, csv, "10/03/2025,GOIÂNIA,ALFA")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "relatorio_10032025.csv")

	w = f.do(t, http.MethodPost, "/api/export/archive", lead, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/export/archive", manager, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var archived archiveResponse
	decodeBody(t, w, &archived)
	assert.Equal(t, 1, archived.Rows)

	w = f.do(t, http.MethodGet, archived.Download, manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, csv, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/export/archive/sha256:zz", manager, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsersCollaboratorsAndFeedback(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "sci@medmais.com", "gerente_sci", "base-goiania", "")
	f.addUser(t, "gerente@medmais.com", "geral", "", "")
	sci := f.token(t, "sci@medmais.com")
	manager := f.token(t, "gerente@medmais.com")

	newLead := map[string]any{
		"email": "novo@medmais.com", "nome": "Novo Chefe", "password": password,
		"role": "chefe", "base_id": "base-brasilia", "equipe_id": "team-bravo",
	}
	w := f.do(t, http.MethodPost, "/api/users", sci, newLead)
	assert.Equal(t, http.StatusForbidden, w.Code)

	newLead["base_id"] = "base-goiania"
	w = f.do(t, http.MethodPost, "/api/users", sci, newLead)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = f.do(t, http.MethodPost, "/api/users", sci, newLead)
	assert.Equal(t, http.StatusConflict, w.Code)

	lead := f.token(t, "novo@medmais.com")
	w = f.do(t, http.MethodGet, "/api/users", lead, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/collaborators", sci, map[string]any{"base_id": "base-goiania", "nomes": []string{" Ana ", "", "Bia"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, w, &created)
	require.Len(t, created, 2)
	assert.Equal(t, "Ana", created[0].Name)

	w = f.do(t, http.MethodDelete, "/api/collaborators/"+created[0].ID, sci, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, "/api/collaborators", lead, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roster []map[string]any
	decodeBody(t, w, &roster)
	assert.Len(t, roster, 1)

	w = f.do(t, http.MethodPost, "/api/feedback", lead, map[string]string{"type": "bug", "message": "Erro ao salvar"})
	require.Equal(t, http.StatusCreated, w.Code)
	var ticket struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &ticket)

	w = f.do(t, http.MethodPatch, "/api/feedback/"+ticket.ID, lead, map[string]string{"status": "resolvido"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(t, http.MethodPatch, "/api/feedback/"+ticket.ID, lead, map[string]string{"resposta_suporte": "ok"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(t, http.MethodPatch, "/api/feedback/"+ticket.ID, manager, map[string]string{"tratativa_tipo": "ignorado"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPatch, "/api/feedback/"+ticket.ID, manager, map[string]string{
		"tratativa_tipo": "respondido_usuario", "resposta_suporte": "Use o botão Salvar rascunho.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var handled struct {
		Status    string `json:"status"`
		Treatment string `json:"tratativa_tipo"`
		Reply     string `json:"resposta_suporte"`
	}
	decodeBody(t, w, &handled)
	assert.Equal(t, "pendente", handled.Status)
	assert.Equal(t, "respondido_usuario", handled.Treatment)
	assert.Equal(t, "Use o botão Salvar rascunho.", handled.Reply)

	w = f.do(t, http.MethodPatch, "/api/feedback/"+ticket.ID, manager, map[string]string{"status": "fechado"})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPatch, "/api/feedback/"+ticket.ID, manager, map[string]string{"status": "em_andamento"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodGet, "/api/feedback", lead, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []struct {
		Status string `json:"status"`
		Reply  string `json:"resposta_suporte"`
	}
	decodeBody(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "fechado", mine[0].Status)
	assert.Equal(t, "Use o botão Salvar rascunho.", mine[0].Reply)
}

func TestChangeOwnPassword(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "chefe@medmais.com", "chefe", "base-goiania", "team-alfa")
	lead := f.token(t, "chefe@medmais.com")

	change := func(current, next, confirm string) int {
		return f.do(t, http.MethodPut, "/api/me/password", lead, map[string]string{
			"current_password": current, "new_password": next, "confirm_password": confirm,
		}).Code
	}
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPut, "/api/me/password", "", map[string]string{}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, change(password, "novasenha", "outrasenha"))
	assert.Equal(t, http.StatusForbidden, change("errada123", "novasenha", "novasenha"))
	assert.Equal(t, http.StatusUnprocessableEntity, change(password, "123", "123"))
	require.Equal(t, http.StatusNoContent, change(password, "novasenha", "novasenha"))

	w := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "chefe@medmais.com", "password": password})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "chefe@medmais.com", "password": "novasenha"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
