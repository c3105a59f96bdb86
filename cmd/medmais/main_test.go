package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/compliance"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/config"
)

func liteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("CATALOG_PATH", "")
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"medmais"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_DefaultStartsServer(t *testing.T) {
	orig := startServer
	defer func() { startServer = orig }()

	calls := 0
	startServer = func(io.Writer, io.Writer) int {
		calls++
		return 0
	}

	for _, args := range [][]string{nil, {"serve"}, {"server"}, {"--port=9"}} {
		if code, _, _ := run(args...); code != 0 {
			t.Errorf("Run(%v) = %d, want 0", args, code)
		}
	}
	if calls != 4 {
		t.Errorf("startServer called %d times, want 4", calls)
	}
}

func TestRun_HelpAndUnknown(t *testing.T) {
	code, out, _ := run("help")
	if code != 0 {
		t.Fatalf("help exit = %d", code)
	}
	for _, cmd := range []string{"serve", "migrate", "evaluate", "create-user", "health"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("usage missing %q", cmd)
		}
	}

	code, _, errOut := run("frobnicate")
	if code != 2 {
		t.Errorf("unknown command exit = %d, want 2", code)
	}
	if !strings.Contains(errOut, "Unknown command: frobnicate") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := run("version")
	if code != 0 || !strings.Contains(out, "medmais "+version) {
		t.Errorf("version = %d %q", code, out)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("WARN", "json", &buf)
	l.Info("hidden")
	l.Warn("shown", "base", "GOIÂNIA")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at WARN level")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("not JSON: %q", out)
	}
	if rec["msg"] != "shown" || rec["base"] != "GOIÂNIA" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	newLogger("bogus", "text", &buf).Info("fallback")
	if !strings.Contains(buf.String(), "msg=fallback") {
		t.Errorf("text logger output = %q", buf.String())
	}
}

func TestMigrate(t *testing.T) {
	liteEnv(t)

	code, out, errOut := run("migrate")
	if code != 0 {
		t.Fatalf("migrate up = %d: %s", code, errOut)
	}
	if !strings.Contains(out, "sqlite migration up") {
		t.Errorf("stdout = %q", out)
	}

	if code, _, _ := run("migrate", "sideways"); code != 2 {
		t.Errorf("bad direction exit = %d, want 2", code)
	}
}

func TestEvaluate(t *testing.T) {
	liteEnv(t)

	code, out, errOut := run("evaluate", "--month", "2025-03", "--today", "2025-03-10", "--json")
	if code != 0 {
		t.Fatalf("evaluate = %d: %s", code, errOut)
	}
	var board compliance.Board
	if err := json.Unmarshal([]byte(out), &board); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if board.Month.String() != "2025-03" || board.MonthClosed {
		t.Errorf("month = %s closed=%v", board.Month, board.MonthClosed)
	}
	if len(board.Bases) != 9 {
		t.Errorf("bases = %d, want 9 (administrative base excluded)", len(board.Bases))
	}
	for _, b := range board.Bases {
		if b.Monthly.Status != compliance.MonthPending {
			t.Errorf("%s monthly = %s, want pending", b.Base.Name, b.Monthly.Status)
		}
	}

	code, out, _ = run("evaluate", "--month", "2025-02", "--today", "2025-03-10")
	if code != 0 {
		t.Fatalf("evaluate text = %d", code)
	}
	if !strings.Contains(out, "GOIÂNIA") || strings.Contains(out, "ADMINISTRATIVO") {
		t.Errorf("table = %q", out)
	}
	if !strings.Contains(out, "mês fechado") || !strings.Contains(out, "non-compliant") {
		t.Errorf("closed month not reported: %q", out)
	}

	if code, _, _ := run("evaluate", "--month", "2025-13"); code != 2 {
		t.Errorf("bad month exit = %d, want 2", code)
	}
}

func TestCreateUser(t *testing.T) {
	liteEnv(t)

	args := []string{"create-user", "--email", "Admin@MedMais.app", "--name", "Admin", "--password", "segredo123"}
	code, out, errOut := run(args...)
	if code != 0 {
		t.Fatalf("create-user = %d: %s", code, errOut)
	}
	if !strings.Contains(out, "admin@medmais.app (geral)") {
		t.Errorf("stdout = %q", out)
	}

	if code, _, errOut := run(args...); code != 1 || !strings.Contains(errOut, "email already registered") {
		t.Errorf("duplicate = %d %q", code, errOut)
	}

	code, _, errOut = run("create-user", "--email", "chefe@medmais.app", "--name", "Chefe",
		"--password", "segredo123", "--role", "chefe", "--base", "base-goiania")
	if code != 1 || !strings.Contains(errOut, "requires base_id and equipe_id") {
		t.Errorf("lead without team = %d %q", code, errOut)
	}

	code, _, _ = run("create-user", "--email", "chefe@medmais.app", "--name", "Chefe",
		"--password", "segredo123", "--role", "chefe", "--base", "base-goiania", "--team", "team-alfa", "--sci-access")
	if code != 0 {
		t.Errorf("lead with flag = %d", code)
	}

	if code, _, _ := run("create-user", "--email", "x@medmais.app"); code != 2 {
		t.Errorf("missing flags exit = %d, want 2", code)
	}
}

func TestHealth(t *testing.T) {
	healthy := true
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("DB UNAVAILABLE"))
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer ts.Close()

	orig := healthURL
	defer func() { healthURL = orig }()
	healthURL = func(*config.Config) string { return ts.URL + "/health" }

	if code, out, _ := run("health"); code != 0 || strings.TrimSpace(out) != "OK" {
		t.Errorf("healthy = %d %q", code, out)
	}
	healthy = false
	if code, _, errOut := run("health"); code != 1 || !strings.Contains(errOut, "503") {
		t.Errorf("unhealthy = %d %q", code, errOut)
	}
}
