package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/audit"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/compliance"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/config"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/users"
)

func runMigrateCmd(args []string, stdout, stderr io.Writer) int {
	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}
	if direction != "up" && direction != "down" {
		fmt.Fprintf(stderr, "Usage: medmais migrate [up|down]\n")
		return 2
	}

	cfg := config.Load()
	db, dialect, err := store.Open(cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	if direction == "up" {
		err = store.MigrateUp(db, dialect)
	} else {
		err = store.MigrateDown(db, dialect)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%sMigration failed:%s %v\n", ColorRed, ColorReset, err)
		return 1
	}

	v, dirty, err := store.MigrateVersion(db, dialect)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	state := ""
	if dirty {
		state = " (dirty)"
	}
	fmt.Fprintf(stdout, "%s✓%s %s migration %s, schema version %d%s\n", ColorGreen, ColorReset, dialect, direction, v, state)
	return 0
}

//nolint:gocyclo
func runEvaluateCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		month   string
		today   string
		jsonOut bool
	)
	cmd.StringVar(&month, "month", "", "Target month YYYY-MM (default: current month)")
	cmd.StringVar(&today, "today", "", "Evaluate as of YYYY-MM-DD (default: now in TIMEZONE)")
	cmd.BoolVar(&jsonOut, "json", false, "Output JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	loc := calendar.LoadLocation(cfg.Timezone)
	var clock calendar.Clock = calendar.RealClock{Location: loc}
	if today != "" {
		d, err := calendar.Parse(today)
		if err != nil {
			fmt.Fprintf(stderr, "Error: --today: %v\n", err)
			return 2
		}
		clock = calendar.NewMockClock(time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, loc))
	}

	target := calendar.Today(clock).MonthOf()
	if month != "" {
		m, err := calendar.ParseMonth(month)
		if err != nil {
			fmt.Fprintf(stderr, "Error: --month: %v\n", err)
			return 2
		}
		target = m
	}

	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = st.DB().Close() }()

	cat, err := loadCatalog(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	eval := compliance.NewEvaluator(store.NewComplianceSource(st), cat).
		WithClock(clock).
		WithAdministrativeBase(cfg.AdminBaseName)
	board, err := eval.Board(context.Background(), target)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if jsonOut {
		data, err := json.MarshalIndent(board, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(data))
		return 0
	}

	printBoard(stdout, board)
	return 0
}

func printBoard(w io.Writer, board compliance.Board) {
	state := "aberto"
	if board.MonthClosed {
		state = "fechado"
	}
	fmt.Fprintf(w, "%sAderência %s%s (hoje %s, mês %s)\n\n", ColorBold, board.Month, ColorReset, board.Today.BR(), state)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BASE\tDIÁRIOS\tMENSAL\tENTREGUES\tÚLTIMA OCORRÊNCIA")
	for _, b := range board.Bases {
		daily := "ok"
		if !b.AllDailyOK() {
			var late []string
			for _, d := range b.Daily {
				if d.Status != compliance.DailyOK {
					late = append(late, string(d.Kind)+"="+string(d.Status))
				}
			}
			daily = strings.Join(late, ",")
		}
		last := "-"
		if b.Events.LastOccurrence != nil {
			last = b.Events.LastOccurrence.BR()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
			b.Base.Name, daily, b.Monthly.Status, b.Monthly.CompliantCount, b.Monthly.Required, last)
	}
	_ = tw.Flush()

	s := board.Summary
	fmt.Fprintf(w, "\n%d bases: %s%d em dia%s, %s%d conformes%s, %s%d pendentes%s, %s%d não conformes%s\n",
		s.Bases,
		ColorGreen, s.DailyAllOK, ColorReset,
		ColorGreen, s.MonthlyCompliant, ColorReset,
		ColorYellow, s.MonthlyPending, ColorReset,
		ColorRed, s.MonthlyNonCompliant, ColorReset)
	if s.Excluded > 0 {
		fmt.Fprintf(w, "%s%d registros ignorados (ver logs)%s\n", ColorGray, s.Excluded, ColorReset)
	}
}

func runCreateUserCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("create-user", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var req users.Request
	var sciAccess bool
	cmd.StringVar(&req.Email, "email", "", "Login email (REQUIRED)")
	cmd.StringVar(&req.Name, "name", "", "Display name (REQUIRED)")
	cmd.StringVar(&req.Role, "role", string(authz.RoleManager), "geral, gerente_sci, chefe or auxiliar")
	cmd.StringVar(&req.BaseID, "base", "", "Base id (gerente_sci, chefe, auxiliar)")
	cmd.StringVar(&req.TeamID, "team", "", "Team id (chefe, auxiliar)")
	cmd.StringVar(&req.Password, "password", "", "Initial password (REQUIRED)")
	cmd.BoolVar(&sciAccess, "sci-access", false, "Grant acesso_gerente_sci to a chefe")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		fmt.Fprintln(stderr, "Error: --email, --name and --password are required")
		return 2
	}
	if sciAccess {
		req.SCIManagerAccess = &sciAccess
	}

	cfg := config.Load()
	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = st.DB().Close() }()

	svc := users.NewService(st, audit.NewStoreLogger(st))
	p, err := svc.Create(context.Background(), users.Caller{Role: authz.RoleManager}, req)
	if err != nil {
		fmt.Fprintf(stderr, "%sError:%s %v\n", ColorRed, ColorReset, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s✓%s created %s (%s) id=%s\n", ColorGreen, ColorReset, p.Email, p.Role, p.ID)
	return 0
}

var healthURL = func(cfg *config.Config) string {
	return "http://localhost:" + cfg.HealthPort + "/health"
}

func runHealthCmd(stdout, stderr io.Writer) int {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(healthURL(config.Load()))
	if err != nil {
		fmt.Fprintf(stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "Unhealthy: %d %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
		return 1
	}
	fmt.Fprintln(stdout, strings.TrimSpace(string(body)))
	return 0
}
