package compliance

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// DefaultAdministrativeBase is the base excluded from compliance tracking.
const DefaultAdministrativeBase = "ADMINISTRATIVO"

// Board is the compliance grid across all tracked bases.
type Board struct {
	Today       calendar.Date          `json:"today"`
	Month       calendar.Month         `json:"month"`
	MonthClosed bool                   `json:"month_closed"`
	Bases       []BaseComplianceStatus `json:"bases"`
	Summary     BoardSummary           `json:"summary"`
}

// BoardSummary counts bases per outcome.
type BoardSummary struct {
	Bases               int `json:"bases"`
	DailyAllOK          int `json:"daily_all_ok"`
	MonthlyCompliant    int `json:"monthly_compliant"`
	MonthlyPending      int `json:"monthly_pending"`
	MonthlyNonCompliant int `json:"monthly_non_compliant"`
	Excluded            int `json:"excluded"`
}

// IsAdministrative reports whether base is the administrative base named admin.
func IsAdministrative(base Base, admin string) bool {
	if admin == "" {
		admin = DefaultAdministrativeBase
	}
	return strings.EqualFold(strings.TrimSpace(base.Name), admin)
}

// EvaluateBoard classifies every base except the administrative one and
// returns them in pt-BR alphabetical order.
func EvaluateBoard(
	today calendar.Date,
	bases []Base,
	submissions []Submission,
	cat *catalog.Catalog,
	target calendar.Month,
	targetClosed bool,
	adminBase string,
) (Board, error) {
	byBase := make(map[string][]Submission, len(bases))
	for _, s := range submissions {
		byBase[s.BaseID] = append(byBase[s.BaseID], s)
	}

	tracked := make([]Base, 0, len(bases))
	for _, b := range bases {
		if !IsAdministrative(b, adminBase) {
			tracked = append(tracked, b)
		}
	}
	SortBases(tracked)

	board := Board{
		Today:       today,
		Month:       target,
		MonthClosed: targetClosed,
		Bases:       make([]BaseComplianceStatus, 0, len(tracked)),
	}
	for _, b := range tracked {
		st, err := Evaluate(today, b, byBase[b.ID], cat, target, targetClosed)
		if err != nil {
			return Board{}, err
		}
		board.Bases = append(board.Bases, st)
		board.Summary.add(st)
	}
	return board, nil
}

func (s *BoardSummary) add(st BaseComplianceStatus) {
	s.Bases++
	if st.AllDailyOK() {
		s.DailyAllOK++
	}
	switch st.Monthly.Status {
	case MonthCompliant:
		s.MonthlyCompliant++
	case MonthPending:
		s.MonthlyPending++
	case MonthNonCompliant:
		s.MonthlyNonCompliant++
	}
	s.Excluded += len(st.Excluded)
}

// SortBases orders bases by name using Brazilian Portuguese collation.
func SortBases(bases []Base) {
	c := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(bases, func(i, j int) bool {
		return c.CompareString(bases[i].Name, bases[j].Name) < 0
	})
}
