package exports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/indicator"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

// utf8BOM makes spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

// Header is the first CSV line.
var Header = []string{"Data", "Base", "Equipe", "Indicador", "Resumo", "Dados"}

// Row is one exported submission.
type Row struct {
	Date      string
	Base      string
	Team      string
	Indicator string
	Summary   string
	Payload   string
}

func (r Row) record() []string {
	return []string{r.Date, r.Base, r.Team, r.Indicator, r.Summary, r.Payload}
}

// Rows converts submissions into export rows. Ids missing from bases or
// teams are exported as-is.
func Rows(subs []store.Submission, cat *catalog.Catalog, bases, teams map[string]string) []Row {
	out := make([]Row, 0, len(subs))
	for _, s := range subs {
		date := s.ReferenceDate
		if d, err := calendar.Parse(s.ReferenceDate); err == nil {
			date = d.BR()
		}
		out = append(out, Row{
			Date:      date,
			Base:      lookup(bases, s.BaseID),
			Team:      lookup(teams, s.TeamID),
			Indicator: cat.DisplayName(s.Kind),
			Summary:   indicator.SummaryOf(s.Kind, s.Payload),
			Payload:   string(s.Payload),
		})
	}
	return out
}

func lookup(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}

// WriteCSV writes a BOM, the header and rows.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename is the download name for an export generated on day.
func Filename(prefix string, day calendar.Date) string {
	if prefix == "" {
		prefix = "relatorio"
	}
	return fmt.Sprintf("%s_%02d%02d%04d.csv", prefix, day.Day, int(day.Month), day.Year)
}
