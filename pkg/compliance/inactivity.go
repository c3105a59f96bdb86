package compliance

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
)

// DefaultInactivityDays is the silence after which a team lead is inactive.
const DefaultInactivityDays = 30

// Lead is a user expected to submit reports.
type Lead struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	BaseID string `json:"base_id"`
	TeamID string `json:"team_id"`
}

// InactiveLead is a lead with no submission inside the inactivity window.
type InactiveLead struct {
	Lead
	LastSubmission *calendar.Date `json:"last_submission,omitempty"`
}

// InactiveLeads returns the leads whose latest submission is older than
// days before today, or who never submitted. Malformed dates are ignored.
func InactiveLeads(today calendar.Date, leads []Lead, submissions []Submission, days int) []InactiveLead {
	latest := make(map[string]calendar.Date)
	for _, s := range submissions {
		if s.UserID == "" {
			continue
		}
		ref, err := calendar.Parse(s.ReferenceDate)
		if err != nil {
			continue
		}
		if cur, ok := latest[s.UserID]; !ok || ref.After(cur) {
			latest[s.UserID] = ref
		}
	}
	return InactiveFromLatest(today, leads, latest, days)
}

// InactiveFromLatest is InactiveLeads over a precomputed latest reference
// date per user id.
func InactiveFromLatest(today calendar.Date, leads []Lead, latest map[string]calendar.Date, days int) []InactiveLead {
	if days <= 0 {
		days = DefaultInactivityDays
	}
	cutoff := today.AddDays(-days)

	out := make([]InactiveLead, 0)
	for _, l := range leads {
		last, ok := latest[l.UserID]
		if ok && !last.Before(cutoff) {
			continue
		}
		il := InactiveLead{Lead: l}
		if ok {
			lastCopy := last
			il.LastSubmission = &lastCopy
		}
		out = append(out, il)
	}

	c := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}
