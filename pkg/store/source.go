package store

import (
	"context"
	"fmt"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/compliance"
)

// ComplianceSource adapts SQLStore to compliance.Source.
type ComplianceSource struct {
	store *SQLStore
}

// NewComplianceSource creates the adapter.
func NewComplianceSource(s *SQLStore) *ComplianceSource {
	return &ComplianceSource{store: s}
}

var _ compliance.Source = (*ComplianceSource)(nil)

func (c *ComplianceSource) ListBases(ctx context.Context) ([]compliance.Base, error) {
	bases, err := c.store.ListBases(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]compliance.Base, 0, len(bases))
	for _, b := range bases {
		out = append(out, compliance.Base{ID: b.ID, Name: b.Name})
	}
	return out, nil
}

func (c *ComplianceSource) ListSubmissions(ctx context.Context, window calendar.Range) ([]compliance.Submission, error) {
	subs, err := c.store.ListSubmissions(ctx, SubmissionFilter{
		From: window.From.String(),
		To:   window.To.String(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]compliance.Submission, 0, len(subs))
	for _, s := range subs {
		out = append(out, compliance.Submission{
			ID:            s.ID,
			BaseID:        s.BaseID,
			UserID:        s.UserID,
			Kind:          s.Kind,
			ReferenceDate: s.ReferenceDate,
		})
	}
	return out, nil
}

// LastSubmissions returns the latest reference date per user.
func (c *ComplianceSource) LastSubmissions(ctx context.Context) (map[string]string, error) {
	return c.store.LastSubmissionByUser(ctx)
}

// ListLeads returns the active team leads (chefe and auxiliar).
func (c *ComplianceSource) ListLeads(ctx context.Context) ([]compliance.Lead, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, name, base_id, team_id FROM profiles
		WHERE role IN ('chefe', 'auxiliar') AND active = $1
		ORDER BY name`, true)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]compliance.Lead, 0)
	for rows.Next() {
		var (
			l          compliance.Lead
			base, team *string
		)
		if err := rows.Scan(&l.UserID, &l.Name, &base, &team); err != nil {
			return nil, err
		}
		if base != nil {
			l.BaseID = *base
		}
		if team != nil {
			l.TeamID = *team
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
