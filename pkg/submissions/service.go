// Package submissions applies ownership and scoping rules to the reports
// (lançamentos) written by team leads.
package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/audit"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/indicator"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

var (
	// ErrInvalid is returned for malformed input.
	ErrInvalid = errors.New("invalid submission")
	// ErrForbidden is returned when the principal may not touch the submission.
	ErrForbidden = errors.New("submission not accessible")
)

// Paging bounds of List.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Store is the persistence used by Service.
type Store interface {
	CreateSubmission(ctx context.Context, sub *store.Submission) error
	GetSubmission(ctx context.Context, id string) (store.Submission, error)
	UpdateSubmission(ctx context.Context, sub *store.Submission) error
	DeleteSubmission(ctx context.Context, id string) error
	ListSubmissions(ctx context.Context, f store.SubmissionFilter) ([]store.Submission, error)
	CountSubmissions(ctx context.Context, f store.SubmissionFilter) (int, error)
}

// Input is the body of a create or update.
type Input struct {
	Kind          catalog.Kind    `json:"indicator_kind"`
	ReferenceDate string          `json:"reference_date"`
	Payload       json.RawMessage `json:"payload"`
}

// Query filters List. Base and team are narrowed to what the principal may
// read.
type Query struct {
	BaseID string
	TeamID string
	Kinds  []catalog.Kind
	Range  calendar.Range
	Limit  int
	Offset int
}

// Page is one page of a listing.
type Page struct {
	Items  []store.Submission `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// Service validates and stores submissions.
type Service struct {
	store   Store
	catalog *catalog.Catalog
	audit   audit.Logger
	logger  *slog.Logger
}

// NewService creates a Service. A nil audit logger discards events.
func NewService(s Store, cat *catalog.Catalog, a audit.Logger) *Service {
	if a == nil {
		a = audit.Nop{}
	}
	return &Service{
		store:   s,
		catalog: cat,
		audit:   a,
		logger:  slog.Default().With("component", "submissions"),
	}
}

// Create stores a new submission for the principal's base and team.
func (s *Service) Create(ctx context.Context, p auth.Principal, in Input) (store.Submission, error) {
	if !p.Can(authz.CapSubmissionsCreate) {
		return store.Submission{}, ErrForbidden
	}
	if p.GetBaseID() == "" || p.GetTeamID() == "" {
		return store.Submission{}, fmt.Errorf("%w: user has no base or team", ErrInvalid)
	}
	if _, err := s.catalog.Lookup(in.Kind); err != nil {
		return store.Submission{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	date, payload, hash, err := s.prepare(in.Kind, in)
	if err != nil {
		return store.Submission{}, err
	}

	sub := &store.Submission{
		BaseID:        p.GetBaseID(),
		TeamID:        p.GetTeamID(),
		UserID:        p.GetID(),
		Kind:          in.Kind,
		ReferenceDate: date.String(),
		Payload:       payload,
		PayloadHash:   hash,
	}
	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return store.Submission{}, err
	}
	s.record(ctx, "submission.create", sub)
	return *sub, nil
}

// Update rewrites the date and payload of submission id. The kind cannot
// change.
func (s *Service) Update(ctx context.Context, p auth.Principal, id string, in Input) (store.Submission, error) {
	current, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return store.Submission{}, err
	}
	if !CanModify(p, current) {
		return store.Submission{}, ErrForbidden
	}
	if in.Kind != "" && in.Kind != current.Kind {
		return store.Submission{}, fmt.Errorf("%w: indicator kind cannot change", ErrInvalid)
	}
	date, payload, hash, err := s.prepare(current.Kind, in)
	if err != nil {
		return store.Submission{}, err
	}

	next := current
	next.ReferenceDate = date.String()
	next.Payload = payload
	next.PayloadHash = hash
	if err := s.store.UpdateSubmission(ctx, &next); err != nil {
		return store.Submission{}, err
	}
	s.record(ctx, "submission.update", &next)
	return next, nil
}

// Delete removes submission id.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id string) error {
	current, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(p, current) {
		return ErrForbidden
	}
	if err := s.store.DeleteSubmission(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "submission.delete", &current)
	return nil
}

// List returns one page of the submissions visible to p.
func (s *Service) List(ctx context.Context, p auth.Principal, q Query) (Page, error) {
	f, err := Scope(p, q)
	if err != nil {
		return Page{}, err
	}
	total, err := s.store.CountSubmissions(ctx, f)
	if err != nil {
		return Page{}, err
	}
	items, err := s.store.ListSubmissions(ctx, f)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// All returns every submission visible to p, ignoring paging. Used by
// exports and analytics.
func (s *Service) All(ctx context.Context, p auth.Principal, q Query) ([]store.Submission, error) {
	f, err := Scope(p, q)
	if err != nil {
		return nil, err
	}
	f.Limit, f.Offset = 0, 0
	return s.store.ListSubmissions(ctx, f)
}

// Scope turns q into a store filter restricted to what p may read:
// managers read everything, base viewers their base, and team leads their
// own base and team.
func Scope(p auth.Principal, q Query) (store.SubmissionFilter, error) {
	f := store.SubmissionFilter{
		BaseID: q.BaseID,
		TeamID: q.TeamID,
		Kinds:  q.Kinds,
		Limit:  q.Limit,
		Offset: max(q.Offset, 0),
	}
	if !q.Range.From.IsZero() {
		f.From = q.Range.From.String()
	}
	if !q.Range.To.IsZero() {
		f.To = q.Range.To.String()
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}

	switch {
	case p.Can(authz.CapExplorerView):
	case p.Can(authz.CapBaseSubmissionsView):
		if p.GetBaseID() == "" || (f.BaseID != "" && f.BaseID != p.GetBaseID()) {
			return store.SubmissionFilter{}, ErrForbidden
		}
		f.BaseID = p.GetBaseID()
	case p.GetRole().IsLead():
		if (f.BaseID != "" && f.BaseID != p.GetBaseID()) || (f.TeamID != "" && f.TeamID != p.GetTeamID()) {
			return store.SubmissionFilter{}, ErrForbidden
		}
		f.BaseID, f.TeamID = p.GetBaseID(), p.GetTeamID()
	default:
		return store.SubmissionFilter{}, ErrForbidden
	}
	return f, nil
}

// CanModify reports whether p may edit or delete sub. Team leads change
// only their own submissions within their base and team.
func CanModify(p auth.Principal, sub store.Submission) bool {
	if p.Can(authz.CapSubmissionsEditAny) {
		return true
	}
	if !p.Can(authz.CapSubmissionsCreate) {
		return false
	}
	return sub.UserID == p.GetID() && sub.BaseID == p.GetBaseID() && sub.TeamID == p.GetTeamID()
}

func (s *Service) prepare(kind catalog.Kind, in Input) (calendar.Date, json.RawMessage, string, error) {
	date, err := calendar.Parse(in.ReferenceDate)
	if err != nil {
		return calendar.Date{}, nil, "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(in.Payload) == 0 {
		return calendar.Date{}, nil, "", fmt.Errorf("%w: payload is required", ErrInvalid)
	}
	_, payload, err := indicator.Normalize(kind, in.Payload)
	if err != nil {
		return calendar.Date{}, nil, "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	hash, err := indicator.Hash(payload)
	if err != nil {
		return calendar.Date{}, nil, "", err
	}
	return date, payload, hash, nil
}

func (s *Service) record(ctx context.Context, action string, sub *store.Submission) {
	meta := map[string]any{
		"base_id":        sub.BaseID,
		"team_id":        sub.TeamID,
		"indicator_kind": string(sub.Kind),
		"reference_date": sub.ReferenceDate,
		"payload_hash":   sub.PayloadHash,
	}
	if err := s.audit.Record(ctx, audit.EventMutation, action, "submission:"+sub.ID, meta); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", action, "error", err)
	}
}
