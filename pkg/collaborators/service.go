// Package collaborators manages the firefighter roster of each base.
package collaborators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/audit"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

var (
	ErrInvalid   = errors.New("invalid collaborator")
	ErrForbidden = errors.New("collaborator not accessible")
)

// Store is the persistence used by Service.
type Store interface {
	ListCollaborators(ctx context.Context, baseID string, includeInactive bool) ([]store.Collaborator, error)
	GetCollaborator(ctx context.Context, id string) (store.Collaborator, error)
	CreateCollaborators(ctx context.Context, cs []*store.Collaborator) error
	UpdateCollaborator(ctx context.Context, c *store.Collaborator) error
	GetBase(ctx context.Context, id string) (store.Base, error)
}

// Update is the body of an edit. Nil fields keep the stored value.
type Update struct {
	Name   *string `json:"nome,omitempty"`
	Active *bool   `json:"ativo,omitempty"`
}

// Service applies roster rules on top of Store.
type Service struct {
	store  Store
	audit  audit.Logger
	logger *slog.Logger
}

func NewService(s Store, a audit.Logger) *Service {
	if a == nil {
		a = audit.Nop{}
	}
	return &Service{store: s, audit: a, logger: slog.Default().With("component", "collaborators")}
}

// List returns the roster of baseID. Principals bound to a base always get
// their own roster; only managers may pick any base or see inactive entries.
func (s *Service) List(ctx context.Context, p auth.Principal, baseID string, includeInactive bool) ([]store.Collaborator, error) {
	if p.GetRole() != authz.RoleManager {
		if baseID != "" && baseID != p.GetBaseID() {
			return nil, ErrForbidden
		}
		baseID = p.GetBaseID()
		includeInactive = includeInactive && p.Can(authz.CapCollaboratorsManage)
	}
	return s.store.ListCollaborators(ctx, baseID, includeInactive)
}

// Create adds every name to the roster of baseID in one transaction.
func (s *Service) Create(ctx context.Context, p auth.Principal, baseID string, names []string) ([]store.Collaborator, error) {
	if err := s.checkBase(p, baseID); err != nil {
		return nil, err
	}
	cleaned, err := CleanNames(names)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetBase(ctx, baseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: base %q does not exist", ErrInvalid, baseID)
		}
		return nil, err
	}

	batch := make([]*store.Collaborator, 0, len(cleaned))
	for _, n := range cleaned {
		batch = append(batch, &store.Collaborator{BaseID: baseID, Name: n})
	}
	if err := s.store.CreateCollaborators(ctx, batch); err != nil {
		return nil, err
	}

	out := make([]store.Collaborator, 0, len(batch))
	for _, c := range batch {
		out = append(out, *c)
	}
	s.record(ctx, "collaborator.create", "base:"+baseID, map[string]any{"count": len(out)})
	return out, nil
}

// Edit renames or (de)activates collaborator id.
func (s *Service) Edit(ctx context.Context, p auth.Principal, id string, u Update) (store.Collaborator, error) {
	c, err := s.store.GetCollaborator(ctx, id)
	if err != nil {
		return store.Collaborator{}, err
	}
	if err := s.checkBase(p, c.BaseID); err != nil {
		return store.Collaborator{}, err
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return store.Collaborator{}, fmt.Errorf("%w: nome is required", ErrInvalid)
		}
		c.Name = name
	}
	if u.Active != nil {
		c.Active = *u.Active
	}
	if err := s.store.UpdateCollaborator(ctx, &c); err != nil {
		return store.Collaborator{}, err
	}
	s.record(ctx, "collaborator.update", "collaborator:"+c.ID, map[string]any{"active": c.Active})
	return c, nil
}

// Deactivate removes id from the active roster. Past submissions keep the
// name.
func (s *Service) Deactivate(ctx context.Context, p auth.Principal, id string) error {
	inactive := false
	_, err := s.Edit(ctx, p, id, Update{Active: &inactive})
	return err
}

func (s *Service) checkBase(p auth.Principal, baseID string) error {
	if !p.Can(authz.CapCollaboratorsManage) {
		return ErrForbidden
	}
	if baseID == "" {
		return fmt.Errorf("%w: base_id is required", ErrInvalid)
	}
	if p.GetRole() != authz.RoleManager && baseID != p.GetBaseID() {
		return ErrForbidden
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, resource string, meta map[string]any) {
	if err := s.audit.Record(ctx, audit.EventMutation, action, resource, meta); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", action, "error", err)
	}
}

// CleanNames trims names and drops blank lines. At least one name must
// remain.
func CleanNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.Join(strings.Fields(n), " "); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one nome is required", ErrInvalid)
	}
	return out, nil
}
