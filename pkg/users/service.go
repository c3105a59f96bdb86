package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/audit"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/identity"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

var (
	// ErrEmailTaken is returned when another account uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrWrongPassword is returned when a password change does not
	// present the current password.
	ErrWrongPassword = errors.New("current password does not match")
)

// Store is the persistence used by Service.
type Store interface {
	CreateProfile(ctx context.Context, p *store.Profile) error
	GetProfile(ctx context.Context, id string) (store.Profile, error)
	UpdateProfile(ctx context.Context, p *store.Profile) error
	ListProfiles(ctx context.Context, f store.ProfileFilter) ([]store.Profile, error)
	GetBase(ctx context.Context, id string) (store.Base, error)
	GetTeam(ctx context.Context, id string) (store.Team, error)
}

// Service applies provisioning rules on top of Store.
type Service struct {
	store  Store
	audit  audit.Logger
	logger *slog.Logger
}

// NewService creates a Service. A nil audit logger discards events.
func NewService(s Store, a audit.Logger) *Service {
	if a == nil {
		a = audit.Nop{}
	}
	return &Service{
		store:  s,
		audit:  a,
		logger: slog.Default().With("component", "users"),
	}
}

// Create provisions a new account.
func (s *Service) Create(ctx context.Context, caller Caller, req Request) (store.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" || req.Password == "" {
		return store.Profile{}, invalid("email, nome and password are required")
	}

	b, err := Normalize(req)
	if err != nil {
		return store.Profile{}, err
	}
	if err := Authorize(caller, b, nil, b.SCIManagerAccess); err != nil {
		return store.Profile{}, err
	}
	if err := s.checkReferences(ctx, b); err != nil {
		return store.Profile{}, err
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		return store.Profile{}, fmt.Errorf("%w: %v", ErrInvalidProvisioning, err)
	}

	p := &store.Profile{
		Email:            email,
		Name:             name,
		PasswordHash:     hash,
		Role:             string(b.Role),
		BaseID:           b.BaseID,
		TeamID:           b.TeamID,
		SCIManagerAccess: b.SCIManagerAccess,
		Active:           req.Active == nil || *req.Active,
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return store.Profile{}, ErrEmailTaken
		}
		return store.Profile{}, err
	}

	s.record(ctx, "user.create", p)
	return *p, nil
}

// Update rewrites an existing account.
func (s *Service) Update(ctx context.Context, caller Caller, id string, req Request) (store.Profile, error) {
	current, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return store.Profile{}, err
	}
	existing := Binding{
		Role:             authz.Role(current.Role),
		BaseID:           current.BaseID,
		TeamID:           current.TeamID,
		SCIManagerAccess: current.SCIManagerAccess,
	}

	if strings.TrimSpace(req.Name) == "" {
		return store.Profile{}, invalid("nome is required")
	}

	flagRequested := req.SCIManagerAccess != nil && *req.SCIManagerAccess != current.SCIManagerAccess
	if req.SCIManagerAccess == nil && authz.Role(req.Role) == authz.RoleTeamLead {
		keep := current.SCIManagerAccess
		req.SCIManagerAccess = &keep
	}
	b, err := Normalize(req)
	if err != nil {
		return store.Profile{}, err
	}
	if err := Authorize(caller, b, &existing, flagRequested); err != nil {
		return store.Profile{}, err
	}
	if err := s.checkReferences(ctx, b); err != nil {
		return store.Profile{}, err
	}

	next := current
	next.Name = strings.TrimSpace(req.Name)
	if email := strings.TrimSpace(req.Email); email != "" {
		next.Email = email
	}
	next.Role = string(b.Role)
	next.BaseID = b.BaseID
	next.TeamID = b.TeamID
	next.SCIManagerAccess = b.SCIManagerAccess
	if req.Active != nil {
		next.Active = *req.Active
	}
	next.PasswordHash = ""
	if req.Password != "" {
		if next.PasswordHash, err = identity.HashPassword(req.Password); err != nil {
			return store.Profile{}, fmt.Errorf("%w: %v", ErrInvalidProvisioning, err)
		}
	}

	if err := s.store.UpdateProfile(ctx, &next); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return store.Profile{}, ErrEmailTaken
		}
		return store.Profile{}, err
	}
	next.PasswordHash = ""

	s.record(ctx, "user.update", &next)
	return next, nil
}

// ChangePassword replaces the password of account id after checking
// current against the stored hash.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	if err := identity.CheckPassword(p.PasswordHash, current); err != nil {
		return ErrWrongPassword
	}
	if p.PasswordHash, err = identity.HashPassword(next); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProvisioning, err)
	}
	if err := s.store.UpdateProfile(ctx, &p); err != nil {
		return err
	}
	s.record(ctx, "user.password_change", &p)
	return nil
}

// List returns the accounts visible to caller. A gerente_sci sees only its
// base.
func (s *Service) List(ctx context.Context, caller Caller, role string) ([]store.Profile, error) {
	f := store.ProfileFilter{Role: role}
	switch caller.Role {
	case authz.RoleManager:
	case authz.RoleSCIManager:
		f.BaseID = caller.BaseID
	default:
		return nil, ErrForbidden
	}
	return s.store.ListProfiles(ctx, f)
}

func (s *Service) checkReferences(ctx context.Context, b Binding) error {
	if b.BaseID != "" {
		if _, err := s.store.GetBase(ctx, b.BaseID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return invalid("base %q does not exist", b.BaseID)
			}
			return err
		}
	}
	if b.TeamID != "" {
		if _, err := s.store.GetTeam(ctx, b.TeamID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return invalid("team %q does not exist", b.TeamID)
			}
			return err
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, p *store.Profile) {
	meta := map[string]any{"role": p.Role, "base_id": p.BaseID, "active": p.Active}
	if err := s.audit.Record(ctx, audit.EventMutation, action, "profile:"+p.ID, meta); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", action, "error", err)
	}
}
