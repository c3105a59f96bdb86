// Package users provisions and manages user accounts.
package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
)

var (
	// ErrInvalidProvisioning is returned when a role's base/team binding
	// or flags are not satisfied.
	ErrInvalidProvisioning = errors.New("invalid user provisioning")
	// ErrForbidden is returned when the caller may not manage the target.
	ErrForbidden = errors.New("caller may not manage this user")
)

// Request describes the desired state of an account. On update, an empty
// Email or Password keeps the stored value and a nil SCIManagerAccess keeps
// the stored flag.
type Request struct {
	Email            string `json:"email"`
	Name             string `json:"nome"`
	Password         string `json:"password,omitempty"`
	Role             string `json:"role"`
	BaseID           string `json:"base_id,omitempty"`
	TeamID           string `json:"equipe_id,omitempty"`
	SCIManagerAccess *bool  `json:"acesso_gerente_sci,omitempty"`
	Active           *bool  `json:"active,omitempty"`
}

// Binding is the normalized base/team/flag assignment of an account.
type Binding struct {
	Role             authz.Role
	BaseID           string
	TeamID           string
	SCIManagerAccess bool
}

// Caller is who is provisioning.
type Caller struct {
	Role   authz.Role
	BaseID string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidProvisioning, fmt.Sprintf(format, args...))
}

// Normalize validates req for its role and returns the binding to store.
// Fields a role does not carry are cleared.
func Normalize(req Request) (Binding, error) {
	role := authz.Role(strings.TrimSpace(req.Role))
	if !role.Valid() {
		return Binding{}, invalid("unknown role %q", req.Role)
	}
	base := strings.TrimSpace(req.BaseID)
	team := strings.TrimSpace(req.TeamID)
	b := Binding{Role: role}

	switch role {
	case authz.RoleTeamLead, authz.RoleAssistant:
		if base == "" || team == "" {
			return Binding{}, invalid("role %s requires base_id and equipe_id", role)
		}
		b.BaseID, b.TeamID = base, team
	case authz.RoleSCIManager:
		if base == "" {
			return Binding{}, invalid("role %s requires base_id", role)
		}
		b.BaseID = base
	case authz.RoleManager:
	}

	if req.SCIManagerAccess != nil && *req.SCIManagerAccess {
		if role != authz.RoleTeamLead {
			return Binding{}, invalid("acesso_gerente_sci applies only to role %s", authz.RoleTeamLead)
		}
		b.SCIManagerAccess = true
	}
	return b, nil
}

// Authorize checks that caller may assign target. existing is the target's
// current binding on update, nil on create.
func Authorize(caller Caller, target Binding, existing *Binding, flagRequested bool) error {
	switch caller.Role {
	case authz.RoleManager:
		return nil
	case authz.RoleSCIManager:
	default:
		return fmt.Errorf("%w: role %s cannot manage users", ErrForbidden, caller.Role)
	}

	if target.Role == authz.RoleManager {
		return fmt.Errorf("%w: only %s can provision %s users", ErrForbidden, authz.RoleManager, authz.RoleManager)
	}
	if target.BaseID != caller.BaseID {
		return fmt.Errorf("%w: users must belong to the caller's base", ErrForbidden)
	}
	if existing != nil && existing.BaseID != caller.BaseID {
		return fmt.Errorf("%w: user belongs to another base", ErrForbidden)
	}
	if flagRequested {
		return fmt.Errorf("%w: only %s can grant acesso_gerente_sci", ErrForbidden, authz.RoleManager)
	}
	return nil
}
