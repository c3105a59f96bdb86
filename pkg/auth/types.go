package auth

import (
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/authz"
)

// Principal is the authenticated user making a request.
type Principal interface {
	GetID() string
	GetRole() authz.Role
	GetBaseID() string
	GetTeamID() string
	// Can reports whether the principal holds a capability.
	Can(c authz.Capability) bool
}

// BasePrincipal is the Principal built from validated access-token claims.
type BasePrincipal struct {
	ID               string
	Email            string
	Role             authz.Role
	BaseID           string
	TeamID           string
	SCIManagerAccess bool
	Capabilities     authz.CapabilitySet
}

func (b *BasePrincipal) GetID() string {
	return b.ID
}

func (b *BasePrincipal) GetRole() authz.Role {
	return b.Role
}

func (b *BasePrincipal) GetBaseID() string {
	return b.BaseID
}

func (b *BasePrincipal) GetTeamID() string {
	return b.TeamID
}

func (b *BasePrincipal) Can(c authz.Capability) bool {
	return b.Capabilities.Has(c)
}

// Flags returns the principal's authorization flags.
func (b *BasePrincipal) Flags() map[string]bool {
	return map[string]bool{authz.FlagSCIManagerAccess: b.SCIManagerAccess}
}
