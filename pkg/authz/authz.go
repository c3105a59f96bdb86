// Package authz maps a user's role and flags to the capabilities that route
// guards check. The mapping is a set of CEL rules, one per capability,
// evaluated over the variables role (string) and flags (map of bool).
package authz

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
)

// Role is a user role.
type Role string

const (
	RoleManager    Role = "geral"
	RoleTeamLead   Role = "chefe"
	RoleSCIManager Role = "gerente_sci"
	RoleAssistant  Role = "auxiliar"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleTeamLead, RoleSCIManager, RoleAssistant:
		return true
	}
	return false
}

// IsLead reports whether r submits reports for a team.
func (r Role) IsLead() bool {
	return r == RoleTeamLead || r == RoleAssistant
}

// FlagSCIManagerAccess grants a team lead the SCI manager panels.
const FlagSCIManagerAccess = "acesso_gerente_sci"

// Capability is a named permission.
type Capability string

const (
	CapDashboardLead       Capability = "dashboard.chefe"
	CapDashboardManager    Capability = "dashboard.gerente"
	CapDashboardSCIManager Capability = "dashboard.gerente_sci"
	CapAnalyticsView       Capability = "analytics.view"
	CapComplianceView      Capability = "compliance.view"
	CapExplorerView        Capability = "explorer.view"
	CapSupportManage       Capability = "support.manage"
	CapSubmissionsCreate   Capability = "submissions.create"
	CapSubmissionsEditAny  Capability = "submissions.edit_any"
	CapBaseSubmissionsView Capability = "base.submissions.view"
	CapUsersManage         Capability = "users.manage"
	CapCollaboratorsManage Capability = "collaborators.manage"
	CapSettingsView        Capability = "settings.view"
	CapFeedbackCreate      Capability = "feedback.create"
)

// DefaultRules is the capability policy of the service.
var DefaultRules = map[Capability]string{
	CapDashboardLead:       `role in ["chefe", "auxiliar"]`,
	CapDashboardManager:    `role == "geral"`,
	CapDashboardSCIManager: `role == "gerente_sci" || (role == "chefe" && flags.acesso_gerente_sci)`,
	CapAnalyticsView:       `role == "geral"`,
	CapComplianceView:      `role == "geral"`,
	CapExplorerView:        `role == "geral"`,
	CapSupportManage:       `role == "geral"`,
	CapSubmissionsCreate:   `role in ["chefe", "auxiliar"]`,
	CapSubmissionsEditAny:  `role == "geral"`,
	CapBaseSubmissionsView: `role == "gerente_sci" || (role == "chefe" && flags.acesso_gerente_sci)`,
	CapUsersManage:         `role in ["geral", "gerente_sci"]`,
	CapCollaboratorsManage: `role in ["geral", "gerente_sci"]`,
	CapSettingsView:        `role in ["geral", "chefe", "gerente_sci", "auxiliar"]`,
	CapFeedbackCreate:      `role in ["geral", "chefe", "gerente_sci", "auxiliar"]`,
}

// ErrUnknownRole is returned when resolving an unrecognised role.
var ErrUnknownRole = errors.New("authz: unknown role")

// CapabilitySet is the resolved set of capabilities of a principal.
type CapabilitySet map[Capability]bool

// Has reports whether c is granted.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// List returns the granted capabilities sorted by name.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c, ok := range s {
		if ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolver evaluates compiled capability rules.
type Resolver struct {
	programs map[Capability]cel.Program
}

// NewResolver compiles rules.
func NewResolver(rules map[Capability]string) (*Resolver, error) {
	env, err := cel.NewEnv(
		cel.Variable("role", cel.StringType),
		cel.Variable("flags", cel.MapType(cel.StringType, cel.BoolType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	programs := make(map[Capability]cel.Program, len(rules))
	for capability, expr := range rules {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile rule %s: %w", capability, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("rule %s must be boolean, got %v", capability, ast.OutputType())
		}
		prg, err := env.Program(ast, cel.CostLimit(1000))
		if err != nil {
			return nil, fmt.Errorf("program %s: %w", capability, err)
		}
		programs[capability] = prg
	}
	return &Resolver{programs: programs}, nil
}

// Resolve evaluates every rule for role and flags. Missing flags are false.
func (r *Resolver) Resolve(role Role, flags map[string]bool) (CapabilitySet, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	input := map[string]any{
		"role":  string(role),
		"flags": withDefaults(flags),
	}

	set := make(CapabilitySet, len(r.programs))
	for capability, prg := range r.programs {
		out, _, err := prg.Eval(input)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", capability, err)
		}
		if granted, ok := out.Value().(bool); ok && granted {
			set[capability] = true
		}
	}
	return set, nil
}

func withDefaults(flags map[string]bool) map[string]bool {
	out := map[string]bool{FlagSCIManagerAccess: false}
	for k, v := range flags {
		out[k] = v
	}
	return out
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
	defaultErr      error
)

// Default returns the resolver for DefaultRules.
func Default() (*Resolver, error) {
	defaultOnce.Do(func() {
		defaultResolver, defaultErr = NewResolver(DefaultRules)
	})
	return defaultResolver, defaultErr
}

// Resolve evaluates the default rules.
func Resolve(role Role, flags map[string]bool) (CapabilitySet, error) {
	r, err := Default()
	if err != nil {
		return nil, err
	}
	return r.Resolve(role, flags)
}

// Landing paths of the dashboards.
const (
	PathManagerDashboard    = "/dashboard-gerente"
	PathSCIManagerDashboard = "/dashboard-gerente-sci"
	PathLeadDashboard       = "/dashboard-chefe"
)

// LandingPath is where a client goes after login or when it is denied a
// route.
func LandingPath(caps CapabilitySet) string {
	switch {
	case caps.Has(CapDashboardManager):
		return PathManagerDashboard
	case caps.Has(CapDashboardSCIManager) && !caps.Has(CapDashboardLead):
		return PathSCIManagerDashboard
	default:
		return PathLeadDashboard
	}
}
