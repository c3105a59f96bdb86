package store

import (
	"encoding/json"
	"time"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// Base is an operating unit (an airport fire station).
type Base struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Team is a shift team. Teams are shared by all bases.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is a user account.
type Profile struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	Role             string    `json:"role"`
	BaseID           string    `json:"base_id,omitempty"`
	TeamID           string    `json:"team_id,omitempty"`
	SCIManagerAccess bool      `json:"acesso_gerente_sci"`
	Active           bool      `json:"active"`
	LastSeenRelease  string    `json:"last_seen_release,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProfileFilter narrows ListProfiles.
type ProfileFilter struct {
	BaseID string
	Role   string
}

// Submission is one stored report (lançamento).
type Submission struct {
	ID            string          `json:"id"`
	BaseID        string          `json:"base_id"`
	TeamID        string          `json:"team_id"`
	UserID        string          `json:"user_id"`
	Kind          catalog.Kind    `json:"indicator_kind"`
	ReferenceDate string          `json:"reference_date"`
	Payload       json.RawMessage `json:"payload"`
	PayloadHash   string          `json:"payload_hash,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SubmissionFilter narrows ListSubmissions. From and To are inclusive
// YYYY-MM-DD bounds. A zero Limit returns every match.
type SubmissionFilter struct {
	BaseID string
	TeamID string
	UserID string
	Kinds  []catalog.Kind
	From   string
	To     string
	Limit  int
	Offset int
}

// Collaborator is a firefighter listed in a base's roster.
type Collaborator struct {
	ID        string    `json:"id"`
	BaseID    string    `json:"base_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feedback is a user support ticket.
type Feedback struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	Status        string    `json:"status"`
	TreatmentType string    `json:"tratativa_tipo,omitempty"`
	SupportReply  string    `json:"resposta_suporte,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AuditRecord is a persisted audit event.
type AuditRecord struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actor_id"`
	Type      string          `json:"type"`
	Action    string          `json:"action"`
	Resource  string          `json:"resource"`
	Hash      string          `json:"hash"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
