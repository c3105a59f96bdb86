// Package feedback handles support tickets sent from the settings page.
package feedback

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

// Type is the category chosen by the user.
type Type string

const (
	TypeBug        Type = "bug"
	TypeSuggestion Type = "sugestao"
	TypeOther      Type = "outros"
)

// Valid reports whether t is a known category.
func (t Type) Valid() bool {
	return t == TypeBug || t == TypeSuggestion || t == TypeOther
}

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusPending    Status = "pendente"
	StatusInProgress Status = "em_andamento"
	StatusResolved   Status = "resolvido"
	StatusClosed     Status = "fechado"
)

var rank = map[Status]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusResolved:   2,
	StatusClosed:     2,
}

// Final reports whether s ends the lifecycle.
func (s Status) Final() bool {
	return s == StatusResolved || s == StatusClosed
}

// Treatment records what support did about a ticket.
type Treatment string

const (
	TreatmentFixed    Treatment = "correcao_aplicada"
	TreatmentReview   Treatment = "em_analise"
	TreatmentAnswered Treatment = "respondido_usuario"
	TreatmentNoChange Treatment = "fechado_sem_alteracao"
	TreatmentOther    Treatment = "outros"
)

// Valid reports whether t is a known treatment. The empty treatment clears it.
func (t Treatment) Valid() bool {
	switch t {
	case "", TreatmentFixed, TreatmentReview, TreatmentAnswered, TreatmentNoChange, TreatmentOther:
		return true
	}
	return false
}

var (
	ErrInvalid    = errors.New("invalid feedback")
	ErrForbidden  = errors.New("feedback not accessible")
	ErrTransition = errors.New("invalid status transition")
)

// MaxMessageLength bounds the ticket body.
const MaxMessageLength = 4000

// CanTransition reports whether a ticket may move from one status to
// another. Moves only go forward and a final ticket never changes.
func CanTransition(from, to Status) bool {
	f, ok := rank[from]
	if !ok {
		return false
	}
	t, ok := rank[to]
	if !ok {
		return false
	}
	return !from.Final() && t > f
}

// Store is the persistence used by Service.
type Store interface {
	CreateFeedback(ctx context.Context, f *store.Feedback) error
	GetFeedback(ctx context.Context, id string) (store.Feedback, error)
	ListFeedback(ctx context.Context, userID string) ([]store.Feedback, error)
	UpdateFeedback(ctx context.Context, f *store.Feedback) error
}

// Service applies the ticket lifecycle.
type Service struct {
	store  Store
	audit  audit.Logger
	logger *slog.Logger
}

func NewService(s Store, a audit.Logger) *Service {
	if a == nil {
		a = audit.Nop{}
	}
	return &Service{store: s, audit: a, logger: slog.Default().With("component", "feedback")}
}

// Submit opens a ticket for p.
func (s *Service) Submit(ctx context.Context, p auth.Principal, typ Type, message string) (store.Feedback, error) {
	if !p.Can(authz.CapFeedbackCreate) {
		return store.Feedback{}, ErrForbidden
	}
	if !typ.Valid() {
		return store.Feedback{}, fmt.Errorf("%w: type %q (want bug, sugestao or outros)", ErrInvalid, typ)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return store.Feedback{}, fmt.Errorf("%w: message is required", ErrInvalid)
	}
	if len([]rune(message)) > MaxMessageLength {
		return store.Feedback{}, fmt.Errorf("%w: message longer than %d characters", ErrInvalid, MaxMessageLength)
	}

	f := &store.Feedback{UserID: p.GetID(), Type: string(typ), Message: message, Status: string(StatusPending)}
	if err := s.store.CreateFeedback(ctx, f); err != nil {
		return store.Feedback{}, err
	}
	s.record(ctx, "feedback.create", f)
	return *f, nil
}

// List returns every ticket to support managers and the caller's own
// tickets to everyone else.
func (s *Service) List(ctx context.Context, p auth.Principal) ([]store.Feedback, error) {
	userID := p.GetID()
	if p.Can(authz.CapSupportManage) {
		userID = ""
	}
	return s.store.ListFeedback(ctx, userID)
}

// Handling is a support-side change to a ticket. Nil fields are left
// untouched.
type Handling struct {
	Status    *Status    `json:"status,omitempty"`
	Treatment *Treatment `json:"tratativa_tipo,omitempty"`
	Reply     *string    `json:"resposta_suporte,omitempty"`
}

// Handle applies h to ticket id. A status change must follow
// CanTransition; resending the current status is not a change.
func (s *Service) Handle(ctx context.Context, p auth.Principal, id string, h Handling) (store.Feedback, error) {
	if !p.Can(authz.CapSupportManage) {
		return store.Feedback{}, ErrForbidden
	}
	if h.Status == nil && h.Treatment == nil && h.Reply == nil {
		return store.Feedback{}, fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	if h.Treatment != nil && !h.Treatment.Valid() {
		return store.Feedback{}, fmt.Errorf("%w: tratativa_tipo %q", ErrInvalid, *h.Treatment)
	}
	var reply string
	if h.Reply != nil {
		reply = strings.TrimSpace(*h.Reply)
		if len([]rune(reply)) > MaxMessageLength {
			return store.Feedback{}, fmt.Errorf("%w: reply longer than %d characters", ErrInvalid, MaxMessageLength)
		}
	}

	f, err := s.store.GetFeedback(ctx, id)
	if err != nil {
		return store.Feedback{}, err
	}
	action := "feedback.treatment"
	if h.Status != nil && Status(f.Status) != *h.Status {
		if !CanTransition(Status(f.Status), *h.Status) {
			return store.Feedback{}, fmt.Errorf("%w: %s -> %s", ErrTransition, f.Status, *h.Status)
		}
		f.Status = string(*h.Status)
		action = "feedback.status"
	}
	if h.Treatment != nil {
		f.TreatmentType = string(*h.Treatment)
	}
	if h.Reply != nil {
		f.SupportReply = reply
	}
	if err := s.store.UpdateFeedback(ctx, &f); err != nil {
		return store.Feedback{}, err
	}
	s.record(ctx, action, &f)
	return f, nil
}

func (s *Service) record(ctx context.Context, action string, f *store.Feedback) {
	meta := map[string]any{"type": f.Type, "status": f.Status}
	if f.TreatmentType != "" {
		meta["tratativa_tipo"] = f.TreatmentType
	}
	if err := s.audit.Record(ctx, audit.EventMutation, action, "feedback:"+f.ID, meta); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", action, "error", err)
	}
}
