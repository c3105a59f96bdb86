package compliance

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/calendar"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

// DefaultLookbackDays is how far before today submissions are fetched for
// the daily group, so the last report date can be shown.
const DefaultLookbackDays = 30

// Source delivers the inputs of an evaluation.
type Source interface {
	ListBases(ctx context.Context) ([]Base, error)
	ListSubmissions(ctx context.Context, window calendar.Range) ([]Submission, error)
	ListLeads(ctx context.Context) ([]Lead, error)
	// LastSubmissions maps a user id to the latest reference date it
	// submitted, across all time.
	LastSubmissions(ctx context.Context) (map[string]string, error)
}

// Tracker records a span and RED metrics for an operation.
type Tracker interface {
	TrackOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error))
}

// Evaluator fetches inputs from a Source and runs the classifier.
type Evaluator struct {
	source         Source
	catalog        *catalog.Catalog
	clock          calendar.Clock
	tracker        Tracker
	logger         *slog.Logger
	adminBase      string
	lookbackDays   int
	inactivityDays int
}

// NewEvaluator creates an Evaluator using the real clock in UTC.
func NewEvaluator(source Source, cat *catalog.Catalog) *Evaluator {
	return &Evaluator{
		source:         source,
		catalog:        cat,
		clock:          calendar.RealClock{},
		logger:         slog.Default().With("component", "compliance"),
		adminBase:      DefaultAdministrativeBase,
		lookbackDays:   DefaultLookbackDays,
		inactivityDays: DefaultInactivityDays,
	}
}

// WithClock overrides the clock. Today is taken in the clock's location.
func (e *Evaluator) WithClock(clock calendar.Clock) *Evaluator {
	e.clock = clock
	return e
}

// WithTracker enables tracing of evaluations.
func (e *Evaluator) WithTracker(t Tracker) *Evaluator {
	e.tracker = t
	return e
}

// WithLogger overrides the logger.
func (e *Evaluator) WithLogger(l *slog.Logger) *Evaluator {
	e.logger = l.With("component", "compliance")
	return e
}

// WithAdministrativeBase sets the name of the untracked base.
func (e *Evaluator) WithAdministrativeBase(name string) *Evaluator {
	if name != "" {
		e.adminBase = name
	}
	return e
}

// WithInactivityDays sets the inactivity window.
func (e *Evaluator) WithInactivityDays(days int) *Evaluator {
	if days > 0 {
		e.inactivityDays = days
	}
	return e
}

// Today returns the current calendar date.
func (e *Evaluator) Today() calendar.Date {
	return calendar.Today(e.clock)
}

func (e *Evaluator) track(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if e.tracker == nil {
		return ctx, func(error) {}
	}
	return e.tracker.TrackOperation(ctx, name, attrs...)
}

// Board evaluates every tracked base for target.
func (e *Evaluator) Board(ctx context.Context, target calendar.Month) (board Board, err error) {
	ctx, done := e.track(ctx, "compliance.board", attribute.String("month", target.String()))
	defer func() { done(err) }()

	today := e.Today()
	bases, err := e.source.ListBases(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("list bases: %w", err)
	}
	window := calendar.LookbackWindow(target, today, e.lookbackDays)
	subs, err := e.source.ListSubmissions(ctx, window)
	if err != nil {
		return Board{}, fmt.Errorf("list submissions: %w", err)
	}

	board, err = EvaluateBoard(today, bases, subs, e.catalog, target, target.Closed(today), e.adminBase)
	if err != nil {
		return Board{}, err
	}
	for _, b := range board.Bases {
		for _, x := range b.Excluded {
			e.logger.WarnContext(ctx, "submission excluded from compliance",
				"base", b.Base.Name,
				"submission_id", x.SubmissionID,
				"reference_date", x.ReferenceDate,
				"reason", x.Reason,
			)
		}
	}
	return board, nil
}

// Inactive lists team leads without recent submissions. The last submission
// date shown is the latest ever, not only the one inside the window.
func (e *Evaluator) Inactive(ctx context.Context) (out []InactiveLead, err error) {
	ctx, done := e.track(ctx, "compliance.inactive")
	defer func() { done(err) }()

	today := e.Today()
	leads, err := e.source.ListLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	raw, err := e.source.LastSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("last submissions: %w", err)
	}
	latest := make(map[string]calendar.Date, len(raw))
	for user, ref := range raw {
		if d, err := calendar.Parse(ref); err == nil {
			latest[user] = d
		}
	}
	return InactiveFromLatest(today, leads, latest, e.inactivityDays), nil
}
