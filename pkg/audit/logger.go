// Package audit records who changed what. Events go to an "AUDIT: " prefixed
// JSON line stream and/or the audit_events table.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/auth"
)

// EventType defines the category of the audit event.
type EventType string

const (
	EventAccess   EventType = "ACCESS"
	EventMutation EventType = "MUTATION"
	EventSystem   EventType = "SYSTEM"
)

// Event represents a structured audit record.
type Event struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actor_id"`
	BaseID    string         `json:"base_id,omitempty"`
	Type      EventType      `json:"type"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Logger records audit events.
type Logger interface {
	Record(ctx context.Context, eventType EventType, action, resource string, metadata map[string]any) error
}

func newEvent(ctx context.Context, eventType EventType, action, resource string, metadata map[string]any) Event {
	evt := Event{
		ID:        uuid.New().String(),
		ActorID:   "system",
		Type:      eventType,
		Action:    action,
		Resource:  resource,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
	if p, err := auth.GetPrincipal(ctx); err == nil {
		evt.ActorID = p.GetID()
		evt.BaseID = p.GetBaseID()
	}
	return evt
}

// logger writes structured JSON lines to a Writer.
type logger struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewLogger creates a Logger writing to os.Stdout.
func NewLogger() Logger {
	return NewLoggerWithWriter(os.Stdout)
}

// NewLoggerWithWriter creates a Logger writing to w.
func NewLoggerWithWriter(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &logger{writer: w}
}

func (l *logger) Record(ctx context.Context, eventType EventType, action, resource string, metadata map[string]any) error {
	event := newEvent(ctx, eventType, action, resource, metadata)

	bytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.writer.Write(append([]byte("AUDIT: "), append(bytes, '\n')...))
	return err
}

// Multi fans an event out to every logger. All loggers are attempted.
func Multi(loggers ...Logger) Logger {
	return multi(loggers)
}

type multi []Logger

func (m multi) Record(ctx context.Context, eventType EventType, action, resource string, metadata map[string]any) error {
	var errs []error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.Record(ctx, eventType, action, resource, metadata); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, EventType, string, string, map[string]any) error { return nil }
