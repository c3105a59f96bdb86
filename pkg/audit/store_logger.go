package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

// Appender persists audit records.
type Appender interface {
	AppendAudit(ctx context.Context, rec store.AuditRecord) error
}

// StoreLogger persists events. Each record carries the SHA-256 of the
// canonical (RFC 8785) form of the event.
type StoreLogger struct {
	store Appender
}

func NewStoreLogger(s Appender) *StoreLogger {
	return &StoreLogger{store: s}
}

func (l *StoreLogger) Record(ctx context.Context, eventType EventType, action, resource string, metadata map[string]any) error {
	if l.store == nil {
		return fmt.Errorf("fail-closed: audit store not configured")
	}

	evt := newEvent(ctx, eventType, action, resource, metadata)

	hash, err := EventHash(evt)
	if err != nil {
		return err
	}

	var meta json.RawMessage
	if len(metadata) > 0 {
		if meta, err = json.Marshal(metadata); err != nil {
			return fmt.Errorf("audit metadata: %w", err)
		}
	}

	return l.store.AppendAudit(ctx, store.AuditRecord{
		ID:        evt.ID,
		ActorID:   evt.ActorID,
		Type:      string(evt.Type),
		Action:    evt.Action,
		Resource:  evt.Resource,
		Hash:      hash,
		Metadata:  meta,
		Timestamp: evt.Timestamp,
	})
}

// EventHash returns "sha256:<hex>" over the canonical JSON of evt.
func EventHash(evt Event) (string, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return "", fmt.Errorf("audit event: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize audit event: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
