package store

import (
	"context"
	"fmt"
)

// AppendAudit persists one audit event.
func (s *SQLStore) AppendAudit(ctx context.Context, rec AuditRecord) error {
	metadata := "{}"
	if len(rec.Metadata) > 0 {
		metadata = string(rec.Metadata)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, actor_id, type, action, resource, hash, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.ActorID, rec.Type, rec.Action, rec.Resource, rec.Hash, metadata, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// ListAudit returns the latest limit audit events for resource, newest first.
func (s *SQLStore) ListAudit(ctx context.Context, resource string, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor_id, type, action, resource, hash, metadata, created_at
		 FROM audit_events WHERE resource = $1 ORDER BY created_at DESC LIMIT $2`,
		resource, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]AuditRecord, 0)
	for rows.Next() {
		var (
			rec      AuditRecord
			metadata []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Type, &rec.Action, &rec.Resource, &rec.Hash, &metadata, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Metadata = metadata
		result = append(result, rec)
	}
	return result, rows.Err()
}
