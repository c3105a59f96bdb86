package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ListCollaborators returns the roster of baseID. Inactive collaborators are
// included only when includeInactive is set.
func (s *SQLStore) ListCollaborators(ctx context.Context, baseID string, includeInactive bool) ([]Collaborator, error) {
	w := &where{}
	if baseID != "" {
		w.add("base_id = ?", baseID)
	}
	if !includeInactive {
		w.add("active = ?", true)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, base_id, name, active, created_at, updated_at FROM collaborators`+w.String()+` ORDER BY name`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]Collaborator, 0)
	for rows.Next() {
		var c Collaborator
		if err := rows.Scan(&c.ID, &c.BaseID, &c.Name, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetCollaborator returns the collaborator with id.
func (s *SQLStore) GetCollaborator(ctx context.Context, id string) (Collaborator, error) {
	var c Collaborator
	err := s.db.QueryRowContext(ctx,
		`SELECT id, base_id, name, active, created_at, updated_at FROM collaborators WHERE id = $1`, id).
		Scan(&c.ID, &c.BaseID, &c.Name, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Collaborator{}, notFound(err)
	}
	return c, nil
}

// CreateCollaborators inserts every entry of cs in one transaction.
func (s *SQLStore) CreateCollaborators(ctx context.Context, cs []*Collaborator) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, c := range cs {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.Active = true
		c.CreatedAt, c.UpdatedAt = now, now
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collaborators (id, base_id, name, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, c.BaseID, c.Name, c.Active, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("create collaborator %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// UpdateCollaborator renames or (de)activates c.
func (s *SQLStore) UpdateCollaborator(ctx context.Context, c *Collaborator) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE collaborators SET name = $1, active = $2, updated_at = $3 WHERE id = $4`,
		c.Name, c.Active, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update collaborator: %w", err)
	}
	return expectOne(res)
}
