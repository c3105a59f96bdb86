package store

import (
	"context"
	"fmt"
)

// ListBases returns every base ordered by name.
func (s *SQLStore) ListBases(ctx context.Context) ([]Base, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM bases ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list bases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]Base, 0)
	for rows.Next() {
		var b Base
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// GetBase returns the base with id.
func (s *SQLStore) GetBase(ctx context.Context, id string) (Base, error) {
	var b Base
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM bases WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err != nil {
		return Base{}, notFound(err)
	}
	return b, nil
}

// ListTeams returns every team ordered by name.
func (s *SQLStore) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]Team, 0)
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// GetTeam returns the team with id.
func (s *SQLStore) GetTeam(ctx context.Context, id string) (Team, error) {
	var t Team
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM teams WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		return Team{}, notFound(err)
	}
	return t, nil
}
