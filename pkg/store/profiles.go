package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const profileColumns = `id, email, name, password_hash, role, base_id, team_id, sci_manager_access, active, last_seen_release, created_at, updated_at`

// CreateProfile inserts p. Emails are stored lower-cased.
func (s *SQLStore) CreateProfile(ctx context.Context, p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Email, p.Name, p.PasswordHash, p.Role, nullString(p.BaseID), nullString(p.TeamID),
		p.SCIManagerAccess, p.Active, p.LastSeenRelease, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile with id.
func (s *SQLStore) GetProfile(ctx context.Context, id string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		return Profile{}, notFound(err)
	}
	return p, nil
}

// GetProfileByEmail returns the profile registered with email.
func (s *SQLStore) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	p, err := scanProfile(row)
	if err != nil {
		return Profile{}, notFound(err)
	}
	return p, nil
}

// UpdateProfile rewrites the mutable fields of p. An empty PasswordHash
// keeps the stored one.
func (s *SQLStore) UpdateProfile(ctx context.Context, p *Profile) error {
	p.UpdatedAt = time.Now().UTC()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET email = $1, name = $2, role = $3, base_id = $4, team_id = $5, sci_manager_access = $6,
			active = $7, password_hash = COALESCE(NULLIF($8, ''), password_hash), updated_at = $9
		WHERE id = $10`,
		p.Email, p.Name, p.Role, nullString(p.BaseID), nullString(p.TeamID), p.SCIManagerAccess,
		p.Active, p.PasswordHash, p.UpdatedAt, p.ID,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectOne(res)
}

// MarkReleaseSeen records the newest release notes a user has read.
func (s *SQLStore) MarkReleaseSeen(ctx context.Context, id, version string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET last_seen_release = $1 WHERE id = $2`, version, id)
	if err != nil {
		return fmt.Errorf("mark release seen: %w", err)
	}
	return expectOne(res)
}

// ListProfiles returns the profiles matching f ordered by name.
func (s *SQLStore) ListProfiles(ctx context.Context, f ProfileFilter) ([]Profile, error) {
	w := &where{}
	if f.BaseID != "" {
		w.add("base_id = ?", f.BaseID)
	}
	if f.Role != "" {
		w.add("role = ?", f.Role)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles`+w.String()+` ORDER BY name`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanProfile(row scanner) (Profile, error) {
	var (
		p           Profile
		base, team  *string
		seenRelease *string
	)
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.Role, &base, &team,
		&p.SCIManagerAccess, &p.Active, &seenRelease, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	if base != nil {
		p.BaseID = *base
	}
	if team != nil {
		p.TeamID = *team
	}
	if seenRelease != nil {
		p.LastSeenRelease = *seenRelease
	}
	return p, nil
}
