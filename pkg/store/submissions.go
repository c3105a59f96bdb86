package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/catalog"
)

const submissionColumns = `id, base_id, team_id, user_id, indicator_kind, reference_date, payload, payload_hash, created_at, updated_at`

// CreateSubmission inserts sub. ID and timestamps are filled when empty.
func (s *SQLStore) CreateSubmission(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		sub.ID, sub.BaseID, sub.TeamID, sub.UserID, string(sub.Kind), sub.ReferenceDate,
		string(sub.Payload), sub.PayloadHash, sub.CreatedAt, sub.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetSubmission returns the submission with id.
func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		return Submission{}, notFound(err)
	}
	return sub, nil
}

// UpdateSubmission rewrites the reference date and payload of sub.
func (s *SQLStore) UpdateSubmission(ctx context.Context, sub *Submission) error {
	sub.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET reference_date = $1, payload = $2, payload_hash = $3, updated_at = $4 WHERE id = $5`,
		sub.ReferenceDate, string(sub.Payload), sub.PayloadHash, sub.UpdatedAt, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	return expectOne(res)
}

// DeleteSubmission removes the submission with id.
func (s *SQLStore) DeleteSubmission(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return expectOne(res)
}

// ListSubmissions returns the submissions matching f, newest reference date
// first.
func (s *SQLStore) ListSubmissions(ctx context.Context, f SubmissionFilter) ([]Submission, error) {
	w := submissionWhere(f)
	query := `SELECT ` + submissionColumns + ` FROM submissions` + w.String() +
		` ORDER BY reference_date DESC, created_at DESC`
	args := w.args
	if f.Limit > 0 {
		query += ` LIMIT ` + w.next()
		args = append(args, f.Limit)
		query += ` OFFSET ` + placeholder(len(args)+1)
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

// CountSubmissions returns how many submissions match f, ignoring paging.
func (s *SQLStore) CountSubmissions(ctx context.Context, f SubmissionFilter) (int, error) {
	w := submissionWhere(f)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// LastSubmissionByUser returns the most recent reference date per user.
// Users with no submission are absent from the map.
func (s *SQLStore) LastSubmissionByUser(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, MAX(reference_date) FROM submissions GROUP BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("last submission by user: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var user, date string
		if err := rows.Scan(&user, &date); err != nil {
			return nil, err
		}
		out[user] = date
	}
	return out, rows.Err()
}

func submissionWhere(f SubmissionFilter) *where {
	w := &where{}
	if f.BaseID != "" {
		w.add("base_id = ?", f.BaseID)
	}
	if f.TeamID != "" {
		w.add("team_id = ?", f.TeamID)
	}
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, 0, len(f.Kinds))
		for _, k := range f.Kinds {
			w.args = append(w.args, string(k))
			kinds = append(kinds, placeholder(len(w.args)))
		}
		w.clauses = append(w.clauses, "indicator_kind IN ("+joinComma(kinds)+")")
	}
	if f.From != "" {
		w.add("reference_date >= ?", f.From)
	}
	if f.To != "" {
		w.add("reference_date <= ?", f.To)
	}
	return w
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (Submission, error) {
	var (
		sub     Submission
		kind    string
		payload []byte
	)
	if err := row.Scan(&sub.ID, &sub.BaseID, &sub.TeamID, &sub.UserID, &kind, &sub.ReferenceDate,
		&payload, &sub.PayloadHash, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return Submission{}, err
	}
	sub.Kind = catalog.Kind(kind)
	sub.Payload = payload
	return sub, nil
}
