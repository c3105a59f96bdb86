package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const feedbackColumns = `id, user_id, type, message, status, tratativa_tipo, resposta_suporte, created_at, updated_at`

func (f *Feedback) dest() []any {
	return []any{&f.ID, &f.UserID, &f.Type, &f.Message, &f.Status, &f.TreatmentType, &f.SupportReply, &f.CreatedAt, &f.UpdatedAt}
}

// CreateFeedback inserts f.
func (s *SQLStore) CreateFeedback(ctx context.Context, f *Feedback) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, user_id, type, message, status, tratativa_tipo, resposta_suporte, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		f.ID, f.UserID, f.Type, f.Message, f.Status, f.TreatmentType, f.SupportReply, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// GetFeedback returns the ticket with id.
func (s *SQLStore) GetFeedback(ctx context.Context, id string) (Feedback, error) {
	var f Feedback
	err := s.db.QueryRowContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback WHERE id = $1`, id).
		Scan(f.dest()...)
	if err != nil {
		return Feedback{}, notFound(err)
	}
	return f, nil
}

// ListFeedback returns tickets newest first. An empty userID lists all.
func (s *SQLStore) ListFeedback(ctx context.Context, userID string) ([]Feedback, error) {
	w := &where{}
	if userID != "" {
		w.add("user_id = ?", userID)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM feedback`+w.String()+` ORDER BY created_at DESC`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]Feedback, 0)
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(f.dest()...); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// UpdateFeedback writes the status, treatment type and support reply of f.
func (s *SQLStore) UpdateFeedback(ctx context.Context, f *Feedback) error {
	f.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE feedback SET status = $1, tratativa_tipo = $2, resposta_suporte = $3, updated_at = $4 WHERE id = $5`,
		f.Status, f.TreatmentType, f.SupportReply, f.UpdatedAt, f.ID)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return expectOne(res)
}
