package store

import (
	"context"
	"fmt"
	"time"

	"opsdesk/internal/domain"
)

// InsertUsage records one model call's token counts and computed cost.
func (s *Store) InsertUsage(ctx context.Context, rec domain.UsageRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_usage (user_id, model, input_tokens, output_tokens, cost_usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Model, rec.InputTokens, rec.OutputTokens, rec.CostUSD, formatTime(created))
	if err != nil {
		return fmt.Errorf("%w: insert usage: %v", domain.ErrStoreFailure, err)
	}
	return nil
}

// ListUsage returns a user's usage rows, newest first.
func (s *Store) ListUsage(ctx context.Context, userID int64, limit int) ([]domain.UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, model, input_tokens, output_tokens, cost_usd, created_at
		FROM ai_usage WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list usage: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	var recs []domain.UsageRecord
	for rows.Next() {
		var r domain.UsageRecord
		var created string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Model, &r.InputTokens, &r.OutputTokens, &r.CostUSD, &created); err != nil {
			return nil, fmt.Errorf("%w: scan usage: %v", domain.ErrStoreFailure, err)
		}
		r.CreatedAt = parseTime(created)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
