package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/taskchamp/internal/model"
)

type PenaltyStore struct {
	db DBTX
}

func NewPenaltyStore(db DBTX) *PenaltyStore {
	return &PenaltyStore{db: db}
}

func (s *PenaltyStore) Create(ctx context.Context, memberID int64, points int) (*model.Penalty, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO penalties (member_id, points) VALUES (?, ?)`, memberID, points)
	if err != nil {
		return nil, fmt.Errorf("insert penalty: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var r model.Penalty
	err = s.db.QueryRowContext(ctx,
		`SELECT id, member_id, points, created_at FROM penalties WHERE id = ?`, id,
	).Scan(&r.ID, &r.MemberID, &r.Points, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get penalty: %w", err)
	}
	return &r, nil
}

// Summary counts penalties and their points between two dates (YYYY-MM-DD, inclusive).
func (s *PenaltyStore) Summary(ctx context.Context, memberID int64, start, end string) (count, points int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(points), 0) FROM penalties
		 WHERE member_id = ? AND date(created_at) BETWEEN ? AND ?`,
		memberID, start, end,
	).Scan(&count, &points)
	if err != nil {
		return 0, 0, fmt.Errorf("penalty summary: %w", err)
	}
	return count, points, nil
}
