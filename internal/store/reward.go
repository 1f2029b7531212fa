package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/taskchamp/internal/model"
)

type RewardStore struct {
	db DBTX
}

func NewRewardStore(db DBTX) *RewardStore {
	return &RewardStore{db: db}
}

func (s *RewardStore) Create(ctx context.Context, memberID int64, points int) (*model.Reward, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO rewards (member_id, points) VALUES (?, ?)`, memberID, points)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var r model.Reward
	err = s.db.QueryRowContext(ctx,
		`SELECT id, member_id, points, created_at FROM rewards WHERE id = ?`, id,
	).Scan(&r.ID, &r.MemberID, &r.Points, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return &r, nil
}

// History returns the member's rewards newest first with aggregate totals.
func (s *RewardStore) History(ctx context.Context, memberID int64) (*model.RewardHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_id, points, created_at FROM rewards
		 WHERE member_id = ? ORDER BY created_at DESC, id DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	h := &model.RewardHistory{Rewards: []model.Reward{}}
	for rows.Next() {
		var r model.Reward
		if err := rows.Scan(&r.ID, &r.MemberID, &r.Points, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		h.Rewards = append(h.Rewards, r)
		h.TotalRewards++
		h.TotalPointsRewarded += r.Points
	}
	return h, rows.Err()
}
