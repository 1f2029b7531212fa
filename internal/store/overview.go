package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/taskchamp/internal/model"
)

// OverviewStore serves the cross-tenant master report.
type OverviewStore struct {
	db DBTX
}

func NewOverviewStore(db DBTX) *OverviewStore {
	return &OverviewStore{db: db}
}

func (s *OverviewStore) Admins(ctx context.Context) ([]model.AdminOverview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.name, u.email, a.contact_number, a.created_at
		 FROM admins a JOIN users u ON u.id = a.user_id
		 ORDER BY a.created_at DESC, a.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list admin overview: %w", err)
	}
	defer rows.Close()

	admins := []model.AdminOverview{}
	for rows.Next() {
		var a model.AdminOverview
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Email, &a.ContactNumber, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin overview: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (s *OverviewStore) Members(ctx context.Context) ([]model.MemberOverview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.name, a.name, m.total_points,
			COALESCE((SELECT SUM(r.points) FROM rewards r WHERE r.member_id = m.id), 0)
		 FROM members m JOIN admins a ON a.id = m.admin_id
		 ORDER BY a.name ASC, m.total_points DESC, m.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list member overview: %w", err)
	}
	defer rows.Close()

	members := []model.MemberOverview{}
	for rows.Next() {
		var m model.MemberOverview
		if err := rows.Scan(&m.ID, &m.Name, &m.AdminName, &m.TotalPoints, &m.TotalRewarded); err != nil {
			return nil, fmt.Errorf("scan member overview: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// RecentTasks returns the newest tasks across all admins.
func (s *OverviewStore) RecentTasks(ctx context.Context, limit int) ([]model.TaskOverview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.title, m.name, a.name, t.is_bonus, t.completed, t.created_at
		 FROM tasks t
		 JOIN members m ON m.id = t.member_id
		 JOIN admins a ON a.id = m.admin_id
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.TaskOverview{}
	for rows.Next() {
		var t model.TaskOverview
		if err := rows.Scan(&t.ID, &t.Title, &t.MemberName, &t.AdminName, &t.IsBonus, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
