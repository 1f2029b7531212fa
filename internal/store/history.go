package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/taskchamp/internal/model"
)

type HistoryStore struct {
	db DBTX
}

func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db}
}

// Archive snapshots every task of the admin's members into task_history under taskDate.
func (s *HistoryStore) Archive(ctx context.Context, adminID int64, taskDate string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO task_history (member_id, task_id, title, is_bonus, completed, points, task_date)
		 SELECT t.member_id, t.id, t.title, t.is_bonus, t.completed, t.points, ?
		 FROM tasks t JOIN members m ON m.id = t.member_id
		 WHERE m.admin_id = ?`,
		taskDate, adminID,
	)
	if err != nil {
		return 0, fmt.Errorf("archive tasks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *HistoryStore) ListByMember(ctx context.Context, memberID int64, start, end string) ([]model.TaskHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_id, task_id, title, is_bonus, completed, points, task_date, created_at
		 FROM task_history WHERE member_id = ? AND task_date BETWEEN ? AND ?
		 ORDER BY task_date ASC, id ASC`,
		memberID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list task history: %w", err)
	}
	defer rows.Close()

	history := []model.TaskHistory{}
	for rows.Next() {
		var h model.TaskHistory
		var taskID sql.NullInt64
		if err := rows.Scan(&h.ID, &h.MemberID, &taskID, &h.Title, &h.IsBonus, &h.Completed, &h.Points, &h.TaskDate, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task history: %w", err)
		}
		if taskID.Valid {
			h.TaskID = &taskID.Int64
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// Totals aggregates archived tasks dated within [start, end]. The member's
// live tasks count as today's work only while today is inside the window and
// has not been archived yet.
func (s *HistoryStore) Totals(ctx context.Context, memberID int64, start, end, today string) (model.ReportTotals, error) {
	var t model.ReportTotals
	err := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(completed), 0),
			COALESCE(SUM(CASE WHEN completed = 1 AND is_bonus = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN completed = 1 THEN points ELSE 0 END), 0)
		 FROM (
			SELECT is_bonus, completed, points FROM task_history
			WHERE member_id = ? AND task_date BETWEEN ? AND ?
			UNION ALL
			SELECT is_bonus, completed, points FROM tasks
			WHERE member_id = ? AND ? BETWEEN ? AND ?
			  AND NOT EXISTS (
				SELECT 1 FROM task_history WHERE member_id = ? AND task_date = ?
			  )
		 )`,
		memberID, start, end,
		memberID, today, start, end,
		memberID, today,
	).Scan(&t.TotalTasks, &t.CompletedTasks, &t.BonusTasksCompleted, &t.PointsEarned)
	if err != nil {
		return t, fmt.Errorf("report totals: %w", err)
	}
	return t, nil
}

// AdminActivity is the latest archived task date per admin ("" when none).
type AdminActivity struct {
	AdminID      int64
	AdminName    string
	LastTaskDate string
}

func (s *HistoryStore) LastActivityByAdmin(ctx context.Context) ([]AdminActivity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.name, MAX(h.task_date)
		 FROM admins a
		 LEFT JOIN members m ON m.admin_id = a.id
		 LEFT JOIN task_history h ON h.member_id = m.id
		 GROUP BY a.id, a.name
		 ORDER BY a.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("admin activity: %w", err)
	}
	defer rows.Close()

	var out []AdminActivity
	for rows.Next() {
		var a AdminActivity
		var last sql.NullString
		if err := rows.Scan(&a.AdminID, &a.AdminName, &last); err != nil {
			return nil, fmt.Errorf("scan admin activity: %w", err)
		}
		a.LastTaskDate = last.String
		out = append(out, a)
	}
	return out, rows.Err()
}
