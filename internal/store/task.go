package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/taskchamp/internal/model"
)

type TaskStore struct {
	db DBTX
}

func NewTaskStore(db DBTX) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := scanner.Scan(
		&t.ID, &t.MemberID, &t.Title, &t.IsBonus, &t.Completed,
		&t.Points, &t.Position, &t.Icon, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const taskCols = `id, member_id, title, is_bonus, completed, points, position, icon, created_at, updated_at`

// Create inserts a task at the end of the member's list. The position read and
// the insert must share a transaction for the position to be unique.
func (s *TaskStore) Create(ctx context.Context, memberID int64, title string, isBonus bool, points int) (*model.Task, error) {
	pos, err := s.MaxPosition(ctx, memberID)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (member_id, title, is_bonus, points, position) VALUES (?, ?, ?, ?, ?)`,
		memberID, title, isBonus, points, pos+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// MaxPosition returns the highest position in use, or 0 when the member has no tasks.
func (s *TaskStore) MaxPosition(ctx context.Context, memberID int64) (int, error) {
	var pos int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM tasks WHERE member_id = ?`, memberID,
	).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("max task position: %w", err)
	}
	return pos, nil
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByMember(ctx context.Context, memberID int64) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE member_id = ? ORDER BY position ASC, id ASC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Rename(ctx context.Context, id int64, title string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE tasks SET title = ? WHERE id = ?`, title, id); err != nil {
		return fmt.Errorf("rename task: %w", err)
	}
	return nil
}

func (s *TaskStore) SetCompleted(ctx context.Context, id int64, completed bool) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE tasks SET completed = ? WHERE id = ?`, completed, id); err != nil {
		return fmt.Errorf("set task completed: %w", err)
	}
	return nil
}

func (s *TaskStore) SetPosition(ctx context.Context, id int64, position int) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE tasks SET position = ? WHERE id = ?`, position, id); err != nil {
		return fmt.Errorf("set task position: %w", err)
	}
	return nil
}

// ResetCompleted clears the completed flag on every task of the admin's members.
func (s *TaskStore) ResetCompleted(ctx context.Context, adminID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = 0
		 WHERE completed = 1 AND member_id IN (SELECT id FROM members WHERE admin_id = ?)`,
		adminID,
	)
	if err != nil {
		return 0, fmt.Errorf("reset completed tasks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// CountPending reports completed tasks and members with daily points left for the admin.
func (s *TaskStore) CountPending(ctx context.Context, adminID int64) (completed, daily int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM tasks t JOIN members m ON m.id = t.member_id
			 WHERE m.admin_id = ? AND t.completed = 1),
			(SELECT COUNT(*) FROM members WHERE admin_id = ? AND daily_points <> 0)`,
		adminID, adminID,
	).Scan(&completed, &daily)
	if err != nil {
		return 0, 0, fmt.Errorf("count pending refresh: %w", err)
	}
	return completed, daily, nil
}

func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
