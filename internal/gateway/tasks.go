package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
)

func (g *Local) ListTasks(ctx context.Context, memberID int64) (tasks []model.Task, err error) {
	defer g.observe("list_tasks", &err)

	m, err := g.readableMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return store.NewTaskStore(g.db).ListByMember(ctx, m.ID)
}

// CreateTask appends a task after the member's current highest position.
// Points come from the bonus flag.
func (g *Local) CreateTask(ctx context.Context, memberID int64, title string, isBonus bool) (t *model.Task, err error) {
	defer g.observe("create_task", &err)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}
	points := g.cfg.RegularTaskPoints
	if isBonus {
		points = g.cfg.BonusTaskPoints
	}

	var m *model.Member
	err = store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		var err error
		m, err = g.ownedMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		t, err = store.NewTaskStore(tx).Create(ctx, m.ID, title, isBonus, points)
		return err
	})
	if err != nil {
		return nil, err
	}
	g.publishMember(m, "task", "created", t.ID)
	return t, nil
}

func (g *Local) RenameTask(ctx context.Context, taskID int64, title string) (err error) {
	defer g.observe("rename_task", &err)

	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}
	t, m, err := g.ownedTask(ctx, g.db, taskID)
	if err != nil {
		return err
	}
	if err := store.NewTaskStore(g.db).Rename(ctx, t.ID, title); err != nil {
		return err
	}
	g.publishMember(m, "task", "updated", t.ID)
	return nil
}

// ToggleTask flips completion and moves the task's points in or out of the
// member's daily accumulator.
func (g *Local) ToggleTask(ctx context.Context, taskID int64) (t *model.Task, err error) {
	defer g.observe("toggle_task", &err)

	var m *model.Member
	err = store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		var err error
		t, m, err = g.ownedTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		completed := !t.Completed
		delta := t.Points
		if !completed {
			delta = -delta
		}
		if err := store.NewTaskStore(tx).SetCompleted(ctx, t.ID, completed); err != nil {
			return err
		}
		if err := store.NewMemberStore(tx).AddDailyPoints(ctx, m.ID, delta); err != nil {
			return err
		}
		t.Completed = completed
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.publishMember(m, "task", "updated", t.ID)
	return t, nil
}

// UpdateTaskPositions sets both positions in one transaction. Callers pass the
// two tasks' exchanged positions to swap them. Both tasks must belong to the
// same member.
func (g *Local) UpdateTaskPositions(ctx context.Context, taskID1 int64, position1 int, taskID2 int64, position2 int) (err error) {
	defer g.observe("update_task_positions", &err)

	var m *model.Member
	err = store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		t1, owner, err := g.ownedTask(ctx, tx, taskID1)
		if err != nil {
			return err
		}
		t2, _, err := g.ownedTask(ctx, tx, taskID2)
		if err != nil {
			return err
		}
		if t1.MemberID != t2.MemberID {
			return fmt.Errorf("%w: tasks belong to different members", ErrInvalidInput)
		}
		m = owner
		ts := store.NewTaskStore(tx)
		if err := ts.SetPosition(ctx, t1.ID, position1); err != nil {
			return err
		}
		return ts.SetPosition(ctx, t2.ID, position2)
	})
	if err != nil {
		return err
	}
	g.publishMember(m, "task", "reordered", taskID1)
	return nil
}
