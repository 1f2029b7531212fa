package screen

import (
	"context"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/viewstate"
)

// Admin manages one member at a time: roster edits, the selected member's
// tasks and reports.
type Admin struct {
	base
}

func NewAdmin(d Deps) *Admin {
	return &Admin{base: newBase(d, "admin_screen")}
}

func (a *Admin) LoadMembers(ctx context.Context) error {
	if err := a.loadMembers(ctx); err != nil {
		return a.fail(ctx, "load_members", "load members", err)
	}
	return nil
}

// Select focuses the screen on memberID and loads its tasks and reports.
// Results from an earlier selection that arrive late are dropped.
func (a *Admin) Select(ctx context.Context, memberID int64) error {
	t := a.state.Select(memberID)
	if err := a.fetchSelected(ctx, t); err != nil {
		return a.fail(ctx, "select_member", "load this member", err)
	}
	return nil
}

func (a *Admin) refreshSelected(ctx context.Context) error {
	t, ok := a.state.BeginSelected()
	if !ok {
		return nil
	}
	return a.fetchSelected(ctx, t)
}

func (a *Admin) fetchSelected(ctx context.Context, t viewstate.Ticket) error {
	var (
		tasks   []model.Task
		weekly  *model.WeeklyReport
		monthly *model.MonthlyReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = a.gw.ListTasks(gctx, t.MemberID())
		return err
	})
	g.Go(func() error {
		var err error
		weekly, err = a.gw.WeeklyReport(gctx, t.MemberID())
		return err
	})
	g.Go(func() error {
		var err error
		monthly, err = a.gw.MonthlyReport(gctx, t.MemberID())
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	a.state.PutSelectedTasks(t, tasks)
	a.state.PutSelectedReports(t, weekly, monthly)
	return nil
}

// refetch reloads the roster and the selection after a mutation. Refetch
// failures are only logged: the mutation itself succeeded.
func (a *Admin) refetch(ctx context.Context, selected bool) {
	if err := a.loadMembers(ctx); err != nil {
		a.logger.Warn("refetch members", "error", err)
	}
	if selected {
		if err := a.refreshSelected(ctx); err != nil {
			a.logger.Warn("refetch selection", "error", err)
		}
	}
}

func (a *Admin) AddMember(ctx context.Context, name string) (*model.Member, error) {
	m, err := a.gw.CreateMember(ctx, name)
	if err != nil {
		return nil, a.fail(ctx, "add_member", "add the member", err)
	}
	a.success(m.Name + " added.")
	a.refetch(ctx, false)
	return m, nil
}

// AddTask appends a task to the selected member.
func (a *Admin) AddTask(ctx context.Context, title string, isBonus bool) (*model.Task, error) {
	memberID := a.state.Selected().MemberID
	if memberID == 0 {
		return nil, a.fail(ctx, "add_task", "add the task", gateway.ErrNotFound)
	}
	t, err := a.gw.CreateTask(ctx, memberID, title, isBonus)
	if err != nil {
		return nil, a.fail(ctx, "add_task", "add the task", err)
	}
	a.refetch(ctx, true)
	return t, nil
}

func (a *Admin) ToggleTask(ctx context.Context, taskID int64) error {
	if _, err := a.gw.ToggleTask(ctx, taskID); err != nil {
		return a.fail(ctx, "toggle_task", "update the task", err)
	}
	a.refetch(ctx, true)
	return nil
}

// RenameMember ignores blank names.
func (a *Admin) RenameMember(ctx context.Context, memberID int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	if err := a.gw.RenameMember(ctx, memberID, name); err != nil {
		return a.fail(ctx, "rename_member", "rename the member", err)
	}
	a.refetch(ctx, false)
	return nil
}

// RenameTask ignores blank titles.
func (a *Admin) RenameTask(ctx context.Context, taskID int64, title string) error {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	if err := a.gw.RenameTask(ctx, taskID, title); err != nil {
		return a.fail(ctx, "rename_task", "rename the task", err)
	}
	a.refetch(ctx, true)
	return nil
}

func (a *Admin) DeleteMember(ctx context.Context, memberID int64) error {
	if err := a.gw.DeleteMember(ctx, memberID); err != nil {
		return a.fail(ctx, "delete_member", "delete the member", err)
	}
	if a.state.Selected().MemberID == memberID {
		a.state.ClearSelection()
	}
	a.state.Forget(memberID)
	a.success("Member deleted.")
	a.refetch(ctx, false)
	return nil
}

// Reorder swaps the positions of the dragged and target tasks of the
// selected member. Dropping a task on itself does nothing.
func (a *Admin) Reorder(ctx context.Context, draggedID, targetID int64) error {
	if draggedID == targetID {
		return nil
	}
	sel := a.state.Selected()
	dragged, target, ok, err := a.resolvePair(ctx, sel.MemberID, sel.Tasks, draggedID, targetID)
	if err != nil {
		return a.fail(ctx, "reorder_tasks", "reorder the tasks", err)
	}
	if !ok {
		return nil
	}
	if err := a.gw.UpdateTaskPositions(ctx, dragged.ID, target.Position, target.ID, dragged.Position); err != nil {
		return a.fail(ctx, "reorder_tasks", "reorder the tasks", err)
	}
	a.refetch(ctx, true)
	return nil
}

func (a *Admin) SetTargetPoints(ctx context.Context, memberID int64, target int) error {
	if target < 0 {
		target = 0
	}
	if err := a.gw.SetTargetPoints(ctx, memberID, target); err != nil {
		return a.fail(ctx, "set_target_points", "save the goal", err)
	}
	a.refetch(ctx, false)
	return nil
}

// UploadImage stores the file, resolves its public URL and points the member at it.
func (a *Admin) UploadImage(ctx context.Context, memberID int64, kind gateway.ImageKind, filename string, body io.Reader) error {
	key, err := a.gw.UploadImage(ctx, filename, body)
	if err != nil {
		return a.fail(ctx, "upload_image", "upload the image", err)
	}
	if err := a.gw.SetMemberImage(ctx, memberID, kind, a.gw.PublicURL(key)); err != nil {
		return a.fail(ctx, "upload_image", "save the image", err)
	}
	a.success("Image updated.")
	a.refetch(ctx, false)
	return nil
}

// resolvePair finds the dragged and target tasks in the tasks on screen. When
// the session's copy is missing them, as after an idle sweep, the member's
// tasks are fetched again. ok is false, with the user told to reload, when
// the pair still cannot be found.
func (b *base) resolvePair(ctx context.Context, memberID int64, shown []model.Task, draggedID, targetID int64) (dragged, target model.Task, ok bool, err error) {
	if dragged, target, ok = findPair(shown, draggedID, targetID); ok {
		return dragged, target, true, nil
	}
	if memberID != 0 {
		tasks, err := b.gw.ListTasks(ctx, memberID)
		if err != nil {
			return dragged, target, false, err
		}
		if dragged, target, ok = findPair(tasks, draggedID, targetID); ok {
			return dragged, target, true, nil
		}
	}
	b.notify.Notify(LevelInfo, "Reload to reorder.")
	return dragged, target, false, nil
}

func findPair(tasks []model.Task, draggedID, targetID int64) (dragged, target model.Task, ok bool) {
	var foundD, foundT bool
	for _, t := range tasks {
		switch t.ID {
		case draggedID:
			dragged, foundD = t, true
		case targetID:
			target, foundT = t, true
		}
	}
	return dragged, target, foundD && foundT
}
