package screen

import (
	"context"
	"errors"
	"fmt"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/model"
)

// maxParallelFetches caps concurrent gateway calls during bulk loads.
const maxParallelFetches = 4

var errNotSettled = errors.New("refresh not settled")

// Celebration is returned when a toggle completes a task.
type Celebration struct {
	TaskID int64 `json:"task_id"`
	Bonus  bool  `json:"bonus"`
}

// Dashboard shows every member with their tasks, reports and rewards.
type Dashboard struct {
	base
	poll PollConfig
}

func NewDashboard(d Deps) *Dashboard {
	poll := d.Poll
	if poll.Attempts == 0 {
		poll = DefaultPollConfig()
	}
	return &Dashboard{base: newBase(d, "dashboard_screen"), poll: poll}
}

// Load fetches the roster and then every member's slices concurrently.
func (d *Dashboard) Load(ctx context.Context) error {
	if err := d.load(ctx); err != nil {
		return d.fail(ctx, "load_dashboard", "load the dashboard", err)
	}
	return nil
}

func (d *Dashboard) load(ctx context.Context) error {
	t := d.state.BeginMembers()
	members, err := d.gw.ListMembers(ctx)
	if err != nil {
		return err
	}
	d.state.SetMembers(t, members)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for _, m := range members {
		d.goMemberFetches(g, gctx, m.ID)
	}
	return g.Wait()
}

// goMemberFetches schedules the tasks, reports and reward-history fetches of one member.
func (d *Dashboard) goMemberFetches(g *errgroup.Group, ctx context.Context, memberID int64) {
	g.Go(func() error {
		t := d.state.BeginTasks(memberID)
		tasks, err := d.gw.ListTasks(ctx, memberID)
		if err != nil {
			return fmt.Errorf("tasks of member %d: %w", memberID, err)
		}
		d.state.PutTasks(t, tasks)
		return nil
	})
	g.Go(func() error {
		t := d.state.BeginReports(memberID)
		weekly, err := d.gw.WeeklyReport(ctx, memberID)
		if err != nil {
			return fmt.Errorf("weekly report of member %d: %w", memberID, err)
		}
		monthly, err := d.gw.MonthlyReport(ctx, memberID)
		if err != nil {
			return fmt.Errorf("monthly report of member %d: %w", memberID, err)
		}
		d.state.PutReports(t, weekly, monthly)
		return nil
	})
	g.Go(func() error {
		t := d.state.BeginRewards(memberID)
		h, err := d.gw.RewardsHistory(ctx, memberID)
		if err != nil {
			return fmt.Errorf("rewards of member %d: %w", memberID, err)
		}
		d.state.PutRewardHistory(t, h)
		return nil
	})
}

// refreshMember reloads the roster plus one member's slices. A session store
// that lacks other members' tasks, as after an idle sweep, gets a full load.
func (d *Dashboard) refreshMember(ctx context.Context, memberID int64) {
	if !d.loaded() {
		if err := d.load(ctx); err != nil {
			d.logger.Warn("reload dashboard", "member_id", memberID, "error", err)
		}
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.loadMembers(gctx) })
	d.goMemberFetches(g, gctx, memberID)
	if err := g.Wait(); err != nil {
		d.logger.Warn("refetch member", "member_id", memberID, "error", err)
	}
}

func (d *Dashboard) loaded() bool {
	members := d.state.Members()
	if len(members) == 0 {
		return false
	}
	for _, m := range members {
		if !d.state.HasTasks(m.ID) {
			return false
		}
	}
	return true
}

// LoadShared shows the read-only view of the member with shareID.
func (d *Dashboard) LoadShared(ctx context.Context, shareID string) (*model.Member, error) {
	t := d.state.BeginMembers()
	m, err := d.gw.GetMemberByShareID(ctx, shareID)
	if err != nil {
		d.state.SetMembers(t, nil)
		if errors.Is(err, gateway.ErrNotFound) {
			d.notify.Notify(LevelError, "Member not found.")
			return nil, &Error{Op: "load_shared", Message: "Member not found.", Err: err}
		}
		return nil, d.fail(ctx, "load_shared", "load this member", err)
	}
	d.state.SetMembers(t, []model.Member{*m})

	ctx = gateway.WithShareScope(ctx, m.ShareID)
	g, gctx := errgroup.WithContext(ctx)
	d.goMemberFetches(g, gctx, m.ID)
	if err := g.Wait(); err != nil {
		return nil, d.fail(ctx, "load_shared", "load this member", err)
	}
	return m, nil
}

func (d *Dashboard) Bonus(ctx context.Context, memberID int64) error {
	if err := d.gw.AwardBonus(ctx, memberID); err != nil {
		return d.fail(ctx, "bonus", "add the bonus", err)
	}
	d.success(fmt.Sprintf("+%d bonus points!", gateway.BonusPoints))
	d.refreshMember(ctx, memberID)
	return nil
}

func (d *Dashboard) Penalty(ctx context.Context, memberID int64) error {
	if _, err := d.gw.ApplyPenalty(ctx, memberID); err != nil {
		return d.fail(ctx, "penalty", "apply the penalty", err)
	}
	d.notify.Notify(LevelInfo, fmt.Sprintf("-%d points penalty applied.", gateway.PenaltyPoints))
	d.refreshMember(ctx, memberID)
	return nil
}

// Reward cashes out the member's current total.
func (d *Dashboard) Reward(ctx context.Context, memberID int64) (*model.Reward, error) {
	r, err := d.gw.RewardMember(ctx, memberID)
	if err != nil {
		return nil, d.fail(ctx, "reward", "reward the member", err)
	}
	d.success(fmt.Sprintf("Rewarded %d points!", r.Points))
	d.refreshMember(ctx, memberID)
	return r, nil
}

// ToggleTask flips a task. It returns a Celebration when the task became completed.
func (d *Dashboard) ToggleTask(ctx context.Context, taskID int64) (*Celebration, error) {
	t, err := d.gw.ToggleTask(ctx, taskID)
	if err != nil {
		return nil, d.fail(ctx, "toggle_task", "update the task", err)
	}
	d.refreshMember(ctx, t.MemberID)
	if !t.Completed {
		return nil, nil
	}
	return &Celebration{TaskID: t.ID, Bonus: t.IsBonus}, nil
}

// Reorder swaps two of a member's tasks as currently shown.
func (d *Dashboard) Reorder(ctx context.Context, memberID, draggedID, targetID int64) error {
	if draggedID == targetID {
		return nil
	}
	dragged, target, ok, err := d.resolvePair(ctx, memberID, d.state.Tasks(memberID), draggedID, targetID)
	if err != nil {
		return d.fail(ctx, "reorder_tasks", "reorder the tasks", err)
	}
	if !ok {
		return nil
	}
	if err := d.gw.UpdateTaskPositions(ctx, dragged.ID, target.Position, target.ID, dragged.Position); err != nil {
		return d.fail(ctx, "reorder_tasks", "reorder the tasks", err)
	}
	d.refreshMember(ctx, memberID)
	return nil
}

// RefreshDay starts a new day: every member's daily points are folded into
// their total, the gateway archives and resets tasks, and once the reset is
// observed the whole dashboard is reloaded. Each fold also drains the member's
// daily points, so retrying after a partial failure skips members already folded.
func (d *Dashboard) RefreshDay(ctx context.Context) (*model.RefreshAck, error) {
	entries, err := d.gw.ListDailyPoints(ctx)
	if err != nil {
		return nil, d.fail(ctx, "refresh_day", "read daily points", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for _, e := range entries {
		if e.DailyPoints <= 0 {
			continue
		}
		g.Go(func() error {
			return d.gw.FoldDailyPoints(gctx, e.MemberID, e.DailyPoints)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, d.fail(ctx, "refresh_day", "add today's points", err)
	}

	ack, err := d.gw.TriggerTaskRefresh(ctx)
	if err != nil {
		return nil, d.fail(ctx, "refresh_day", "start a new day", err)
	}

	if err := d.waitSettled(ctx); err != nil {
		d.logger.Warn("refresh not observed as settled", "error", err)
		d.notify.Notify(LevelInfo, "The new day is still being applied; some numbers may lag.")
	} else {
		d.success("New day started!")
	}

	if err := d.load(ctx); err != nil {
		return ack, d.fail(ctx, "refresh_day", "reload the dashboard", err)
	}
	return ack, nil
}

// waitSettled polls the gateway with capped exponential backoff until the
// refresh is visible.
func (d *Dashboard) waitSettled(ctx context.Context) error {
	b := retry.NewExponential(d.poll.Base)
	b = retry.WithCappedDuration(d.poll.Max, b)
	b = retry.WithMaxRetries(d.poll.Attempts, b)

	polls := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		polls++
		settled, err := d.gw.RefreshSettled(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		if !settled {
			return retry.RetryableError(errNotSettled)
		}
		return nil
	})
	d.metrics.ObserveRefreshPolls(polls)
	return err
}
