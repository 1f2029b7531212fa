package gateway

import (
	"context"
	"math"
	"time"

	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
)

// WeekBounds returns the Monday and Sunday of the week containing t.
func WeekBounds(t time.Time) (start, end time.Time) {
	offset := (int(t.Weekday()) + 6) % 7
	start = time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 6)
}

// MonthBounds returns the first and last day of the month containing t.
func MonthBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, -1)
}

// CompletionRate is completed/total as a percentage rounded to two decimals.
func CompletionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}

func (g *Local) reportTotals(ctx context.Context, memberID int64, start, end string) (model.ReportTotals, error) {
	totals, err := store.NewHistoryStore(g.db).Totals(ctx, memberID, start, end, g.now().Format(time.DateOnly))
	if err != nil {
		return totals, err
	}
	totals.PenaltiesCount, totals.PenaltyPoints, err = store.NewPenaltyStore(g.db).Summary(ctx, memberID, start, end)
	return totals, err
}

// WeeklyReport is the get_member_weekly_report procedure.
func (g *Local) WeeklyReport(ctx context.Context, memberID int64) (r *model.WeeklyReport, err error) {
	defer g.observe("get_member_weekly_report", &err)

	m, err := g.readableMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	start, end := WeekBounds(g.now())
	r = &model.WeeklyReport{
		WeekStart: start.Format(time.DateOnly),
		WeekEnd:   end.Format(time.DateOnly),
	}
	r.ReportTotals, err = g.reportTotals(ctx, m.ID, r.WeekStart, r.WeekEnd)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// MonthlyReport is the get_member_monthly_report procedure.
func (g *Local) MonthlyReport(ctx context.Context, memberID int64) (r *model.MonthlyReport, err error) {
	defer g.observe("get_member_monthly_report", &err)

	m, err := g.readableMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	start, end := MonthBounds(g.now())
	r = &model.MonthlyReport{
		MonthStart: start.Format(time.DateOnly),
		MonthEnd:   end.Format(time.DateOnly),
	}
	r.ReportTotals, err = g.reportTotals(ctx, m.ID, r.MonthStart, r.MonthEnd)
	if err != nil {
		return nil, err
	}
	r.CompletionRate = CompletionRate(r.CompletedTasks, r.TotalTasks)
	return r, nil
}

// RewardsHistory is the get_member_rewards_history procedure.
func (g *Local) RewardsHistory(ctx context.Context, memberID int64) (h *model.RewardHistory, err error) {
	defer g.observe("get_member_rewards_history", &err)

	m, err := g.readableMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return store.NewRewardStore(g.db).History(ctx, m.ID)
}
