package gateway

import (
	"context"
	"math"
	"time"

	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
)

const (
	noActivityDays  = 30
	noActivityLabel = "No activity"
)

// MasterReport gathers the cross-admin overview. Any signed-in admin may view it.
func (g *Local) MasterReport(ctx context.Context) (r *model.MasterReport, err error) {
	defer g.observe("master_report", &err)

	if _, err := g.adminID(ctx); err != nil {
		return nil, err
	}
	ov := store.NewOverviewStore(g.db)
	r = &model.MasterReport{}
	if r.Admins, err = ov.Admins(ctx); err != nil {
		return nil, err
	}
	if r.Members, err = ov.Members(ctx); err != nil {
		return nil, err
	}
	if r.Tasks, err = ov.RecentTasks(ctx, g.cfg.RecentTaskLimit); err != nil {
		return nil, err
	}
	activity, err := store.NewHistoryStore(g.db).LastActivityByAdmin(ctx)
	if err != nil {
		return nil, err
	}
	r.InactiveAdmins = inactiveAdmins(activity, g.now(), g.cfg.InactiveAfterDays)
	return r, nil
}

func inactiveAdmins(activity []store.AdminActivity, now time.Time, threshold int) []model.InactiveAdmin {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := []model.InactiveAdmin{}
	for _, a := range activity {
		ia := model.InactiveAdmin{ID: a.AdminID, Name: a.AdminName}
		last, err := time.Parse(time.DateOnly, a.LastTaskDate)
		if a.LastTaskDate == "" || err != nil {
			ia.LastActivity = noActivityLabel
			ia.DaysInactive = noActivityDays
		} else {
			ia.LastActivity = a.LastTaskDate
			ia.DaysInactive = int(math.Floor(today.Sub(last).Hours() / 24))
		}
		if ia.DaysInactive > threshold {
			out = append(out, ia)
		}
	}
	return out
}
