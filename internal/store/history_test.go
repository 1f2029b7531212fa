package store

import (
	"context"
	"testing"
)

func TestHistoryArchiveAndTotals(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ts := NewTaskStore(db)
	hs := NewHistoryStore(db)
	a := seedAdmin(t, db, "admin@example.com", "Admin")
	m := seedMember(t, db, a.ID, "Sam")

	done, _ := ts.Create(ctx, m.ID, "Dishes", false, 1)
	bonus, _ := ts.Create(ctx, m.ID, "Garage", true, 2)
	ts.Create(ctx, m.ID, "Beds", false, 1)
	ts.SetCompleted(ctx, done.ID, true)
	ts.SetCompleted(ctx, bonus.ID, true)

	n, err := hs.Archive(ctx, a.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if n != 3 {
		t.Fatalf("archived = %d, want 3", n)
	}
	ts.ResetCompleted(ctx, a.ID)

	history, err := hs.ListByMember(ctx, m.ID, "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 3 || history[0].TaskID == nil {
		t.Fatalf("history = %+v", history)
	}

	// Archived day plus three live, uncompleted tasks for the next day.
	totals, err := hs.Totals(ctx, m.ID, "2026-03-02", "2026-03-08", "2026-03-03")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.TotalTasks != 6 {
		t.Errorf("total tasks = %d, want 6", totals.TotalTasks)
	}
	if totals.CompletedTasks != 2 {
		t.Errorf("completed = %d, want 2", totals.CompletedTasks)
	}
	if totals.BonusTasksCompleted != 1 {
		t.Errorf("bonus completed = %d, want 1", totals.BonusTasksCompleted)
	}
	if totals.PointsEarned != 3 {
		t.Errorf("points earned = %d, want 3", totals.PointsEarned)
	}

	// Today is already archived, so the live tasks are not counted again.
	archived, _ := hs.Totals(ctx, m.ID, "2026-03-02", "2026-03-08", "2026-03-02")
	if archived.TotalTasks != 3 || archived.CompletedTasks != 2 {
		t.Errorf("archived today = %+v, want history only", archived)
	}

	outside, _ := hs.Totals(ctx, m.ID, "2026-04-01", "2026-04-30", "2026-03-03")
	if outside.TotalTasks != 0 {
		t.Errorf("outside window = %+v, want empty", outside)
	}
}

func TestLastActivityByAdmin(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	hs := NewHistoryStore(db)
	active := seedAdmin(t, db, "a@example.com", "Active")
	seedAdmin(t, db, "b@example.com", "Idle")
	m := seedMember(t, db, active.ID, "Sam")
	NewTaskStore(db).Create(ctx, m.ID, "Dishes", false, 1)
	hs.Archive(ctx, active.ID, "2026-03-01")
	hs.Archive(ctx, active.ID, "2026-03-05")

	activity, err := hs.LastActivityByAdmin(ctx)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if len(activity) != 2 {
		t.Fatalf("len = %d, want 2", len(activity))
	}
	if activity[0].LastTaskDate != "2026-03-05" {
		t.Errorf("active last = %q, want 2026-03-05", activity[0].LastTaskDate)
	}
	if activity[1].LastTaskDate != "" {
		t.Errorf("idle last = %q, want empty", activity[1].LastTaskDate)
	}
}

func TestPenaltySummary(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ps := NewPenaltyStore(db)
	a := seedAdmin(t, db, "admin@example.com", "Admin")
	m := seedMember(t, db, a.ID, "Sam")

	ps.Create(ctx, m.ID, 2)
	ps.Create(ctx, m.ID, 2)
	db.Exec(`UPDATE penalties SET created_at = '2026-03-03 10:00:00'`)

	count, points, err := ps.Summary(ctx, m.ID, "2026-03-02", "2026-03-08")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if count != 2 || points != 4 {
		t.Errorf("summary = %d/%d, want 2/4", count, points)
	}

	count, _, _ = ps.Summary(ctx, m.ID, "2026-03-09", "2026-03-15")
	if count != 0 {
		t.Errorf("count outside window = %d, want 0", count)
	}
}

func TestRewardHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rs := NewRewardStore(db)
	a := seedAdmin(t, db, "admin@example.com", "Admin")
	m := seedMember(t, db, a.ID, "Sam")

	rs.Create(ctx, m.ID, 10)
	last, err := rs.Create(ctx, m.ID, 32)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}

	h, err := rs.History(ctx, m.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.TotalRewards != 2 || h.TotalPointsRewarded != 42 {
		t.Errorf("history = %d/%d, want 2/42", h.TotalRewards, h.TotalPointsRewarded)
	}
	if h.Rewards[0].ID != last.ID {
		t.Errorf("newest reward first: got id %d, want %d", h.Rewards[0].ID, last.ID)
	}
}

func TestOverview(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ovs := NewOverviewStore(db)
	a := seedAdmin(t, db, "admin@example.com", "Admin")
	m := seedMember(t, db, a.ID, "Sam")
	NewRewardStore(db).Create(ctx, m.ID, 12)
	NewTaskStore(db).Create(ctx, m.ID, "Dishes", false, 1)

	admins, err := ovs.Admins(ctx)
	if err != nil {
		t.Fatalf("admins: %v", err)
	}
	if len(admins) != 1 || admins[0].Email != "admin@example.com" {
		t.Fatalf("admins = %+v", admins)
	}

	members, err := ovs.Members(ctx)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0].TotalRewarded != 12 || members[0].AdminName != "Admin" {
		t.Fatalf("members = %+v", members)
	}

	tasks, err := ovs.RecentTasks(ctx, 100)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].MemberName != "Sam" {
		t.Fatalf("tasks = %+v", tasks)
	}
}
