package gateway

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/database"
	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
	"github.com/dukerupert/taskchamp/internal/websocket"
)

// Wednesday.
var testNow = time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs map[string][]websocket.Message
}

func (p *recordingPublisher) Publish(topic string, msg websocket.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.msgs == nil {
		p.msgs = make(map[string][]websocket.Message)
	}
	p.msgs[topic] = append(p.msgs[topic], msg)
}

func (p *recordingPublisher) types(topic string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs[topic] {
		out = append(out, m.Type)
	}
	return out
}

type testEnv struct {
	db  *sql.DB
	g   *Local
	pub *recordingPublisher
}

func setupGateway(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pub := &recordingPublisher{}
	opts = append([]Option{WithClock(func() time.Time { return testNow }), WithPublisher(pub)}, opts...)
	return &testEnv{db: db, g: New(db, DefaultConfig(), opts...), pub: pub}
}

// signUp registers an admin and returns a context carrying its identity.
func (e *testEnv) signUp(t *testing.T, email string) context.Context {
	t.Helper()
	ctx := context.Background()
	sess, err := e.g.SignUp(ctx, SignUpParams{
		Email:         email,
		Password:      "Passw0rd",
		FullName:      "Admin " + email,
		ContactNumber: "555-0100",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	ac, err := e.g.Session(ctx, sess.Token)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return auth.WithAuth(ctx, ac)
}

func (e *testEnv) member(t *testing.T, ctx context.Context, name string) *model.Member {
	t.Helper()
	m, err := e.g.CreateMember(ctx, name)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}

func (e *testEnv) setTotal(t *testing.T, memberID int64, total int) {
	t.Helper()
	if err := store.NewMemberStore(e.db).SetTotalPoints(context.Background(), memberID, total); err != nil {
		t.Fatalf("set total: %v", err)
	}
}

func (e *testEnv) total(t *testing.T, ctx context.Context, memberID int64) int {
	t.Helper()
	m, err := e.g.GetMember(ctx, memberID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	return m.TotalPoints
}

func TestSignUpAndSignIn(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "Alice@Example.com")

	ac, _ := auth.FromContext(ctx)
	if ac.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized", ac.Email)
	}
	if ac.AdminID == 0 {
		t.Fatal("expected admin id")
	}

	sess, err := e.g.SignIn(context.Background(), "alice@example.com", "Passw0rd")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected token")
	}

	if _, err := e.g.SignIn(context.Background(), "alice@example.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := e.g.SignIn(context.Background(), "nobody@example.com", "Passw0rd"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}

	got := e.pub.types(websocket.AdminTopic(ac.AdminID))
	if len(got) != 2 || got[0] != "auth_signed_in" || got[1] != "auth_signed_in" {
		t.Errorf("auth events = %v", got)
	}
}

func TestSignUpValidation(t *testing.T) {
	e := setupGateway(t)
	ctx := context.Background()

	_, err := e.g.SignUp(ctx, SignUpParams{Email: "a@example.com", Password: "weak", FullName: "A"})
	if !errors.Is(err, auth.ErrWeakPassword) {
		t.Errorf("weak password err = %v", err)
	}
	_, err = e.g.SignUp(ctx, SignUpParams{Email: "a@example.com", Password: "Passw0rd"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing name err = %v", err)
	}

	e.signUp(t, "a@example.com")
	_, err = e.g.SignUp(ctx, SignUpParams{Email: "A@example.com", Password: "Passw0rd", FullName: "B"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestSignOut(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	ac, _ := auth.FromContext(ctx)

	if err := e.g.SignOut(context.Background(), ac.Token); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := e.g.Session(context.Background(), ac.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("session after sign out err = %v", err)
	}
	if err := e.g.SignOut(context.Background(), "unknown"); err != nil {
		t.Errorf("sign out unknown token: %v", err)
	}

	got := e.pub.types(websocket.AdminTopic(ac.AdminID))
	if got[len(got)-1] != "auth_signed_out" {
		t.Errorf("last event = %v, want auth_signed_out", got)
	}
}

func TestRequiresSignIn(t *testing.T) {
	e := setupGateway(t)
	if _, err := e.g.ListMembers(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("list members err = %v", err)
	}
	if _, err := e.g.CreateMember(context.Background(), "Sam"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("create member err = %v", err)
	}
}

func TestMembersOrderedByTotalDesc(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")

	low := e.member(t, ctx, "Low")
	high := e.member(t, ctx, "High")
	mid := e.member(t, ctx, "Mid")
	e.setTotal(t, low.ID, 2)
	e.setTotal(t, high.ID, 40)
	e.setTotal(t, mid.ID, 9)

	members, err := e.g.ListMembers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 1; i < len(members); i++ {
		if members[i-1].TotalPoints < members[i].TotalPoints {
			t.Fatalf("members not descending by total: %+v", members)
		}
	}
	if members[0].Name != "High" || members[2].Name != "Low" {
		t.Errorf("order = %s, %s, %s", members[0].Name, members[1].Name, members[2].Name)
	}
}

func TestMembersScopedToAdmin(t *testing.T) {
	e := setupGateway(t)
	mine := e.signUp(t, "a@example.com")
	theirs := e.signUp(t, "b@example.com")

	m := e.member(t, mine, "Sam")

	members, _ := e.g.ListMembers(theirs)
	if len(members) != 0 {
		t.Errorf("other admin sees %d members", len(members))
	}
	if err := e.g.RenameMember(theirs, m.ID, "Hijack"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rename other admin's member err = %v", err)
	}
	if err := e.g.AwardBonus(theirs, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("bonus other admin's member err = %v", err)
	}
	if _, err := e.g.ListTasks(theirs, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("list other admin's tasks err = %v", err)
	}
}

func TestCreateMemberRejectsBlankName(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	if _, err := e.g.CreateMember(ctx, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateTaskPositions(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")

	first, err := e.g.CreateTask(ctx, m.ID, "Beds", false)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if first.Position != 1 {
		t.Errorf("first position = %d, want 1", first.Position)
	}
	if first.Points != 1 {
		t.Errorf("regular points = %d, want 1", first.Points)
	}

	second, _ := e.g.CreateTask(ctx, m.ID, "Dishes", false)
	// Max position becomes 3.
	if err := e.g.UpdateTaskPositions(ctx, first.ID, 3, second.ID, 2); err != nil {
		t.Fatalf("update positions: %v", err)
	}

	next, err := e.g.CreateTask(ctx, m.ID, "Garage", true)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if next.Position != 4 {
		t.Errorf("position = %d, want 4", next.Position)
	}
	if next.Points != 2 {
		t.Errorf("bonus points = %d, want 2", next.Points)
	}
}

func TestCreateTaskConcurrentPositionsUnique(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.g.CreateTask(ctx, m.ID, "Task", false); err != nil {
				t.Errorf("create task: %v", err)
			}
		}()
	}
	wg.Wait()

	tasks, _ := e.g.ListTasks(ctx, m.ID)
	seen := map[int]bool{}
	for _, task := range tasks {
		if seen[task.Position] {
			t.Fatalf("duplicate position %d", task.Position)
		}
		seen[task.Position] = true
	}
	if len(tasks) != 10 {
		t.Errorf("tasks = %d, want 10", len(tasks))
	}
}

func TestSwapLeavesOtherPositionsUnchanged(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")

	var tasks []*model.Task
	for _, title := range []string{"A", "B", "C", "D"} {
		task, err := e.g.CreateTask(ctx, m.ID, title, false)
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		tasks = append(tasks, task)
	}
	a, d := tasks[0], tasks[3]

	if err := e.g.UpdateTaskPositions(ctx, a.ID, d.Position, d.ID, a.Position); err != nil {
		t.Fatalf("swap: %v", err)
	}

	got, _ := e.g.ListTasks(ctx, m.ID)
	pos := map[string]int{}
	for _, task := range got {
		pos[task.Title] = task.Position
	}
	want := map[string]int{"A": 4, "B": 2, "C": 3, "D": 1}
	for title, p := range want {
		if pos[title] != p {
			t.Errorf("%s position = %d, want %d", title, pos[title], p)
		}
	}
}

func TestSwapRejectsTasksOfDifferentMembers(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	sam := e.member(t, ctx, "Sam")
	alex := e.member(t, ctx, "Alex")
	a1, _ := e.g.CreateTask(ctx, sam.ID, "A1", false)
	e.g.CreateTask(ctx, sam.ID, "A2", false)
	b1, _ := e.g.CreateTask(ctx, alex.ID, "B1", false)

	err := e.g.UpdateTaskPositions(ctx, a1.ID, 2, b1.ID, 1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	got, _ := e.g.ListTasks(ctx, sam.ID)
	pos := map[string]int{}
	for _, task := range got {
		pos[task.Title] = task.Position
	}
	if pos["A1"] != 1 || pos["A2"] != 2 {
		t.Errorf("positions = %v, want unchanged", pos)
	}
}

func TestToggleTaskAdjustsDailyPoints(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")
	task, _ := e.g.CreateTask(ctx, m.ID, "Garage", true)

	toggled, err := e.g.ToggleTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed {
		t.Error("expected completed")
	}
	got, _ := e.g.GetMember(ctx, m.ID)
	if got.DailyPoints != 2 {
		t.Errorf("daily = %d, want 2", got.DailyPoints)
	}

	toggled, _ = e.g.ToggleTask(ctx, task.ID)
	if toggled.Completed {
		t.Error("expected not completed")
	}
	got, _ = e.g.GetMember(ctx, m.ID)
	if got.DailyPoints != 0 {
		t.Errorf("daily = %d, want 0", got.DailyPoints)
	}
}

func TestBonusAddsFive(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")
	e.setTotal(t, m.ID, 3)

	if err := e.g.AwardBonus(ctx, m.ID); err != nil {
		t.Fatalf("bonus: %v", err)
	}
	if got := e.total(t, ctx, m.ID); got != 8 {
		t.Errorf("total = %d, want 8", got)
	}
}

func TestPenaltySubtractsTwoAndClamps(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")

	for _, tc := range []struct{ start, want int }{{7, 5}, {2, 0}, {1, 0}, {0, 0}} {
		e.setTotal(t, m.ID, tc.start)
		p, err := e.g.ApplyPenalty(ctx, m.ID)
		if err != nil {
			t.Fatalf("penalty: %v", err)
		}
		if p.Points != PenaltyPoints {
			t.Errorf("penalty record points = %d, want 2", p.Points)
		}
		if got := e.total(t, ctx, m.ID); got != tc.want {
			t.Errorf("penalty from %d: total = %d, want %d", tc.start, got, tc.want)
		}
	}

	count, _, err := store.NewPenaltyStore(e.db).Summary(context.Background(), m.ID, "2000-01-01", "2100-01-01")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if count != 4 {
		t.Errorf("penalty records = %d, want 4", count)
	}
}

func TestRewardMember(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")
	e.setTotal(t, m.ID, 42)

	r, err := e.g.RewardMember(ctx, m.ID)
	if err != nil {
		t.Fatalf("reward: %v", err)
	}
	if r.Points != 42 {
		t.Errorf("reward points = %d, want 42", r.Points)
	}
	if got := e.total(t, ctx, m.ID); got != 0 {
		t.Errorf("total = %d, want 0", got)
	}

	h, err := e.g.RewardsHistory(ctx, m.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.TotalRewards != 1 || h.Rewards[0].Points != 42 {
		t.Errorf("history = %+v", h)
	}
}

func TestRewardMemberFailureLeavesStateUnchanged(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")
	e.setTotal(t, m.ID, 42)

	_, err := e.db.Exec(`CREATE TRIGGER fail_zero BEFORE UPDATE OF total_points ON members
		WHEN NEW.total_points = 0
		BEGIN SELECT RAISE(ABORT, 'injected'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := e.g.RewardMember(ctx, m.ID); err == nil {
		t.Fatal("expected injected failure")
	}
	if got := e.total(t, ctx, m.ID); got != 42 {
		t.Errorf("total = %d, want 42", got)
	}
	h, _ := e.g.RewardsHistory(ctx, m.ID)
	if h.TotalRewards != 0 {
		t.Errorf("reward records = %d, want 0", h.TotalRewards)
	}
}

func TestTriggerTaskRefresh(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")
	idle := e.member(t, ctx, "Idle")
	task, _ := e.g.CreateTask(ctx, m.ID, "Dishes", false)
	e.g.CreateTask(ctx, idle.ID, "Beds", false)
	e.g.ToggleTask(ctx, task.ID)

	settled, _ := e.g.RefreshSettled(ctx)
	if settled {
		t.Fatal("expected pending work before refresh")
	}

	ack, err := e.g.TriggerTaskRefresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if ack.TaskDate != "2026-03-04" {
		t.Errorf("task date = %q", ack.TaskDate)
	}
	if ack.TasksArchived != 2 || ack.MembersReset != 1 {
		t.Errorf("ack = %+v", ack)
	}

	settled, err = e.g.RefreshSettled(ctx)
	if err != nil {
		t.Fatalf("settled: %v", err)
	}
	if !settled {
		t.Error("expected settled after refresh")
	}

	history, _ := store.NewHistoryStore(e.db).ListByMember(context.Background(), m.ID, "2026-03-04", "2026-03-04")
	if len(history) != 1 || !history[0].Completed {
		t.Errorf("history = %+v", history)
	}
}

func TestReports(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")

	done, _ := e.g.CreateTask(ctx, m.ID, "Dishes", false)
	bonus, _ := e.g.CreateTask(ctx, m.ID, "Garage", true)
	e.g.CreateTask(ctx, m.ID, "Beds", false)
	e.g.ToggleTask(ctx, done.ID)
	e.g.ToggleTask(ctx, bonus.ID)
	e.g.ApplyPenalty(ctx, m.ID)

	w, err := e.g.WeeklyReport(ctx, m.ID)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if w.WeekStart != "2026-03-02" || w.WeekEnd != "2026-03-08" {
		t.Errorf("week = %s..%s", w.WeekStart, w.WeekEnd)
	}
	if w.TotalTasks != 3 || w.CompletedTasks != 2 || w.BonusTasksCompleted != 1 || w.PointsEarned != 3 {
		t.Errorf("weekly totals = %+v", w.ReportTotals)
	}

	mo, err := e.g.MonthlyReport(ctx, m.ID)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if mo.MonthStart != "2026-03-01" || mo.MonthEnd != "2026-03-31" {
		t.Errorf("month = %s..%s", mo.MonthStart, mo.MonthEnd)
	}
	if mo.CompletionRate != 66.67 {
		t.Errorf("completion rate = %v, want 66.67", mo.CompletionRate)
	}
}

func TestReportsStableAcrossRefresh(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")
	for _, title := range []string{"Dishes", "Laundry"} {
		task, _ := e.g.CreateTask(ctx, m.ID, title, false)
		e.g.ToggleTask(ctx, task.ID)
	}

	before, err := e.g.MonthlyReport(ctx, m.ID)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if before.TotalTasks != 2 || before.CompletedTasks != 2 || before.CompletionRate != 100 {
		t.Fatalf("before refresh = %+v", before)
	}

	if _, err := e.g.TriggerTaskRefresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	after, err := e.g.MonthlyReport(ctx, m.ID)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if after.ReportTotals != before.ReportTotals || after.CompletionRate != before.CompletionRate {
		t.Errorf("after refresh = %+v, want %+v", after, before)
	}
	weekly, _ := e.g.WeeklyReport(ctx, m.ID)
	if weekly.TotalTasks != 2 || weekly.CompletedTasks != 2 {
		t.Errorf("weekly after refresh = %+v", weekly.ReportTotals)
	}
}

func TestReportPenaltiesInWindow(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")

	e.g.ApplyPenalty(ctx, m.ID)
	e.g.ApplyPenalty(ctx, m.ID)
	// Dates penalties to the current test week.
	if _, err := e.db.Exec(`UPDATE penalties SET created_at = '2026-03-03 09:00:00'`); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	w, err := e.g.WeeklyReport(ctx, m.ID)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if w.PenaltiesCount != 2 || w.PenaltyPoints != 4 {
		t.Errorf("penalties = %d/%d, want 2/4", w.PenaltiesCount, w.PenaltyPoints)
	}
}

func TestWeekBounds(t *testing.T) {
	tests := []struct {
		day        time.Time
		start, end string
	}{
		{time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "2026-03-02", "2026-03-08"},
		{time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC), "2026-03-02", "2026-03-08"},
		{time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), "2026-02-23", "2026-03-01"},
	}
	for _, tt := range tests {
		s, e := WeekBounds(tt.day)
		if s.Format(time.DateOnly) != tt.start || e.Format(time.DateOnly) != tt.end {
			t.Errorf("WeekBounds(%s) = %s..%s, want %s..%s", tt.day.Format(time.DateOnly),
				s.Format(time.DateOnly), e.Format(time.DateOnly), tt.start, tt.end)
		}
	}

	s, end := MonthBounds(time.Date(2028, 2, 10, 0, 0, 0, 0, time.UTC))
	if s.Format(time.DateOnly) != "2028-02-01" || end.Format(time.DateOnly) != "2028-02-29" {
		t.Errorf("MonthBounds = %s..%s", s.Format(time.DateOnly), end.Format(time.DateOnly))
	}
}

func TestCompletionRate(t *testing.T) {
	if got := CompletionRate(0, 0); got != 0 {
		t.Errorf("0/0 = %v", got)
	}
	if got := CompletionRate(5, 6); got != 83.33 {
		t.Errorf("5/6 = %v, want 83.33", got)
	}
	if got := CompletionRate(3, 3); got != 100 {
		t.Errorf("3/3 = %v, want 100", got)
	}
}

func TestShareScope(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")
	e.g.CreateTask(ctx, m.ID, "Dishes", false)

	anon := context.Background()
	if _, err := e.g.ListTasks(anon, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("anonymous list err = %v", err)
	}

	got, err := e.g.GetMemberByShareID(anon, m.ShareID)
	if err != nil {
		t.Fatalf("by share id: %v", err)
	}
	shared := WithShareScope(anon, got.ShareID)
	tasks, err := e.g.ListTasks(shared, got.ID)
	if err != nil {
		t.Fatalf("shared list: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("tasks = %d, want 1", len(tasks))
	}
	if _, err := e.g.WeeklyReport(shared, got.ID); err != nil {
		t.Errorf("shared weekly: %v", err)
	}
	if err := e.g.AwardBonus(shared, got.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("shared bonus err = %v, want ErrUnauthenticated", err)
	}

	if _, err := e.g.GetMemberByShareID(anon, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing share err = %v", err)
	}
}

func TestMasterReport(t *testing.T) {
	e := setupGateway(t)
	active := e.signUp(t, "active@example.com")
	e.signUp(t, "idle@example.com")
	stale := e.signUp(t, "stale@example.com")

	m := e.member(t, active, "Sam")
	e.g.CreateTask(active, m.ID, "Dishes", false)
	e.g.TriggerTaskRefresh(active)

	sm := e.member(t, stale, "Old")
	e.g.CreateTask(stale, sm.ID, "Beds", false)
	store.NewHistoryStore(e.db).Archive(context.Background(), auth.AdminID(stale), "2026-02-01")

	r, err := e.g.MasterReport(active)
	if err != nil {
		t.Fatalf("master report: %v", err)
	}
	if len(r.Admins) != 3 {
		t.Errorf("admins = %d, want 3", len(r.Admins))
	}
	if len(r.Members) != 2 || len(r.Tasks) != 2 {
		t.Errorf("members/tasks = %d/%d, want 2/2", len(r.Members), len(r.Tasks))
	}

	inactive := map[string]model.InactiveAdmin{}
	for _, ia := range r.InactiveAdmins {
		inactive[ia.Name] = ia
	}
	if _, ok := inactive["Admin active@example.com"]; ok {
		t.Error("active admin reported inactive")
	}
	idle, ok := inactive["Admin idle@example.com"]
	if !ok || idle.DaysInactive != 30 || idle.LastActivity != "No activity" {
		t.Errorf("idle = %+v", idle)
	}
	old, ok := inactive["Admin stale@example.com"]
	if !ok || old.DaysInactive != 31 || old.LastActivity != "2026-02-01" {
		t.Errorf("stale = %+v", old)
	}

	if _, err := e.g.MasterReport(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous master report err = %v", err)
	}
}

type captureMailer struct {
	to, token string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, token string) error {
	m.to, m.token = to, token
	return nil
}

func TestPasswordReset(t *testing.T) {
	mailer := &captureMailer{}
	e := setupGateway(t, WithMailer(mailer), WithResetTokens(auth.NewResetTokens("secret", time.Hour)))
	ctx := e.signUp(t, "a@example.com")
	ac, _ := auth.FromContext(ctx)

	if err := e.g.RequestPasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email: %v", err)
	}
	if mailer.token != "" {
		t.Fatal("mail sent for unknown address")
	}

	if err := e.g.RequestPasswordReset(context.Background(), "A@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if mailer.to != "a@example.com" || mailer.token == "" {
		t.Fatalf("mailer = %+v", mailer)
	}

	if err := e.g.ResetPassword(context.Background(), mailer.token, "weak"); !errors.Is(err, auth.ErrWeakPassword) {
		t.Errorf("weak reset err = %v", err)
	}
	if err := e.g.ResetPassword(context.Background(), mailer.token, "N3wPassword"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := e.g.Session(context.Background(), ac.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Error("expected sessions to be revoked")
	}
	if _, err := e.g.SignIn(context.Background(), "a@example.com", "N3wPassword"); err != nil {
		t.Errorf("sign in with new password: %v", err)
	}
	if err := e.g.ResetPassword(context.Background(), "bogus", "N3wPassword"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("bogus token err = %v", err)
	}
}

func TestPasswordResetUnavailable(t *testing.T) {
	e := setupGateway(t)
	if err := e.g.RequestPasswordReset(context.Background(), "a@example.com"); !errors.Is(err, ErrResetUnavailable) {
		t.Errorf("err = %v", err)
	}
}

type memBucket struct {
	objects map[string]string
}

func (b *memBucket) ImageKey(filename string) (string, string, error) {
	if !strings.HasSuffix(filename, ".png") {
		return "", "", errors.New("unsupported")
	}
	return "profile-images/k.png", "image/png", nil
}

func (b *memBucket) Upload(_ context.Context, key, _ string, body io.Reader) error {
	data, _ := io.ReadAll(body)
	b.objects[key] = string(data)
	return nil
}

func (b *memBucket) PublicURL(key string) string { return "https://cdn.test/" + key }

func TestUploadImage(t *testing.T) {
	bucket := &memBucket{objects: map[string]string{}}
	e := setupGateway(t, WithBucket(bucket))
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")

	key, err := e.g.UploadImage(ctx, "me.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if bucket.objects[key] != "png" {
		t.Errorf("stored = %q", bucket.objects[key])
	}
	url := e.g.PublicURL(key)
	if err := e.g.SetMemberImage(ctx, m.ID, BannerImage, url); err != nil {
		t.Fatalf("set image: %v", err)
	}
	got, _ := e.g.GetMember(ctx, m.ID)
	if got.BannerImageURL != "https://cdn.test/profile-images/k.png" {
		t.Errorf("banner = %q", got.BannerImageURL)
	}

	if _, err := e.g.UploadImage(ctx, "doc.txt", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad type err = %v", err)
	}
}

func TestUploadImageWithoutStorage(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	if _, err := e.g.UploadImage(ctx, "me.png", strings.NewReader("x")); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("err = %v", err)
	}
}

func TestMutationsPublishToShareTopic(t *testing.T) {
	e := setupGateway(t)
	ctx := e.signUp(t, "a@example.com")
	m := e.member(t, ctx, "Sam")

	e.g.AwardBonus(ctx, m.ID)

	got := e.pub.types(websocket.ShareTopic(m.ShareID))
	if len(got) == 0 || got[len(got)-1] != "member_bonus" {
		t.Errorf("share events = %v", got)
	}
}
