package viewstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/taskchamp/internal/model"
)

func tasksFor(memberID int64, titles ...string) []model.Task {
	out := make([]model.Task, len(titles))
	for i, title := range titles {
		out[i] = model.Task{ID: int64(i + 1), MemberID: memberID, Title: title, Position: i + 1}
	}
	return out
}

func TestSetMembersReplacesWholesale(t *testing.T) {
	s := New()

	require.True(t, s.SetMembers(s.BeginMembers(), []model.Member{{ID: 1}, {ID: 2}}))
	require.True(t, s.SetMembers(s.BeginMembers(), []model.Member{{ID: 3}}))

	members := s.Members()
	require.Len(t, members, 1)
	require.Equal(t, int64(3), members[0].ID)
}

func TestPerMemberPutsMergeByKey(t *testing.T) {
	s := New()

	require.True(t, s.PutTasks(s.BeginTasks(1), tasksFor(1, "a")))
	require.True(t, s.PutTasks(s.BeginTasks(2), tasksFor(2, "b", "c")))

	require.Len(t, s.Tasks(1), 1)
	require.Len(t, s.Tasks(2), 2)
}

func TestOlderTicketForSameSliceIsDropped(t *testing.T) {
	s := New()
	var dropped []string
	s.OnStale(func(slice string) { dropped = append(dropped, slice) })

	older := s.BeginTasks(1)
	newer := s.BeginTasks(1)

	require.True(t, s.PutTasks(newer, tasksFor(1, "new")))
	require.False(t, s.PutTasks(older, tasksFor(1, "old")))

	require.Equal(t, "new", s.Tasks(1)[0].Title)
	require.Equal(t, 1, s.StaleCount())
	require.Equal(t, []string{SliceTasks}, dropped)
}

func TestTicketsForDifferentMembersAreIndependent(t *testing.T) {
	s := New()

	a := s.BeginReports(1)
	b := s.BeginReports(2)

	require.True(t, s.PutReports(b, &model.WeeklyReport{WeekStart: "b"}, nil))
	require.True(t, s.PutReports(a, &model.WeeklyReport{WeekStart: "a"}, &model.MonthlyReport{}))
	require.Equal(t, "a", s.Weekly(1).WeekStart)
	require.Equal(t, "b", s.Weekly(2).WeekStart)
	require.NotNil(t, s.Monthly(1))
}

func TestStaleSelectionCannotOverwriteNewSelection(t *testing.T) {
	s := New()

	first := s.Select(1)
	second := s.Select(2)

	require.True(t, s.PutSelectedTasks(second, tasksFor(2, "mine")))
	// The fetch for member 1 completes late.
	require.False(t, s.PutSelectedTasks(first, tasksFor(1, "stale")))
	require.False(t, s.PutSelectedReports(first, &model.WeeklyReport{WeekStart: "stale"}, nil))

	sel := s.Selected()
	require.Equal(t, int64(2), sel.MemberID)
	require.Len(t, sel.Tasks, 1)
	require.Equal(t, "mine", sel.Tasks[0].Title)
	require.Nil(t, sel.Weekly)
	require.Equal(t, 2, s.StaleCount())
}

func TestReselectingSameMemberInvalidatesEarlierFetch(t *testing.T) {
	s := New()

	first := s.Select(1)
	s.Select(2)
	again := s.Select(1)

	require.False(t, s.PutSelectedTasks(first, tasksFor(1, "old")))
	require.True(t, s.PutSelectedTasks(again, tasksFor(1, "fresh")))
	require.Equal(t, "fresh", s.Selected().Tasks[0].Title)
}

func TestBeginSelected(t *testing.T) {
	s := New()

	_, ok := s.BeginSelected()
	require.False(t, ok)

	s.Select(5)
	refetch, ok := s.BeginSelected()
	require.True(t, ok)
	require.Equal(t, int64(5), refetch.MemberID())
	require.True(t, s.PutSelectedTasks(refetch, tasksFor(5, "x")))
}

func TestClearSelectionDropsInFlight(t *testing.T) {
	s := New()

	ticket := s.Select(3)
	s.ClearSelection()

	require.False(t, s.PutSelectedTasks(ticket, tasksFor(3, "late")))
	require.Equal(t, int64(0), s.Selected().MemberID)
}

func TestHasTasks(t *testing.T) {
	s := New()
	require.False(t, s.HasTasks(1))

	s.PutTasks(s.BeginTasks(1), nil)
	require.True(t, s.HasTasks(1))
	require.False(t, s.HasTasks(2))
}

func TestForget(t *testing.T) {
	s := New()
	s.SetMembers(s.BeginMembers(), []model.Member{{ID: 1}, {ID: 2}})
	s.PutTasks(s.BeginTasks(1), tasksFor(1, "a"))
	s.PutRewardHistory(s.BeginRewards(1), &model.RewardHistory{TotalRewards: 1})

	s.Forget(1)

	snap := s.Snapshot()
	require.Len(t, snap.Members, 1)
	require.NotContains(t, snap.TasksByMember, int64(1))
	require.Nil(t, s.RewardHistory(1))
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.PutTasks(s.BeginTasks(1), tasksFor(1, "a"))

	snap := s.Snapshot()
	snap.TasksByMember[1][0].Title = "mutated"

	require.Equal(t, "a", s.Tasks(1)[0].Title)
}

func TestRegistry(t *testing.T) {
	var stale int
	r := NewRegistry(time.Minute, func(string) { stale++ })
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	a := r.Get("session-a")
	require.Same(t, a, r.Get("session-a"))
	r.Get("session-b")
	require.Equal(t, 2, r.Len())

	// The registry's stale hook is installed on new stores.
	older := a.BeginMembers()
	a.BeginMembers()
	a.SetMembers(older, nil)
	require.Equal(t, 1, stale)

	now = now.Add(45 * time.Second)
	r.Get("session-a")
	now = now.Add(30 * time.Second)

	require.Equal(t, 1, r.Sweep())
	require.Equal(t, 1, r.Len())
	require.Same(t, a, r.Get("session-a"))

	r.Drop("session-a")
	require.Equal(t, 0, r.Len())
}
