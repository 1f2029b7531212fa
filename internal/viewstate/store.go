// Package viewstate holds the per-session screen state: the member roster,
// per-member tasks, reports and reward history, and the admin screen's
// selected member. Nothing here is persisted.
//
// Every fetch takes a Ticket before calling the gateway. A result is applied
// only if its ticket is still the newest one issued for that slice, and, for
// the selected slice, only if the selection has not changed since. Dropped
// results are reported through the stale callback.
package viewstate

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dukerupert/taskchamp/internal/model"
)

const (
	SliceMembers  = "members"
	SliceTasks    = "tasks"
	SliceReports  = "reports"
	SliceRewards  = "rewards"
	SliceSelected = "selected"
)

// Ticket identifies one in-flight fetch.
type Ticket struct {
	slice    string
	memberID int64
	seq      uint64
	gen      uint64
}

func (t Ticket) MemberID() int64 { return t.memberID }

func (t Ticket) key() string {
	return fmt.Sprintf("%s:%d", t.slice, t.memberID)
}

// Selected is the admin screen's focused member.
type Selected struct {
	MemberID int64
	Tasks    []model.Task
	Weekly   *model.WeeklyReport
	Monthly  *model.MonthlyReport
}

// Snapshot is a consistent copy of the whole store for rendering.
type Snapshot struct {
	Members       []model.Member
	TasksByMember map[int64][]model.Task
	Weekly        map[int64]*model.WeeklyReport
	Monthly       map[int64]*model.MonthlyReport
	Rewards       map[int64]*model.RewardHistory
	Selected      Selected
}

type Store struct {
	mu sync.Mutex

	members []model.Member
	tasks   map[int64][]model.Task
	weekly  map[int64]*model.WeeklyReport
	monthly map[int64]*model.MonthlyReport
	rewards map[int64]*model.RewardHistory

	selected Selected
	gen      uint64

	seq    uint64
	latest map[string]uint64
	stale  int
	onDrop func(slice string)
}

func New() *Store {
	return &Store{
		tasks:   make(map[int64][]model.Task),
		weekly:  make(map[int64]*model.WeeklyReport),
		monthly: make(map[int64]*model.MonthlyReport),
		rewards: make(map[int64]*model.RewardHistory),
		latest:  make(map[string]uint64),
	}
}

// OnStale registers a callback invoked (outside the lock) for every dropped result.
func (s *Store) OnStale(fn func(slice string)) {
	s.mu.Lock()
	s.onDrop = fn
	s.mu.Unlock()
}

func (s *Store) begin(slice string, memberID int64) Ticket {
	s.seq++
	t := Ticket{slice: slice, memberID: memberID, seq: s.seq, gen: s.gen}
	s.latest[t.key()] = t.seq
	return t
}

// accept reports whether t may be applied. Must hold s.mu.
func (s *Store) accept(t Ticket) bool {
	if s.latest[t.key()] != t.seq {
		return false
	}
	if t.slice == SliceSelected && (t.gen != s.gen || t.memberID != s.selected.MemberID) {
		return false
	}
	return true
}

// apply runs fn under the lock if t is current and reports whether it did.
func (s *Store) apply(t Ticket, fn func()) bool {
	s.mu.Lock()
	ok := s.accept(t)
	if ok {
		fn()
	} else {
		s.stale++
	}
	onDrop := s.onDrop
	s.mu.Unlock()

	if !ok && onDrop != nil {
		onDrop(t.slice)
	}
	return ok
}

func (s *Store) BeginMembers() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(SliceMembers, 0)
}

// SetMembers replaces the roster wholesale.
func (s *Store) SetMembers(t Ticket, members []model.Member) bool {
	return s.apply(t, func() {
		s.members = slices.Clone(members)
	})
}

func (s *Store) Members() []model.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.members)
}

func (s *Store) BeginTasks(memberID int64) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(SliceTasks, memberID)
}

// PutTasks merges one member's tasks by key.
func (s *Store) PutTasks(t Ticket, tasks []model.Task) bool {
	return s.apply(t, func() {
		s.tasks[t.memberID] = slices.Clone(tasks)
	})
}

func (s *Store) Tasks(memberID int64) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks[memberID])
}

// HasTasks reports whether memberID's tasks have been loaded, even if empty.
func (s *Store) HasTasks(memberID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[memberID]
	return ok
}

func (s *Store) BeginReports(memberID int64) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(SliceReports, memberID)
}

func (s *Store) PutReports(t Ticket, weekly *model.WeeklyReport, monthly *model.MonthlyReport) bool {
	return s.apply(t, func() {
		s.weekly[t.memberID] = weekly
		s.monthly[t.memberID] = monthly
	})
}

func (s *Store) Weekly(memberID int64) *model.WeeklyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weekly[memberID]
}

func (s *Store) Monthly(memberID int64) *model.MonthlyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monthly[memberID]
}

func (s *Store) BeginRewards(memberID int64) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(SliceRewards, memberID)
}

func (s *Store) PutRewardHistory(t Ticket, h *model.RewardHistory) bool {
	return s.apply(t, func() {
		s.rewards[t.memberID] = h
	})
}

func (s *Store) RewardHistory(memberID int64) *model.RewardHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewards[memberID]
}

// Select focuses the admin screen on memberID, discarding the previous
// selection's data, and returns the ticket for loading it.
func (s *Store) Select(memberID int64) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.selected = Selected{MemberID: memberID}
	return s.begin(SliceSelected, memberID)
}

// BeginSelected issues a ticket to refetch the current selection.
// ok is false when nothing is selected.
func (s *Store) BeginSelected() (t Ticket, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected.MemberID == 0 {
		return Ticket{}, false
	}
	return s.begin(SliceSelected, s.selected.MemberID), true
}

func (s *Store) PutSelectedTasks(t Ticket, tasks []model.Task) bool {
	return s.apply(t, func() {
		s.selected.Tasks = slices.Clone(tasks)
	})
}

func (s *Store) PutSelectedReports(t Ticket, weekly *model.WeeklyReport, monthly *model.MonthlyReport) bool {
	return s.apply(t, func() {
		s.selected.Weekly = weekly
		s.selected.Monthly = monthly
	})
}

func (s *Store) Selected() Selected {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selected
	sel.Tasks = slices.Clone(sel.Tasks)
	return sel
}

// ClearSelection drops the selection; in-flight selection fetches become stale.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.selected = Selected{}
}

// Forget removes every per-member entry for memberID.
func (s *Store) Forget(memberID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, memberID)
	delete(s.weekly, memberID)
	delete(s.monthly, memberID)
	delete(s.rewards, memberID)
	s.members = slices.DeleteFunc(s.members, func(m model.Member) bool { return m.ID == memberID })
}

// StaleCount is the number of results dropped so far.
func (s *Store) StaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Members:       slices.Clone(s.members),
		TasksByMember: make(map[int64][]model.Task, len(s.tasks)),
		Weekly:        make(map[int64]*model.WeeklyReport, len(s.weekly)),
		Monthly:       make(map[int64]*model.MonthlyReport, len(s.monthly)),
		Rewards:       make(map[int64]*model.RewardHistory, len(s.rewards)),
		Selected:      s.selected,
	}
	for id, ts := range s.tasks {
		snap.TasksByMember[id] = slices.Clone(ts)
	}
	for id, r := range s.weekly {
		snap.Weekly[id] = r
	}
	for id, r := range s.monthly {
		snap.Monthly[id] = r
	}
	for id, h := range s.rewards {
		snap.Rewards[id] = h
	}
	snap.Selected.Tasks = slices.Clone(s.selected.Tasks)
	return snap
}
