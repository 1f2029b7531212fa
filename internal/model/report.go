package model

import "time"

// ReportTotals holds the aggregate figures shared by weekly and monthly reports.
type ReportTotals struct {
	TotalTasks          int `json:"total_tasks"`
	CompletedTasks      int `json:"completed_tasks"`
	BonusTasksCompleted int `json:"bonus_tasks_completed"`
	PointsEarned        int `json:"points_earned"`
	PenaltiesCount      int `json:"penalties_count"`
	PenaltyPoints       int `json:"penalty_points"`
}

type WeeklyReport struct {
	ReportTotals
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
}

type MonthlyReport struct {
	ReportTotals
	CompletionRate float64 `json:"completion_rate"`
	MonthStart     string  `json:"month_start"`
	MonthEnd       string  `json:"month_end"`
}

// RefreshAck is returned by a day refresh once the reset has been committed.
type RefreshAck struct {
	TaskDate       string    `json:"task_date"`
	MembersReset   int       `json:"members_reset"`
	TasksArchived  int       `json:"tasks_archived"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
}

type AdminOverview struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ContactNumber string    `json:"contact_number"`
	CreatedAt     time.Time `json:"created_at"`
}

type MemberOverview struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	AdminName     string `json:"admin_name"`
	TotalPoints   int    `json:"total_points"`
	TotalRewarded int    `json:"total_rewarded"`
}

type TaskOverview struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	MemberName string    `json:"member_name"`
	AdminName  string    `json:"admin_name"`
	IsBonus    bool      `json:"is_bonus"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
}

type InactiveAdmin struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	LastActivity string `json:"last_activity"`
	DaysInactive int    `json:"days_inactive"`
}

type MasterReport struct {
	Admins         []AdminOverview  `json:"admins"`
	Members        []MemberOverview `json:"members"`
	Tasks          []TaskOverview   `json:"tasks"`
	InactiveAdmins []InactiveAdmin  `json:"inactive_admins"`
}
