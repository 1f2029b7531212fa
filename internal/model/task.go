package model

import "time"

type Task struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Title     string    `json:"title"`
	IsBonus   bool      `json:"is_bonus"`
	Completed bool      `json:"completed"`
	Points    int       `json:"points"`
	Position  int       `json:"position"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskHistory is the archived state of a task on a given day.
type TaskHistory struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	TaskID    *int64    `json:"task_id"`
	Title     string    `json:"title"`
	IsBonus   bool      `json:"is_bonus"`
	Completed bool      `json:"completed"`
	Points    int       `json:"points"`
	TaskDate  string    `json:"task_date"`
	CreatedAt time.Time `json:"created_at"`
}
