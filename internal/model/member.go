package model

import "time"

type Member struct {
	ID              int64     `json:"id"`
	AdminID         int64     `json:"admin_id"`
	Name            string    `json:"name"`
	TotalPoints     int       `json:"total_points"`
	DailyPoints     int       `json:"daily_points"`
	ProfileImageURL string    `json:"profile_image_url"`
	BannerImageURL  string    `json:"banner_image_url"`
	TargetPoints    int       `json:"target_points"`
	ShareID         string    `json:"share_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DailyPointsEntry is a member's same-day accumulator, read before a day refresh.
type DailyPointsEntry struct {
	MemberID    int64 `json:"member_id"`
	DailyPoints int   `json:"daily_points"`
}
