package model

import "time"

type Reward struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

type RewardHistory struct {
	TotalRewards        int      `json:"total_rewards"`
	TotalPointsRewarded int      `json:"total_points_rewarded"`
	Rewards             []Reward `json:"rewards_json"`
}

type Penalty struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}
