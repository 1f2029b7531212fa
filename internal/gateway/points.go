package gateway

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
)

// AwardBonus adds BonusPoints to the member's total.
func (g *Local) AwardBonus(ctx context.Context, memberID int64) (err error) {
	defer g.observe("award_bonus", &err)

	m, err := g.ownedMember(ctx, g.db, memberID)
	if err != nil {
		return err
	}
	if err := store.NewMemberStore(g.db).AddTotalPoints(ctx, m.ID, BonusPoints); err != nil {
		return err
	}
	g.publishMember(m, "member", "bonus", m.ID)
	return nil
}

// ApplyPenalty records a penalty and deducts PenaltyPoints, never below zero.
func (g *Local) ApplyPenalty(ctx context.Context, memberID int64) (p *model.Penalty, err error) {
	defer g.observe("apply_penalty", &err)

	var m *model.Member
	err = store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		var err error
		m, err = g.ownedMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		p, err = store.NewPenaltyStore(tx).Create(ctx, m.ID, PenaltyPoints)
		if err != nil {
			return err
		}
		return store.NewMemberStore(tx).AddTotalPoints(ctx, m.ID, -PenaltyPoints)
	})
	if err != nil {
		return nil, err
	}
	g.publishMember(m, "member", "penalty", m.ID)
	return p, nil
}

// RewardMember cashes out the member's total: it records a reward of the
// current total and zeroes it. Either both happen or neither does.
func (g *Local) RewardMember(ctx context.Context, memberID int64) (r *model.Reward, err error) {
	defer g.observe("reward_member", &err)

	var m *model.Member
	err = store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		var err error
		m, err = g.ownedMember(ctx, tx, memberID)
		if err != nil {
			return err
		}
		r, err = store.NewRewardStore(tx).Create(ctx, m.ID, m.TotalPoints)
		if err != nil {
			return err
		}
		return store.NewMemberStore(tx).SetTotalPoints(ctx, m.ID, 0)
	})
	if err != nil {
		return nil, err
	}
	g.publishMember(m, "member", "rewarded", m.ID)
	return r, nil
}

// FoldDailyPoints moves points from the member's daily accumulator into their
// total as a single increment.
func (g *Local) FoldDailyPoints(ctx context.Context, memberID int64, points int) (err error) {
	defer g.observe("fold_daily_points", &err)

	if points <= 0 {
		return fmt.Errorf("%w: fold requires positive points", ErrInvalidInput)
	}
	m, err := g.ownedMember(ctx, g.db, memberID)
	if err != nil {
		return err
	}
	return store.NewMemberStore(g.db).FoldDailyPoints(ctx, m.ID, points)
}
