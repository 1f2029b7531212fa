package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
)

type ImageKind string

const (
	ProfileImage ImageKind = "profile"
	BannerImage  ImageKind = "banner"
)

// ListMembers returns the signed-in admin's members, highest total first.
func (g *Local) ListMembers(ctx context.Context) (members []model.Member, err error) {
	defer g.observe("list_members", &err)

	adminID, err := g.adminID(ctx)
	if err != nil {
		return nil, err
	}
	return store.NewMemberStore(g.db).ListByAdmin(ctx, adminID)
}

func (g *Local) GetMember(ctx context.Context, memberID int64) (m *model.Member, err error) {
	defer g.observe("get_member", &err)
	return g.readableMember(ctx, memberID)
}

func (g *Local) GetMemberByShareID(ctx context.Context, shareID string) (m *model.Member, err error) {
	defer g.observe("get_member_by_share_id", &err)

	if shareID == "" {
		return nil, ErrNotFound
	}
	m, err = store.NewMemberStore(g.db).GetByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// CreateMember resolves the caller's admin row and inserts the member in one transaction.
func (g *Local) CreateMember(ctx context.Context, name string) (m *model.Member, err error) {
	defer g.observe("create_member", &err)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}
	userID := auth.UserID(ctx)
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	err = store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		admin, err := store.NewAdminStore(tx).GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if admin == nil {
			return fmt.Errorf("resolve admin: %w", ErrNotFound)
		}
		m, err = store.NewMemberStore(tx).Create(ctx, admin.ID, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	g.publishMember(m, "member", "created", m.ID)
	return m, nil
}

func (g *Local) RenameMember(ctx context.Context, memberID int64, name string) (err error) {
	defer g.observe("rename_member", &err)

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: member name is required", ErrInvalidInput)
	}
	m, err := g.ownedMember(ctx, g.db, memberID)
	if err != nil {
		return err
	}
	if err := store.NewMemberStore(g.db).Rename(ctx, m.ID, name); err != nil {
		return err
	}
	g.publishMember(m, "member", "updated", m.ID)
	return nil
}

// DeleteMember removes the member; tasks, rewards, penalties and history cascade.
func (g *Local) DeleteMember(ctx context.Context, memberID int64) (err error) {
	defer g.observe("delete_member", &err)

	m, err := g.ownedMember(ctx, g.db, memberID)
	if err != nil {
		return err
	}
	if err := store.NewMemberStore(g.db).Delete(ctx, m.ID); err != nil {
		return err
	}
	g.publishMember(m, "member", "deleted", m.ID)
	return nil
}

// SetTargetPoints stores the member's goal. Negative values are stored as 0.
func (g *Local) SetTargetPoints(ctx context.Context, memberID int64, target int) (err error) {
	defer g.observe("set_target_points", &err)

	if target < 0 {
		target = 0
	}
	m, err := g.ownedMember(ctx, g.db, memberID)
	if err != nil {
		return err
	}
	if err := store.NewMemberStore(g.db).SetTargetPoints(ctx, m.ID, target); err != nil {
		return err
	}
	g.publishMember(m, "member", "updated", m.ID)
	return nil
}

func (g *Local) SetMemberImage(ctx context.Context, memberID int64, kind ImageKind, url string) (err error) {
	defer g.observe("set_member_image", &err)

	m, err := g.ownedMember(ctx, g.db, memberID)
	if err != nil {
		return err
	}
	ms := store.NewMemberStore(g.db)
	switch kind {
	case ProfileImage:
		err = ms.SetProfileImageURL(ctx, m.ID, url)
	case BannerImage:
		err = ms.SetBannerImageURL(ctx, m.ID, url)
	default:
		return fmt.Errorf("%w: unknown image kind %q", ErrInvalidInput, kind)
	}
	if err != nil {
		return err
	}
	g.publishMember(m, "member", "updated", m.ID)
	return nil
}

// ListDailyPoints returns the same-day accumulator of every member the admin owns.
func (g *Local) ListDailyPoints(ctx context.Context) (entries []model.DailyPointsEntry, err error) {
	defer g.observe("list_daily_points", &err)

	adminID, err := g.adminID(ctx)
	if err != nil {
		return nil, err
	}
	return store.NewMemberStore(g.db).ListDailyPoints(ctx, adminID)
}
