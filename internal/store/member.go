package store

import (
	"context"
	"database/sql"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/dukerupert/taskchamp/internal/model"
)

const shareIDLength = 12

type MemberStore struct {
	db DBTX
}

func NewMemberStore(db DBTX) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(
		&m.ID, &m.AdminID, &m.Name, &m.TotalPoints, &m.DailyPoints,
		&m.ProfileImageURL, &m.BannerImageURL, &m.TargetPoints, &m.ShareID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, admin_id, name, total_points, daily_points, profile_image_url, banner_image_url, target_points, share_id, created_at, updated_at`

func (s *MemberStore) Create(ctx context.Context, adminID int64, name string) (*model.Member, error) {
	shareID, err := gonanoid.New(shareIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate share id: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO members (admin_id, name, share_id) VALUES (?, ?, ?)`,
		adminID, name, shareID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByShareID(ctx context.Context, shareID string) (*model.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM members WHERE share_id = ?`, shareID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by share id: %w", err)
	}
	return m, nil
}

// ListByAdmin returns the admin's members, highest total first.
func (s *MemberStore) ListByAdmin(ctx context.Context, adminID int64) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberCols+` FROM members WHERE admin_id = ? ORDER BY total_points DESC, id ASC`,
		adminID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Rename(ctx context.Context, id int64, name string) error {
	return s.exec(ctx, "rename member", `UPDATE members SET name = ? WHERE id = ?`, name, id)
}

func (s *MemberStore) SetTargetPoints(ctx context.Context, id int64, target int) error {
	return s.exec(ctx, "set target points", `UPDATE members SET target_points = ? WHERE id = ?`, target, id)
}

func (s *MemberStore) SetProfileImageURL(ctx context.Context, id int64, url string) error {
	return s.exec(ctx, "set profile image", `UPDATE members SET profile_image_url = ? WHERE id = ?`, url, id)
}

func (s *MemberStore) SetBannerImageURL(ctx context.Context, id int64, url string) error {
	return s.exec(ctx, "set banner image", `UPDATE members SET banner_image_url = ? WHERE id = ?`, url, id)
}

// AddTotalPoints applies delta to total_points, clamping the result at zero.
func (s *MemberStore) AddTotalPoints(ctx context.Context, id int64, delta int) error {
	return s.exec(ctx, "add total points",
		`UPDATE members SET total_points = MAX(0, total_points + ?) WHERE id = ?`, delta, id)
}

// AddDailyPoints applies delta to daily_points, clamping the result at zero.
func (s *MemberStore) AddDailyPoints(ctx context.Context, id int64, delta int) error {
	return s.exec(ctx, "add daily points",
		`UPDATE members SET daily_points = MAX(0, daily_points + ?) WHERE id = ?`, delta, id)
}

// FoldDailyPoints moves points from daily_points into total_points in one
// statement, so a repeated fold finds nothing left to move.
func (s *MemberStore) FoldDailyPoints(ctx context.Context, id int64, points int) error {
	return s.exec(ctx, "fold daily points",
		`UPDATE members SET total_points = total_points + ?, daily_points = MAX(0, daily_points - ?) WHERE id = ?`,
		points, points, id)
}

func (s *MemberStore) SetTotalPoints(ctx context.Context, id int64, total int) error {
	return s.exec(ctx, "set total points", `UPDATE members SET total_points = ? WHERE id = ?`, total, id)
}

// ListDailyPoints returns daily points for every member the admin owns.
func (s *MemberStore) ListDailyPoints(ctx context.Context, adminID int64) ([]model.DailyPointsEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, daily_points FROM members WHERE admin_id = ? ORDER BY id`, adminID)
	if err != nil {
		return nil, fmt.Errorf("list daily points: %w", err)
	}
	defer rows.Close()

	entries := []model.DailyPointsEntry{}
	for rows.Next() {
		var e model.DailyPointsEntry
		if err := rows.Scan(&e.MemberID, &e.DailyPoints); err != nil {
			return nil, fmt.Errorf("scan daily points: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ResetDailyPoints zeroes daily points for the admin's members and reports how many were non-zero.
func (s *MemberStore) ResetDailyPoints(ctx context.Context, adminID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE members SET daily_points = 0 WHERE admin_id = ? AND daily_points <> 0`, adminID)
	if err != nil {
		return 0, fmt.Errorf("reset daily points: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *MemberStore) Delete(ctx context.Context, id int64) error {
	return s.exec(ctx, "delete member", `DELETE FROM members WHERE id = ?`, id)
}

func (s *MemberStore) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
