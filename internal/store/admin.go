package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/taskchamp/internal/model"
)

type AdminStore struct {
	db DBTX
}

func NewAdminStore(db DBTX) *AdminStore {
	return &AdminStore{db: db}
}

func scanAdmin(scanner interface{ Scan(...any) error }) (*model.Admin, error) {
	var a model.Admin
	err := scanner.Scan(&a.ID, &a.UserID, &a.Name, &a.ContactNumber, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const adminCols = `id, user_id, name, contact_number, created_at`

func (s *AdminStore) Create(ctx context.Context, userID int64, name, contactNumber string) (*model.Admin, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (user_id, name, contact_number) VALUES (?, ?, ?)`,
		userID, name, contactNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+adminCols+` FROM admins WHERE id = ?`, id)
	return scanAdmin(row)
}

// GetByUserID resolves the admin row for a signed-in user. Returns nil if none.
func (s *AdminStore) GetByUserID(ctx context.Context, userID int64) (*model.Admin, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adminCols+` FROM admins WHERE user_id = ?`, userID)
	a, err := scanAdmin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by user: %w", err)
	}
	return a, nil
}

func (s *AdminStore) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+adminCols+` FROM admins ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var admins []model.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, *a)
	}
	return admins, rows.Err()
}
