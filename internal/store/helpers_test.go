package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/taskchamp/internal/database"
	"github.com/dukerupert/taskchamp/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedAdmin creates a user plus admin row and returns the admin.
func seedAdmin(t *testing.T, db *sql.DB, email, name string) *model.Admin {
	t.Helper()
	ctx := context.Background()
	u, err := NewUserStore(db).Create(ctx, email, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	a, err := NewAdminStore(db).Create(ctx, u.ID, name, "555-0100")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return a
}

func seedMember(t *testing.T, db *sql.DB, adminID int64, name string) *model.Member {
	t.Helper()
	m, err := NewMemberStore(db).Create(context.Background(), adminID, name)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return m
}
