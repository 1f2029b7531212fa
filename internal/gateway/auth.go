package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
	"github.com/dukerupert/taskchamp/internal/websocket"
)

type SignUpParams struct {
	Email         string
	Password      string
	FullName      string
	ContactNumber string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the user and its admin row together and opens a session.
func (g *Local) SignUp(ctx context.Context, p SignUpParams) (sess *model.Session, err error) {
	defer g.observe("sign_up", &err)

	email := normalizeEmail(p.Email)
	if email == "" || strings.TrimSpace(p.FullName) == "" {
		return nil, fmt.Errorf("%w: email and name are required", ErrInvalidInput)
	}
	if err := auth.ValidatePassword(p.Password); err != nil {
		return nil, err
	}
	existing, err := store.NewUserStore(g.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	var admin *model.Admin
	err = store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		u, err := store.NewUserStore(tx).Create(ctx, email, hash)
		if err != nil {
			return err
		}
		admin, err = store.NewAdminStore(tx).Create(ctx, u.ID, strings.TrimSpace(p.FullName), strings.TrimSpace(p.ContactNumber))
		if err != nil {
			return err
		}
		sess, err = store.NewSessionStore(tx).Create(ctx, u.ID, g.cfg.SessionTTL)
		return err
	})
	if err != nil {
		return nil, err
	}
	g.logger.Info("admin signed up", "admin_id", admin.ID)
	g.publish(websocket.AdminTopic(admin.ID), websocket.NewMessage("auth", "signed_in", admin.ID, nil))
	return sess, nil
}

// SignIn checks credentials and opens a session.
func (g *Local) SignIn(ctx context.Context, email, password string) (sess *model.Session, err error) {
	defer g.observe("sign_in", &err)

	u, err := store.NewUserStore(g.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, auth.ErrInvalidCredentials
	}
	hash, err := store.NewUserStore(g.db).PasswordHash(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		return nil, err
	}
	admin, err := store.NewAdminStore(g.db).GetByUserID(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, auth.ErrInvalidCredentials
	}
	sess, err = store.NewSessionStore(g.db).Create(ctx, u.ID, g.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	g.publish(websocket.AdminTopic(admin.ID), websocket.NewMessage("auth", "signed_in", admin.ID, nil))
	return sess, nil
}

// SignOut ends the session with the given token. Unknown tokens are ignored.
func (g *Local) SignOut(ctx context.Context, token string) (err error) {
	defer g.observe("sign_out", &err)

	ac, err := g.Session(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := store.NewSessionStore(g.db).Delete(ctx, ac.SessionID); err != nil {
		return err
	}
	g.publish(websocket.AdminTopic(ac.AdminID), websocket.NewMessage("auth", "signed_out", ac.AdminID, nil))
	return nil
}

// Session resolves a session token to the caller's identity.
func (g *Local) Session(ctx context.Context, token string) (auth.AuthContext, error) {
	if token == "" {
		return auth.AuthContext{}, ErrUnauthenticated
	}
	sess, err := store.NewSessionStore(g.db).GetByToken(ctx, token)
	if err != nil {
		return auth.AuthContext{}, err
	}
	if sess == nil {
		return auth.AuthContext{}, ErrUnauthenticated
	}
	admin, err := store.NewAdminStore(g.db).GetByUserID(ctx, sess.UserID)
	if err != nil {
		return auth.AuthContext{}, err
	}
	u, err := store.NewUserStore(g.db).GetByID(ctx, sess.UserID)
	if err != nil {
		return auth.AuthContext{}, err
	}
	if admin == nil || u == nil {
		return auth.AuthContext{}, ErrUnauthenticated
	}
	return auth.AuthContext{
		UserID:    u.ID,
		AdminID:   admin.ID,
		Email:     u.Email,
		SessionID: sess.ID,
		Token:     sess.Token,
	}, nil
}

// RequestPasswordReset mails a reset link. Unknown addresses succeed silently.
func (g *Local) RequestPasswordReset(ctx context.Context, email string) (err error) {
	defer g.observe("request_password_reset", &err)

	if g.resets == nil || g.mailer == nil {
		return ErrResetUnavailable
	}
	u, err := store.NewUserStore(g.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil {
		g.logger.Debug("password reset for unknown email")
		return nil
	}
	token, err := g.resets.Issue(u.ID, u.Email)
	if err != nil {
		return err
	}
	return g.mailer.SendPasswordReset(ctx, u.Email, token)
}

// ResetPassword sets a new password from a reset token and ends every
// session of that user.
func (g *Local) ResetPassword(ctx context.Context, token, password string) (err error) {
	defer g.observe("reset_password", &err)

	if g.resets == nil {
		return ErrResetUnavailable
	}
	userID, err := g.resets.Verify(token)
	if err != nil {
		return err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	u, err := store.NewUserStore(g.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return auth.ErrInvalidToken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		if err := store.NewUserStore(tx).UpdatePassword(ctx, u.ID, hash); err != nil {
			return err
		}
		return store.NewSessionStore(tx).DeleteByUserID(ctx, u.ID)
	})
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (g *Local) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return store.NewSessionStore(g.db).DeleteExpired(ctx)
}

// ListAdmins returns every admin, for maintenance commands.
func (g *Local) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return store.NewAdminStore(g.db).List(ctx)
}
