// Package gateway is the backend surface the screens talk to: table reads and
// writes scoped to the signed-in admin, named procedures for reports and the
// day refresh, profile image storage, and auth.
package gateway

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/metrics"
	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/store"
	"github.com/dukerupert/taskchamp/internal/websocket"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrStorageUnavailable = errors.New("file storage not configured")
	ErrResetUnavailable   = errors.New("password reset not configured")
)

const (
	BonusPoints   = 5
	PenaltyPoints = 2
)

type Config struct {
	RegularTaskPoints int
	BonusTaskPoints   int
	SessionTTL        time.Duration
	// Admins whose newest archived task is older than this many days are inactive.
	InactiveAfterDays int
	RecentTaskLimit   int
}

func DefaultConfig() Config {
	return Config{
		RegularTaskPoints: 1,
		BonusTaskPoints:   2,
		SessionTTL:        30 * 24 * time.Hour,
		InactiveAfterDays: 15,
		RecentTaskLimit:   100,
	}
}

// Bucket is the profiles object store.
type Bucket interface {
	ImageKey(filename string) (key, contentType string, err error)
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PublicURL(key string) string
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

type Publisher interface {
	Publish(topic string, msg websocket.Message)
}

// Local implements the gateway on SQLite.
type Local struct {
	db      *sql.DB
	cfg     Config
	bucket  Bucket
	mailer  Mailer
	resets  *auth.ResetTokens
	events  Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Local)

func WithBucket(b Bucket) Option { return func(g *Local) { g.bucket = b } }

func WithMailer(m Mailer) Option { return func(g *Local) { g.mailer = m } }

func WithResetTokens(r *auth.ResetTokens) Option { return func(g *Local) { g.resets = r } }

func WithPublisher(p Publisher) Option { return func(g *Local) { g.events = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(g *Local) { g.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(g *Local) { g.logger = l } }

// WithClock overrides time.Now, used for report windows and the refresh date.
func WithClock(now func() time.Time) Option { return func(g *Local) { g.now = now } }

func New(db *sql.DB, cfg Config, opts ...Option) *Local {
	g := &Local{
		db:     db,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "gateway")
	return g
}

type shareKey struct{}

// WithShareScope grants read access to the member with the given share id,
// for unauthenticated share links.
func WithShareScope(ctx context.Context, shareID string) context.Context {
	return context.WithValue(ctx, shareKey{}, shareID)
}

func shareScope(ctx context.Context) string {
	s, _ := ctx.Value(shareKey{}).(string)
	return s
}

func (g *Local) observe(op string, errp *error) {
	err := *errp
	g.metrics.ObserveOp(op, err)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidInput) {
		g.logger.Warn("operation failed", "op", op, "error", err)
	}
}

func (g *Local) adminID(ctx context.Context) (int64, error) {
	id := auth.AdminID(ctx)
	if id == 0 {
		return 0, ErrUnauthenticated
	}
	return id, nil
}

// ownedMember loads a member belonging to the signed-in admin.
func (g *Local) ownedMember(ctx context.Context, db store.DBTX, memberID int64) (*model.Member, error) {
	adminID, err := g.adminID(ctx)
	if err != nil {
		return nil, err
	}
	m, err := store.NewMemberStore(db).GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.AdminID != adminID {
		return nil, ErrNotFound
	}
	return m, nil
}

// readableMember allows the owner, or a share scope naming this member.
func (g *Local) readableMember(ctx context.Context, memberID int64) (*model.Member, error) {
	m, err := store.NewMemberStore(g.db).GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	if s := shareScope(ctx); s != "" && s == m.ShareID {
		return m, nil
	}
	if id := auth.AdminID(ctx); id != 0 && id == m.AdminID {
		return m, nil
	}
	return nil, ErrNotFound
}

func (g *Local) ownedTask(ctx context.Context, db store.DBTX, taskID int64) (*model.Task, *model.Member, error) {
	t, err := store.NewTaskStore(db).GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, ErrNotFound
	}
	m, err := g.ownedMember(ctx, db, t.MemberID)
	if err != nil {
		return nil, nil, err
	}
	return t, m, nil
}

func (g *Local) publish(topic string, msg websocket.Message) {
	if g.events == nil {
		return
	}
	g.events.Publish(topic, msg)
}

// publishMember notifies the owner's pages and the member's share page.
func (g *Local) publishMember(m *model.Member, entity, action string, id int64) {
	msg := websocket.NewMessage(entity, action, id, map[string]any{"member_id": m.ID})
	g.publish(websocket.AdminTopic(m.AdminID), msg)
	g.publish(websocket.ShareTopic(m.ShareID), msg)
}
