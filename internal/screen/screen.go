// Package screen implements the admin and dashboard screen operations: each
// call goes to the gateway, and on success the affected view-state slices are
// refetched. Failures notify the user and leave view-state untouched.
package screen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/metrics"
	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/viewstate"
)

// Gateway is the backend surface the screens consume.
type Gateway interface {
	ListMembers(ctx context.Context) ([]model.Member, error)
	GetMember(ctx context.Context, memberID int64) (*model.Member, error)
	GetMemberByShareID(ctx context.Context, shareID string) (*model.Member, error)
	CreateMember(ctx context.Context, name string) (*model.Member, error)
	RenameMember(ctx context.Context, memberID int64, name string) error
	DeleteMember(ctx context.Context, memberID int64) error
	SetTargetPoints(ctx context.Context, memberID int64, target int) error
	SetMemberImage(ctx context.Context, memberID int64, kind gateway.ImageKind, url string) error
	UploadImage(ctx context.Context, filename string, body io.Reader) (string, error)
	PublicURL(key string) string

	ListTasks(ctx context.Context, memberID int64) ([]model.Task, error)
	CreateTask(ctx context.Context, memberID int64, title string, isBonus bool) (*model.Task, error)
	RenameTask(ctx context.Context, taskID int64, title string) error
	ToggleTask(ctx context.Context, taskID int64) (*model.Task, error)
	UpdateTaskPositions(ctx context.Context, taskID1 int64, position1 int, taskID2 int64, position2 int) error

	AwardBonus(ctx context.Context, memberID int64) error
	ApplyPenalty(ctx context.Context, memberID int64) (*model.Penalty, error)
	RewardMember(ctx context.Context, memberID int64) (*model.Reward, error)
	ListDailyPoints(ctx context.Context) ([]model.DailyPointsEntry, error)
	FoldDailyPoints(ctx context.Context, memberID int64, points int) error
	TriggerTaskRefresh(ctx context.Context) (*model.RefreshAck, error)
	RefreshSettled(ctx context.Context) (bool, error)

	WeeklyReport(ctx context.Context, memberID int64) (*model.WeeklyReport, error)
	MonthlyReport(ctx context.Context, memberID int64) (*model.MonthlyReport, error)
	RewardsHistory(ctx context.Context, memberID int64) (*model.RewardHistory, error)
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notifier interface {
	Notify(level Level, message string)
}

type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifications collects the notifications raised while serving one request.
type Notifications struct {
	mu    sync.Mutex
	items []Notification
}

func (n *Notifications) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notification{Level: level, Message: message})
}

func (n *Notifications) Items() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// Error is returned by screen operations after the user has been notified.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// PollConfig bounds the wait for a day refresh to settle.
type PollConfig struct {
	Base     time.Duration
	Max      time.Duration
	Attempts uint64
}

func DefaultPollConfig() PollConfig {
	return PollConfig{Base: 100 * time.Millisecond, Max: 2 * time.Second, Attempts: 6}
}

type Deps struct {
	Gateway  Gateway
	State    *viewstate.Store
	Notifier Notifier
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Poll     PollConfig
}

type base struct {
	gw      Gateway
	state   *viewstate.Store
	notify  Notifier
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newBase(d Deps, component string) base {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notify := d.Notifier
	if notify == nil {
		notify = &Notifications{}
	}
	return base{
		gw:      d.Gateway,
		state:   d.State,
		notify:  notify,
		logger:  logger.With("component", component),
		metrics: d.Metrics,
	}
}

// fail notifies the user and wraps err. action completes "Could not ...".
func (b *base) fail(ctx context.Context, op, action string, err error) error {
	msg := userMessage(action, err)
	b.notify.Notify(LevelError, msg)
	b.logger.Warn("screen operation failed", "op", op, "admin_id", auth.AdminID(ctx), "error", err)
	return &Error{Op: op, Message: msg, Err: err}
}

func userMessage(action string, err error) string {
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		return "Not found. It may have been deleted."
	case errors.Is(err, gateway.ErrUnauthenticated):
		return "Your session has ended. Please sign in again."
	case errors.Is(err, gateway.ErrStorageUnavailable):
		return "Image uploads are not available right now."
	case errors.Is(err, gateway.ErrInvalidInput):
		detail := strings.TrimPrefix(err.Error(), gateway.ErrInvalidInput.Error()+": ")
		if detail == "" {
			return "Please check your input."
		}
		return strings.ToUpper(detail[:1]) + detail[1:] + "."
	default:
		return "Could not " + action + ". Please try again."
	}
}

func (b *base) success(msg string) {
	b.notify.Notify(LevelSuccess, msg)
}

// loadMembers refetches the roster into view-state.
func (b *base) loadMembers(ctx context.Context) error {
	t := b.state.BeginMembers()
	members, err := b.gw.ListMembers(ctx)
	if err != nil {
		return err
	}
	b.state.SetMembers(t, members)
	return nil
}
