// Package handler serves the HTML pages, HTMX partials and JSON API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/metrics"
	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/screen"
	"github.com/dukerupert/taskchamp/internal/viewstate"
)

// Gateway is everything the HTTP layer needs from the backend.
type Gateway interface {
	screen.Gateway

	SignUp(ctx context.Context, p gateway.SignUpParams) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (auth.AuthContext, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	MasterReport(ctx context.Context) (*model.MasterReport, error)
}

// Screens builds per-request screens bound to the caller's view-state.
type Screens struct {
	gw       screen.Gateway
	registry *viewstate.Registry
	metrics  *metrics.Metrics
	poll     screen.PollConfig
	logger   *slog.Logger
}

func NewScreens(gw screen.Gateway, registry *viewstate.Registry, m *metrics.Metrics, poll screen.PollConfig, logger *slog.Logger) *Screens {
	return &Screens{gw: gw, registry: registry, metrics: m, poll: poll, logger: logger}
}

// deps returns screen dependencies for r. Signed-in requests reuse the
// session's view-state; anonymous ones get a fresh store.
func (s *Screens) deps(r *http.Request) (screen.Deps, *screen.Notifications) {
	if ac, ok := auth.FromContext(r.Context()); ok && ac.Token != "" {
		return s.build(s.registry.Get(ac.Token))
	}
	return s.build(viewstate.New())
}

// shared returns dependencies with a throwaway store, for public share pages.
func (s *Screens) shared() (screen.Deps, *screen.Notifications) {
	return s.build(viewstate.New())
}

func (s *Screens) build(state *viewstate.Store) (screen.Deps, *screen.Notifications) {
	notes := &screen.Notifications{}
	return screen.Deps{
		Gateway:  s.gw,
		State:    state,
		Notifier: notes,
		Logger:   s.logger,
		Metrics:  s.metrics,
		Poll:     s.poll,
	}, notes
}

// Forget drops the view-state of a session.
func (s *Screens) Forget(token string) {
	s.registry.Drop(token)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps gateway errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrInvalidInput), errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrStorageUnavailable), errors.Is(err, gateway.ErrResetUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// triggers is the HX-Trigger payload: toasts plus an optional celebration.
type triggers struct {
	Notify    *notifyEvent        `json:"notify,omitempty"`
	Celebrate *screen.Celebration `json:"celebrate,omitempty"`
}

type notifyEvent struct {
	Items []screen.Notification `json:"items"`
}

// setTriggers sets HX-Trigger so the page can show toasts for notes.
func setTriggers(w http.ResponseWriter, notes *screen.Notifications, c *screen.Celebration) {
	var t triggers
	if items := notes.Items(); len(items) > 0 {
		t.Notify = &notifyEvent{Items: items}
	}
	t.Celebrate = c
	if t.Notify == nil && t.Celebrate == nil {
		return
	}
	b, err := json.Marshal(t)
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(b))
}
