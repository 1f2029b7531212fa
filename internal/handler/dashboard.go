package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/taskchamp/internal/screen"
)

// DashboardHandler serves the member dashboard partials.
type DashboardHandler struct {
	screens *Screens
	render  *Renderer
	logger  *slog.Logger
}

func NewDashboardHandler(screens *Screens, render *Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{screens: screens, render: render, logger: logger}
}

func (h *DashboardHandler) screen(r *http.Request) (*screen.Dashboard, screen.Deps, *screen.Notifications) {
	deps, notes := h.screens.deps(r)
	return screen.NewDashboard(deps), deps, notes
}

func (h *DashboardHandler) respond(w http.ResponseWriter, deps screen.Deps, notes *screen.Notifications, c *screen.Celebration) {
	setTriggers(w, notes, c)
	h.render.renderPartial(w, "dashboard", buildDashboardView(deps.State.Snapshot(), false, "/partials/dashboard"))
}

func (h *DashboardHandler) Panel(w http.ResponseWriter, r *http.Request) {
	d, deps, notes := h.screen(r)
	d.Load(r.Context())
	h.respond(w, deps, notes, nil)
}

// memberAction runs one per-member operation and re-renders the dashboard.
func (h *DashboardHandler) memberAction(op func(d *screen.Dashboard, r *http.Request, memberID int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		d, deps, notes := h.screen(r)
		op(d, r, id)
		h.respond(w, deps, notes, nil)
	}
}

func (h *DashboardHandler) Bonus(w http.ResponseWriter, r *http.Request) {
	h.memberAction(func(d *screen.Dashboard, r *http.Request, id int64) {
		d.Bonus(r.Context(), id)
	})(w, r)
}

func (h *DashboardHandler) Penalty(w http.ResponseWriter, r *http.Request) {
	h.memberAction(func(d *screen.Dashboard, r *http.Request, id int64) {
		d.Penalty(r.Context(), id)
	})(w, r)
}

func (h *DashboardHandler) Reward(w http.ResponseWriter, r *http.Request) {
	h.memberAction(func(d *screen.Dashboard, r *http.Request, id int64) {
		d.Reward(r.Context(), id)
	})(w, r)
}

func (h *DashboardHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	dragged, err1 := strconv.ParseInt(r.FormValue("dragged_id"), 10, 64)
	target, err2 := strconv.ParseInt(r.FormValue("target_id"), 10, 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid task ids", http.StatusBadRequest)
		return
	}
	h.memberAction(func(d *screen.Dashboard, r *http.Request, id int64) {
		d.Reorder(r.Context(), id, dragged, target)
	})(w, r)
}

func (h *DashboardHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	d, deps, notes := h.screen(r)
	c, _ := d.ToggleTask(r.Context(), id)
	h.respond(w, deps, notes, c)
}

func (h *DashboardHandler) RefreshDay(w http.ResponseWriter, r *http.Request) {
	d, deps, notes := h.screen(r)
	if ack, err := d.RefreshDay(r.Context()); err == nil {
		h.logger.Info("new day", "task_date", ack.TaskDate, "tasks_archived", ack.TasksArchived)
	}
	h.respond(w, deps, notes, nil)
}
