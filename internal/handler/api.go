package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/screen"
)

// APIHandler exposes the gateway surface as JSON.
type APIHandler struct {
	gw      Gateway
	screens *Screens
	logger  *slog.Logger
}

func NewAPIHandler(gw Gateway, screens *Screens, logger *slog.Logger) *APIHandler {
	return &APIHandler{gw: gw, screens: screens, logger: logger}
}

type memberRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type taskRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	IsBonus bool   `json:"is_bonus"`
}

type positionsRequest struct {
	TaskID1   int64 `json:"task_id_1" validate:"required"`
	Position1 int   `json:"position_1" validate:"gte=1"`
	TaskID2   int64 `json:"task_id_2" validate:"required"`
	Position2 int   `json:"position_2" validate:"gte=1"`
}

func decodeJSON(r *http.Request, dst any) map[string]string {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return map[string]string{"_": "invalid JSON"}
	}
	return validateForm(dst)
}

// fail writes err as JSON, logging unexpected failures.
func (h *APIHandler) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("api", "op", op, "error", err)
		writeError(w, status, "failed to "+op)
		return
	}
	writeError(w, status, err.Error())
}

func (h *APIHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.gw.ListMembers(r.Context())
	if err != nil {
		h.fail(w, "list members", err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *APIHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if errs := decodeJSON(r, &req); errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request", "fields": errs})
		return
	}
	m, err := h.gw.CreateMember(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		h.fail(w, "create member", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *APIHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	m, err := h.gw.GetMember(r.Context(), id)
	if err != nil {
		h.fail(w, "get member", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *APIHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tasks, err := h.gw.ListTasks(r.Context(), id)
	if err != nil {
		h.fail(w, "list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *APIHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req taskRequest
	if errs := decodeJSON(r, &req); errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request", "fields": errs})
		return
	}
	t, err := h.gw.CreateTask(r.Context(), id, req.Title, req.IsBonus)
	if err != nil {
		h.fail(w, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *APIHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := h.gw.ToggleTask(r.Context(), id)
	if err != nil {
		h.fail(w, "toggle task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdatePositions is the update_task_positions procedure.
func (h *APIHandler) UpdatePositions(w http.ResponseWriter, r *http.Request) {
	var req positionsRequest
	if errs := decodeJSON(r, &req); errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request", "fields": errs})
		return
	}
	if err := h.gw.UpdateTaskPositions(r.Context(), req.TaskID1, req.Position1, req.TaskID2, req.Position2); err != nil {
		h.fail(w, "update task positions", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) Bonus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.gw.AwardBonus(r.Context(), id); err != nil {
		h.fail(w, "award bonus", err)
		return
	}
	h.GetMember(w, r)
}

func (h *APIHandler) Penalty(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.gw.ApplyPenalty(r.Context(), id)
	if err != nil {
		h.fail(w, "apply penalty", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *APIHandler) Reward(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rw, err := h.gw.RewardMember(r.Context(), id)
	if err != nil {
		h.fail(w, "reward member", err)
		return
	}
	writeJSON(w, http.StatusCreated, rw)
}

func (h *APIHandler) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rep, err := h.gw.WeeklyReport(r.Context(), id)
	if err != nil {
		h.fail(w, "load weekly report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *APIHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rep, err := h.gw.MonthlyReport(r.Context(), id)
	if err != nil {
		h.fail(w, "load monthly report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *APIHandler) RewardsHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	hist, err := h.gw.RewardsHistory(r.Context(), id)
	if err != nil {
		h.fail(w, "load rewards history", err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

type refreshResponse struct {
	Ack           *model.RefreshAck     `json:"ack"`
	Notifications []screen.Notification `json:"notifications"`
}

// RefreshDay runs the full new-day sequence: fold, refresh, settle, reload.
func (h *APIHandler) RefreshDay(w http.ResponseWriter, r *http.Request) {
	deps, notes := h.screens.deps(r)
	ack, err := screen.NewDashboard(deps).RefreshDay(r.Context())
	if err != nil {
		h.fail(w, "refresh day", err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Ack: ack, Notifications: notes.Items()})
}

func (h *APIHandler) MasterReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.gw.MasterReport(r.Context())
	if err != nil {
		h.fail(w, "load master report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
