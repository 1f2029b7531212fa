package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/screen"
)

const maxUploadSize = 5 << 20

// AdminHandler serves the admin screen partials. Every action re-renders the
// whole panel; failures show up as toasts over the unchanged panel.
type AdminHandler struct {
	screens *Screens
	render  *Renderer
	logger  *slog.Logger
}

func NewAdminHandler(screens *Screens, render *Renderer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{screens: screens, render: render, logger: logger}
}

func (h *AdminHandler) screen(r *http.Request) (*screen.Admin, screen.Deps, *screen.Notifications) {
	deps, notes := h.screens.deps(r)
	return screen.NewAdmin(deps), deps, notes
}

func (h *AdminHandler) respond(w http.ResponseWriter, deps screen.Deps, notes *screen.Notifications) {
	setTriggers(w, notes, nil)
	h.render.renderPartial(w, "admin-panel", buildAdminView(deps.State.Snapshot()))
}

func (h *AdminHandler) Panel(w http.ResponseWriter, r *http.Request) {
	a, deps, notes := h.screen(r)
	if err := a.LoadMembers(r.Context()); err == nil {
		if sel := deps.State.Selected().MemberID; sel != 0 {
			a.Select(r.Context(), sel)
		}
	}
	h.respond(w, deps, notes)
}

func (h *AdminHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	a, deps, notes := h.screen(r)
	a.AddMember(r.Context(), r.FormValue("name"))
	h.respond(w, deps, notes)
}

func (h *AdminHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a, deps, notes := h.screen(r)
	if err := a.LoadMembers(r.Context()); err == nil {
		a.Select(r.Context(), id)
	}
	h.respond(w, deps, notes)
}

func (h *AdminHandler) RenameMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a, deps, notes := h.screen(r)
	a.RenameMember(r.Context(), id, r.FormValue("name"))
	h.respond(w, deps, notes)
}

func (h *AdminHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a, deps, notes := h.screen(r)
	a.DeleteMember(r.Context(), id)
	h.respond(w, deps, notes)
}

func (h *AdminHandler) SetTargetPoints(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a, deps, notes := h.screen(r)
	target, err := strconv.Atoi(strings.TrimSpace(r.FormValue("target_points")))
	if err != nil {
		notes.Notify(screen.LevelError, "Goal must be a whole number.")
		h.respond(w, deps, notes)
		return
	}
	a.SetTargetPoints(r.Context(), id, target)
	h.respond(w, deps, notes)
}

func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	kind := gateway.ImageKind(r.PathValue("kind"))
	if kind != gateway.ProfileImage && kind != gateway.BannerImage {
		http.Error(w, "unknown image kind", http.StatusBadRequest)
		return
	}

	a, deps, notes := h.screen(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		notes.Notify(screen.LevelError, "Image must be smaller than 5 MB.")
		h.respond(w, deps, notes)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		notes.Notify(screen.LevelError, "Choose an image to upload.")
		h.respond(w, deps, notes)
		return
	}
	defer file.Close()

	a.UploadImage(r.Context(), id, kind, header.Filename, file)
	h.respond(w, deps, notes)
}

func (h *AdminHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	a, deps, notes := h.screen(r)
	a.AddTask(r.Context(), r.FormValue("title"), r.FormValue("is_bonus") == "true")
	h.respond(w, deps, notes)
}

func (h *AdminHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a, deps, notes := h.screen(r)
	a.ToggleTask(r.Context(), id)
	h.respond(w, deps, notes)
}

func (h *AdminHandler) RenameTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	a, deps, notes := h.screen(r)
	a.RenameTask(r.Context(), id, r.FormValue("title"))
	h.respond(w, deps, notes)
}

func (h *AdminHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	dragged, err1 := strconv.ParseInt(r.FormValue("dragged_id"), 10, 64)
	target, err2 := strconv.ParseInt(r.FormValue("target_id"), 10, 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "invalid task ids", http.StatusBadRequest)
		return
	}
	a, deps, notes := h.screen(r)
	a.Reorder(r.Context(), dragged, target)
	h.respond(w, deps, notes)
}
