package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/taskchamp/internal/auth"
	"github.com/dukerupert/taskchamp/internal/gateway"
	"github.com/dukerupert/taskchamp/internal/screen"
)

const (
	viewModeCookieName = "taskchamp_view"
	modeAdmin          = "admin"
	modeMember         = "member"
)

// viewMode is the admin/member toggle. It only changes which screen is shown.
func viewMode(r *http.Request) string {
	if c, err := r.Cookie(viewModeCookieName); err == nil && c.Value == modeAdmin {
		return modeAdmin
	}
	return modeMember
}

type PageHandler struct {
	gw      Gateway
	screens *Screens
	render  *Renderer
	now     func() time.Time
	logger  *slog.Logger
}

func NewPageHandler(gw Gateway, screens *Screens, render *Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{gw: gw, screens: screens, render: render, now: time.Now, logger: logger}
}

type homePage struct {
	Title     string
	Email     string
	Mode      string
	Now       time.Time
	Notices   []screen.Notification
	Admin     adminView
	Dashboard dashboardView
}

// Home renders the signed-in view: the admin screen or the member dashboard.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	deps, notes := h.screens.deps(r)
	p := homePage{Title: "Task Champ", Email: ac.Email, Mode: viewMode(r), Now: h.now()}

	if p.Mode == modeAdmin {
		a := screen.NewAdmin(deps)
		if err := a.LoadMembers(r.Context()); err == nil {
			if sel := deps.State.Selected().MemberID; sel != 0 {
				a.Select(r.Context(), sel)
			}
		}
		p.Admin = buildAdminView(deps.State.Snapshot())
	} else {
		screen.NewDashboard(deps).Load(r.Context())
		p.Dashboard = buildDashboardView(deps.State.Snapshot(), false, "/partials/dashboard")
	}
	p.Notices = notes.Items()
	h.render.render(w, "home.html", p)
}

type sharePage struct {
	Title     string
	Now       time.Time
	ShareID   string
	NotFound  bool
	Dashboard dashboardView
}

// Share renders the public read-only view of one member.
func (h *PageHandler) Share(w http.ResponseWriter, r *http.Request) {
	shareID := r.PathValue("shareID")
	p := sharePage{Title: "Task Champ", Now: h.now(), ShareID: shareID}

	view, err := h.loadShared(r, shareID)
	if errors.Is(err, gateway.ErrNotFound) {
		p.NotFound = true
		h.render.page(w, http.StatusNotFound, "share.html", p)
		return
	}
	if err != nil {
		http.Error(w, "failed to load member", http.StatusInternalServerError)
		return
	}
	p.Title = view.Cards[0].Member.Name + " · Task Champ"
	p.Dashboard = view
	h.render.render(w, "share.html", p)
}

func (h *PageHandler) SharePartial(w http.ResponseWriter, r *http.Request) {
	view, err := h.loadShared(r, r.PathValue("shareID"))
	if err != nil {
		http.Error(w, "member not found", statusFor(err))
		return
	}
	h.render.renderPartial(w, "dashboard", view)
}

func (h *PageHandler) loadShared(r *http.Request, shareID string) (dashboardView, error) {
	deps, _ := h.screens.shared()
	if _, err := screen.NewDashboard(deps).LoadShared(r.Context(), shareID); err != nil {
		return dashboardView{}, err
	}
	return buildDashboardView(deps.State.Snapshot(), true, "/partials/share/"+shareID), nil
}

func (h *PageHandler) MasterReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.gw.MasterReport(r.Context())
	if err != nil {
		h.logger.Error("master report", "error", err)
		http.Error(w, "failed to load report", statusFor(err))
		return
	}
	h.render.render(w, "master_report.html", map[string]any{
		"Title":  "Master report · Task Champ",
		"Report": rep,
	})
}

func (h *PageHandler) Clock(w http.ResponseWriter, r *http.Request) {
	h.render.renderPartial(w, "clock", h.now())
}

// SetViewMode switches between the admin screen and the member dashboard.
func (h *PageHandler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	var f viewModeForm
	if err := decodeForm(r, &f); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	if errs := validateForm(&f); errs != nil {
		http.Error(w, "invalid mode", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     viewModeCookieName,
		Value:    f.Mode,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
