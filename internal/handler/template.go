package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/taskchamp/internal/model"
	"github.com/dukerupert/taskchamp/internal/report"
	"github.com/dukerupert/taskchamp/internal/viewstate"
	"github.com/dukerupert/taskchamp/web"
)

var templateFuncs = template.FuncMap{
	"dateRange":  report.DateRange,
	"percent":    report.Percent,
	"penalties":  report.PenaltySummary,
	"inactivity": report.Inactivity,
	"clock":      func(t time.Time) string { return t.Format("Mon, Jan 2 · 3:04 PM") },
	"date":       func(t time.Time) string { return t.Format("Jan 2, 2006") },
}

type Renderer struct {
	templates *template.Template
	logger    *slog.Logger
}

func NewRenderer(logger *slog.Logger) *Renderer {
	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(web.Templates, "templates/*.html"))
	return &Renderer{templates: tmpl, logger: logger}
}

func (rr *Renderer) page(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rr.templates.ExecuteTemplate(w, name, data); err != nil {
		rr.logger.Error("template error", "template", name, "error", err)
	}
}

func (rr *Renderer) render(w http.ResponseWriter, name string, data any) {
	rr.page(w, http.StatusOK, name, data)
}

func (rr *Renderer) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rr.templates.ExecuteTemplate(w, name, data); err != nil {
		rr.logger.Error("template error", "template", name, "error", err)
		fmt.Fprintf(w, `<div class="error">Template error</div>`)
	}
}

type taskRow struct {
	model.Task
	PrevID int64
}

type taskList struct {
	Rows         []taskRow
	ReadOnly     bool
	TogglePrefix string
	ReorderURL   string
	Target       string
}

func newTaskList(tasks []model.Task, readOnly bool, togglePrefix, reorderURL, target string) taskList {
	rows := make([]taskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow{Task: t}
		if i > 0 {
			rows[i].PrevID = tasks[i-1].ID
		}
	}
	return taskList{Rows: rows, ReadOnly: readOnly, TogglePrefix: togglePrefix, ReorderURL: reorderURL, Target: target}
}

type selectedView struct {
	Member   model.Member
	TaskList taskList
	Weekly   report.Card
	Monthly  report.Card
}

type adminView struct {
	Members  []model.Member
	Selected *selectedView
}

func buildAdminView(snap viewstate.Snapshot) adminView {
	v := adminView{Members: snap.Members}
	sel := snap.Selected
	if sel.MemberID == 0 {
		return v
	}
	for _, m := range snap.Members {
		if m.ID != sel.MemberID {
			continue
		}
		v.Selected = &selectedView{
			Member:   m,
			TaskList: newTaskList(sel.Tasks, false, "/partials/admin/tasks", "/partials/admin/tasks/reorder", "#admin-panel"),
			Weekly:   report.Weekly(sel.Weekly),
			Monthly:  report.Monthly(sel.Monthly),
		}
	}
	return v
}

type memberCard struct {
	Member   model.Member
	TaskList taskList
	Weekly   report.Card
	Monthly  report.Card
	Rewards  *model.RewardHistory
	Progress int
	ReadOnly bool
}

type dashboardView struct {
	Cards    []memberCard
	ReadOnly bool
	// Source is the URL the panel reloads from on live updates.
	Source string
}

func buildDashboardView(snap viewstate.Snapshot, readOnly bool, source string) dashboardView {
	v := dashboardView{ReadOnly: readOnly, Source: source}
	for _, m := range snap.Members {
		v.Cards = append(v.Cards, memberCard{
			Member: m,
			TaskList: newTaskList(snap.TasksByMember[m.ID], readOnly, "/partials/dashboard/tasks",
				fmt.Sprintf("/partials/dashboard/members/%d/reorder", m.ID), "#dashboard"),
			Weekly:   report.Weekly(snap.Weekly[m.ID]),
			Monthly:  report.Monthly(snap.Monthly[m.ID]),
			Rewards:  snap.Rewards[m.ID],
			Progress: report.Progress(m.TotalPoints, m.TargetPoints),
			ReadOnly: readOnly,
		})
	}
	return v
}
