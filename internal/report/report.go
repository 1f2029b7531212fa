// Package report formats gateway-computed report figures for display.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/taskchamp/internal/model"
)

// DateRange renders two YYYY-MM-DD dates as "Jan 2 - Jan 8". Unparseable
// input is returned as given.
func DateRange(start, end string) string {
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return start + " - " + end
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return start + " - " + end
	}
	return s.Format("Jan 2") + " - " + e.Format("Jan 2")
}

// Percent renders a completion rate with at most one decimal: 83.33 -> "83.3%", 100 -> "100%".
func Percent(rate float64) string {
	s := strconv.FormatFloat(rate, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + "%"
}

func PenaltySummary(count, points int) string {
	switch count {
	case 0:
		return "No penalties"
	case 1:
		return fmt.Sprintf("1 penalty (-%d pts)", points)
	default:
		return fmt.Sprintf("%d penalties (-%d pts)", count, points)
	}
}

// Progress is the percentage of a member's target reached, capped at 100.
// A member without a target reports 0.
func Progress(total, target int) int {
	if target <= 0 {
		return 0
	}
	p := total * 100 / target
	if p > 100 {
		return 100
	}
	return p
}

// Card is the display form of a weekly or monthly report.
type Card struct {
	Title          string
	Range          string
	Completed      string
	BonusCompleted int
	PointsEarned   int
	Penalties      string
	CompletionRate string
}

func Weekly(r *model.WeeklyReport) Card {
	if r == nil {
		return Card{Title: "This week"}
	}
	return Card{
		Title:          "This week",
		Range:          DateRange(r.WeekStart, r.WeekEnd),
		Completed:      fmt.Sprintf("%d/%d", r.CompletedTasks, r.TotalTasks),
		BonusCompleted: r.BonusTasksCompleted,
		PointsEarned:   r.PointsEarned,
		Penalties:      PenaltySummary(r.PenaltiesCount, r.PenaltyPoints),
	}
}

func Monthly(r *model.MonthlyReport) Card {
	if r == nil {
		return Card{Title: "This month"}
	}
	return Card{
		Title:          "This month",
		Range:          DateRange(r.MonthStart, r.MonthEnd),
		Completed:      fmt.Sprintf("%d/%d", r.CompletedTasks, r.TotalTasks),
		BonusCompleted: r.BonusTasksCompleted,
		PointsEarned:   r.PointsEarned,
		Penalties:      PenaltySummary(r.PenaltiesCount, r.PenaltyPoints),
		CompletionRate: Percent(r.CompletionRate),
	}
}

// Inactivity renders an inactive admin's last activity line.
func Inactivity(a model.InactiveAdmin) string {
	if a.LastActivity == "" || a.LastActivity == "No activity" {
		return fmt.Sprintf("No activity (%d+ days)", a.DaysInactive)
	}
	return fmt.Sprintf("Last active %s (%d days ago)", a.LastActivity, a.DaysInactive)
}
