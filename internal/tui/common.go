package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

// viewState represents the currently active view.
type viewState int

const (
	viewWeek viewState = iota
	viewMonth
	viewReports
	viewPrefs
	viewEmployees
)

var viewNames = map[viewState]string{
	viewWeek:      "Semaine",
	viewMonth:     "Mois",
	viewReports:   "Rapports",
	viewPrefs:     "Préférences",
	viewEmployees: "Collaborateurs",
}

// tabsFor lists the views a role can open, in tab order.
func tabsFor(u *store.User) []viewState {
	if u.IsAdmin() {
		return []viewState{viewEmployees, viewReports}
	}
	return []viewState{viewWeek, viewMonth, viewReports, viewPrefs}
}

// --- Messages ---

type signedInMsg struct {
	user *store.User
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// --- Helpers ---

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

func frenchMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return frenchMonths[m-1]
}

// monthTitle renders "octobre 2024".
func monthTitle(year int, m time.Month) string {
	return fmt.Sprintf("%s %d", frenchMonth(m), year)
}

// formatDays renders an allocation, blank when zero.
func formatDays(v float64) string {
	if v == 0 {
		return ""
	}
	return timesheet.FormatValue(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// shiftMonth moves (year, month) by delta months.
func shiftMonth(year int, m time.Month, delta int) (int, time.Month) {
	t := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	return t.Year(), t.Month()
}
