package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

// monthModel lists every day of one month for the signed-in employee.
type monthModel struct {
	weeks  *timesheet.Service
	userID string
	width  int
	height int

	year   int
	month  time.Month
	record store.MonthRecord
}

func newMonthModel(w *timesheet.Service, now time.Time) monthModel {
	return monthModel{weeks: w, year: now.Year(), month: now.Month()}
}

func (m *monthModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type monthDataMsg struct {
	year   int
	month  time.Month
	record store.MonthRecord
}

func (m monthModel) refresh() tea.Cmd {
	uid, year, month := m.userID, m.year, m.month
	return func() tea.Msg {
		rec, err := m.weeks.LoadMonth(uid, year, month)
		if err != nil {
			return statusMsg{text: "Chargement impossible: " + err.Error(), isError: true}
		}
		return monthDataMsg{year: year, month: month, record: rec}
	}
}

func (m monthModel) update(msg tea.Msg) (monthModel, tea.Cmd) {
	switch msg := msg.(type) {
	case monthDataMsg:
		// a late answer for a month we already left is dropped
		if msg.year == m.year && msg.month == m.month {
			m.record = msg.record
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Prev):
			m.year, m.month = shiftMonth(m.year, m.month, -1)
			m.record = nil
			return m, m.refresh()
		case key.Matches(msg, keys.Next):
			m.year, m.month = shiftMonth(m.year, m.month, 1)
			m.record = nil
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m monthModel) view() string {
	w := m.width - 4
	title := titleStyle.Render(monthTitle(m.year, m.month))

	rows := []string{title, ""}
	first := time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.Local)
	for d := first; d.Month() == m.month; d = d.AddDate(0, 0, 1) {
		rows = append(rows, m.renderDay(d))
	}

	s := timesheet.Summarize(m.record)
	rows = append(rows, "",
		subtitleStyle.Render(fmt.Sprintf("  %d jours présents · %d absences · %d télétravail · %d tickets resto · %s jours imputés",
			s.PresentDays, s.AbsentDays, s.TeleworkDays, s.VoucherDays, timesheet.FormatValue(s.Allocated))),
		"",
		mutedStyle.Render("  [/]: mois précédent/suivant"),
	)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m monthModel) renderDay(d time.Time) string {
	dateKey := d.Format(timesheet.DateLayout)
	wd := timesheet.WeekdayOf(d)
	label := fmt.Sprintf("  %s %02d", wd.Abbrev(), d.Day())

	if _, stored := m.record[dateKey]; !stored {
		if wd.IsWeekend() {
			return weekendStyle.Render(label + "  -")
		}
		return normalItemStyle.Render(label) + "  " + mutedStyle.Render("-")
	}

	rec := m.record.Day(dateKey)
	absence := ""
	if rec.Absence.Type != store.AbsencePresent {
		absence = string(rec.Absence.Type)
	}
	parts := make([]string, 0, len(rec.Activities))
	for _, a := range rec.Activities {
		parts = append(parts, fmt.Sprintf("%s · %s %s", a.Client, a.Activity, timesheet.FormatValue(a.Value)))
	}
	var flags []string
	if rec.Absence.Telework {
		flags = append(flags, "TT")
	}
	if rec.Absence.RestaurantTicket {
		flags = append(flags, "TR")
	}
	activities := strings.Join(parts, "  |  ")
	flagText := ""
	if len(flags) > 0 {
		flagText = "[" + strings.Join(flags, " ") + "]"
	}

	if wd.IsWeekend() {
		return weekendStyle.Render(strings.Join(nonEmpty(label, absence, activities, flagText), "  "))
	}
	out := []string{normalItemStyle.Render(label)}
	if absence != "" {
		out = append(out, warningStyle.Render(absence))
	}
	if activities != "" {
		out = append(out, activities)
	}
	if flagText != "" {
		out = append(out, highlightStyle.Render(flagText))
	}
	return strings.Join(out, "  ")
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
