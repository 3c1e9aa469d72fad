package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/suivi/internal/timesheet"
)

// summaryLoader returns the month summary a report shows: the signed-in
// employee's own month, or every employee's for an admin.
type summaryLoader func(year int, month time.Month) (timesheet.MonthSummary, error)

type reportsModel struct {
	load   summaryLoader
	scope  string
	width  int
	height int

	year    int
	month   time.Month
	summary timesheet.MonthSummary

	chart barchart.Model
}

func newReportsModel(now time.Time) reportsModel {
	return reportsModel{
		year:  now.Year(),
		month: now.Month(),
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	year    int
	month   time.Month
	summary timesheet.MonthSummary
}

func (r reportsModel) refresh() tea.Cmd {
	if r.load == nil {
		return nil
	}
	load, year, month := r.load, r.year, r.month
	return func() tea.Msg {
		s, err := load(year, month)
		if err != nil {
			return statusMsg{text: "Rapport indisponible: " + err.Error(), isError: true}
		}
		return reportsDataMsg{year: year, month: month, summary: s}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.year == r.year && msg.month == r.month {
			r.summary = msg.summary
			r.buildChart()
		}
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Prev):
			r.year, r.month = shiftMonth(r.year, r.month, -1)
			return r, r.refresh()
		case key.Matches(msg, keys.Next):
			r.year, r.month = shiftMonth(r.year, r.month, 1)
			return r, r.refresh()
		}
	}
	return r, nil
}

// buildChart draws one bar per client, in days.
func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	bars := make([]barchart.BarData, 0, len(r.summary.ByClient))
	for i, t := range r.summary.ByClient {
		style := lipgloss.NewStyle().Foreground(clientColors[i%len(clientColors)])
		bars = append(bars, barchart.BarData{
			Label:  truncate(t.Name, 10),
			Values: []barchart.BarValue{{Name: t.Name, Value: t.Days, Style: style}},
		})
	}
	if len(bars) == 0 {
		bars = append(bars, barchart.BarData{
			Label:  "",
			Values: []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Rapports"), "  ",
		highlightStyle.Render(monthTitle(r.year, r.month)), "  ",
		mutedStyle.Render(r.scope),
	)

	nav := mutedStyle.Render("  [/]: mois précédent/suivant")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderTotals(w), "", nav,
		),
	)
}

func (r reportsModel) renderTotals(w int) string {
	if len(r.summary.ByClient) == 0 {
		return mutedStyle.Render("  Aucune donnée pour ce mois")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %8s", "Client", "Jours")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 38))))
	for i, t := range r.summary.ByClient {
		dot := lipgloss.NewStyle().Foreground(clientColors[i%len(clientColors)]).Render("●")
		rows = append(rows, fmt.Sprintf("  %s %-26s %8s", dot, truncate(t.Name, 26), timesheet.FormatValue(t.Days)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %8s", "Activité", "Jours")))
	for _, t := range r.summary.ByActivity {
		rows = append(rows, fmt.Sprintf("    %-26s %8s", truncate(t.Name, 26), timesheet.FormatValue(t.Days)))
	}
	return strings.Join(rows, "\n")
}
