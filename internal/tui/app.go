package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/suivi/internal/auth"
	"github.com/sadopc/suivi/internal/export"
	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

var exportFormats = []string{"CSV", "XLSX", "JSON"}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	auth   *auth.Service
	weeks  *timesheet.Service
	logger *zap.Logger
	now    func() time.Time
	width  int
	height int

	user       *store.User
	tabs       []viewState
	activeView viewState
	showHelp   bool

	exportPicking bool
	exportCursor  int
	exportDir     string

	login     loginModel
	week      weekModel
	month     monthModel
	reports   reportsModel
	prefs     prefsModel
	employees employeesModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(s *store.Store, a *auth.Service, w *timesheet.Service, logger *zap.Logger) App {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := help.New()
	h.ShowAll = false

	home, _ := os.UserHomeDir()
	now := time.Now()
	positions := w.Catalog().Positions

	return App{
		store:     s,
		auth:      a,
		weeks:     w,
		logger:    logger,
		now:       time.Now,
		exportDir: home,
		login:     newLoginModel(a, positions),
		week:      newWeekModel(w),
		month:     newMonthModel(w, now),
		reports:   newReportsModel(now),
		prefs:     newPrefsModel(s),
		employees: newEmployeesModel(s, a, positions),
		help:      h,
	}
}

func (a App) Init() tea.Cmd {
	return a.login.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.login.setSize(a.width, contentHeight)
		a.week.setSize(a.width, contentHeight)
		a.month.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.prefs.setSize(a.width, contentHeight)
		a.employees.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.user == nil {
			if msg.String() == "ctrl+c" {
				return a, tea.Quit
			}
			var cmd tea.Cmd
			a.login, cmd = a.login.update(msg)
			return a, cmd
		}

		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() || (a.activeView == viewWeek && a.week.wantsKey(msg)) {
			return a.updateActiveView(msg)
		}

		switch {
		case a.user.IsAdmin() && key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTab(0)
		case key.Matches(msg, keys.Tab2):
			return a.switchTab(1)
		case key.Matches(msg, keys.Tab3):
			return a.switchTab(2)
		case key.Matches(msg, keys.Tab4):
			return a.switchTab(3)
		case key.Matches(msg, keys.Tab):
			return a.switchTab((a.tabIndex() + 1) % len(a.tabs))
		}

	case signedInMsg:
		return a.signIn(msg.user)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exporté vers " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	// data messages go to their view whichever tab is open
	case weekLoadedMsg:
		var cmd tea.Cmd
		a.week, cmd = a.week.update(msg)
		return a, cmd
	case monthDataMsg:
		var cmd tea.Cmd
		a.month, cmd = a.month.update(msg)
		return a, cmd
	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	case prefsDataMsg:
		var cmd tea.Cmd
		a.prefs, cmd = a.prefs.update(msg)
		return a, cmd
	case usersDataMsg:
		var cmd tea.Cmd
		a.employees, cmd = a.employees.update(msg)
		return a, cmd
	}

	if a.user == nil {
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

// signIn opens the tabs of u's role and loads the first of them.
func (a App) signIn(u *store.User) (tea.Model, tea.Cmd) {
	a.user = u
	a.tabs = tabsFor(u)
	a.activeView = a.tabs[0]
	a.status = "Bienvenue " + u.FullName()
	a.statusErr = false

	a.week.userID = u.ID
	a.month.userID = u.ID
	a.prefs.userID = u.ID
	a.employees.selfID = u.ID
	if u.IsAdmin() {
		a.reports.scope = "tous les collaborateurs"
		a.reports.load = a.allEmployeesSummary
	} else {
		a.reports.scope = "mes activités"
		uid := u.ID
		a.reports.load = func(year int, month time.Month) (timesheet.MonthSummary, error) {
			rec, err := a.weeks.LoadMonth(uid, year, month)
			if err != nil {
				return timesheet.MonthSummary{}, err
			}
			return timesheet.Summarize(rec), nil
		}
	}

	a.logger.Info("signed in", zap.String("user", u.ID), zap.String("role", string(u.Role)))
	return a, a.refreshCurrentView()
}

func (a App) allEmployeesSummary(year int, month time.Month) (timesheet.MonthSummary, error) {
	employees, err := a.store.ListEmployees()
	if err != nil {
		return timesheet.MonthSummary{}, err
	}
	docs, err := a.store.ListMonthDocumentsFor(year, month)
	if err != nil {
		return timesheet.MonthSummary{}, err
	}
	ids := make(map[string]bool, len(employees))
	for _, u := range employees {
		ids[u.ID] = true
	}
	var records []store.MonthRecord
	for _, d := range docs {
		if ids[d.UserID] {
			records = append(records, d.Data)
		}
	}
	return timesheet.Summarize(records...), nil
}

func (a App) tabIndex() int {
	for i, v := range a.tabs {
		if v == a.activeView {
			return i
		}
	}
	return 0
}

func (a App) switchTab(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(a.tabs) {
		return a, nil
	}
	a.activeView = a.tabs[i]
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewWeek:
		a.week, cmd = a.week.update(msg)
	case viewMonth:
		a.month, cmd = a.month.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewPrefs:
		a.prefs, cmd = a.prefs.update(msg)
	case viewEmployees:
		a.employees, cmd = a.employees.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewWeek:
		return a.week.capturing()
	case viewPrefs:
		return a.prefs.formActive
	case viewEmployees:
		return a.employees.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewWeek:
		// keep an open grid when coming back to the tab
		if a.week.loaded {
			return nil
		}
		return a.week.load(a.now())
	case viewMonth:
		return a.month.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewPrefs:
		return a.prefs.refresh()
	case viewEmployees:
		return a.employees.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Chargement..."
	}
	if a.user == nil {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.login.view())
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewWeek:
		content = a.week.view()
	case viewMonth:
		content = a.month.view()
	case viewReports:
		content = a.reports.view()
	case viewPrefs:
		content = a.prefs.view()
	case viewEmployees:
		content = a.employees.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, v := range a.tabs {
		name := fmt.Sprintf("%d %s", i+1, viewNames[v])
		if v == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("suivi") +
		"  " + mutedStyle.Render(a.user.FullName())
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(helpFor(a.activeView, a.user != nil))

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	left := footerStyle.Render(helpView)
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Format d'export"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: exporter  esc: annuler"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes every employee's days into exportDir.
func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		users, err := a.store.ListUsers()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Erreur d'export: %v", err), isError: true}
		}
		docs, err := a.store.ListMonthDocuments()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Erreur d'export: %v", err), isError: true}
		}
		rows := export.BuildRows(users, docs)

		var path string
		switch format {
		case 0:
			path = filepath.Join(a.exportDir, export.Filename(a.now(), "csv"))
			err = export.ToCSV(rows, path)
		case 1:
			path = filepath.Join(a.exportDir, export.Filename(a.now(), "xlsx"))
			err = export.ToXLSX(rows, path)
		default:
			path = filepath.Join(a.exportDir, export.Filename(a.now(), "json"))
			err = export.ToJSON(rows, path)
		}
		if errors.Is(err, export.ErrNoData) {
			return statusMsg{text: "Aucune donnée à exporter", isError: true}
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Erreur d'export %s: %v", exportFormats[min(format, 2)], err), isError: true}
		}

		a.logger.Info("export written", zap.String("path", path), zap.Int("rows", len(rows)))
		return exportDoneMsg{path: path}
	}
}
