package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

// prefsModel edits the weekdays pre-checked for telework and meal
// vouchers when a new week opens.
type prefsModel struct {
	store  *store.Store
	userID string
	width  int
	height int

	telework   [7]bool
	restaurant [7]bool

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	teleworkDays   *[]timesheet.Weekday
	restaurantDays *[]timesheet.Weekday
}

func newPrefsModel(s *store.Store) prefsModel {
	var tw, tr []timesheet.Weekday
	return prefsModel{
		store:          s,
		teleworkDays:   &tw,
		restaurantDays: &tr,
	}
}

func (p *prefsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type prefsDataMsg struct {
	telework   [7]bool
	restaurant [7]bool
}

func (p prefsModel) refresh() tea.Cmd {
	uid := p.userID
	return func() tea.Msg {
		return prefsDataMsg{
			telework:   p.getSet(uid, store.PrefTeleworkDays),
			restaurant: p.getSet(uid, store.PrefVoucherDays),
		}
	}
}

func (p prefsModel) getSet(uid, k string) [7]bool {
	v, err := p.store.GetPreference(uid, k)
	if err != nil {
		return [7]bool{}
	}
	return timesheet.ParseWeekdaySet(v)
}

func (p prefsModel) update(msg tea.Msg) (prefsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case prefsDataMsg:
		p.telework = msg.telework
		p.restaurant = msg.restaurant
		return p, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return p.showForm()
		}
	}
	return p, nil
}

func setToDays(set [7]bool) []timesheet.Weekday {
	var days []timesheet.Weekday
	for _, d := range timesheet.Weekdays {
		if set[d] {
			days = append(days, d)
		}
	}
	return days
}

func daysToSet(days []timesheet.Weekday) [7]bool {
	var set [7]bool
	for _, d := range days {
		set[d] = true
	}
	return set
}

func (p prefsModel) showForm() (prefsModel, tea.Cmd) {
	*p.teleworkDays = setToDays(p.telework)
	*p.restaurantDays = setToDays(p.restaurant)

	opts := make([]huh.Option[timesheet.Weekday], 0, 5)
	for _, d := range timesheet.Weekdays {
		if !d.IsWeekend() {
			opts = append(opts, huh.NewOption(d.Abbrev(), d))
		}
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[timesheet.Weekday]().Title("Jours de télétravail").
				Options(opts...).Value(p.teleworkDays),
			huh.NewMultiSelect[timesheet.Weekday]().Title("Jours avec ticket restaurant").
				Options(opts...).Value(p.restaurantDays),
		).Title("Semaine type"),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p prefsModel) updateForm(msg tea.Msg) (prefsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		if err := p.save(daysToSet(*p.teleworkDays), daysToSet(*p.restaurantDays)); err != nil {
			return p, statusCmd("Préférences non enregistrées: "+err.Error(), true)
		}
		return p, tea.Batch(p.refresh(), statusCmd("Préférences enregistrées", false))
	}

	return p, cmd
}

func (p prefsModel) save(telework, restaurant [7]bool) error {
	return errors.Join(
		p.store.SetPreference(p.userID, store.PrefTeleworkDays, timesheet.FormatWeekdaySet(telework)),
		p.store.SetPreference(p.userID, store.PrefVoucherDays, timesheet.FormatWeekdaySet(restaurant)),
	)
}

func daysLabel(set [7]bool) string {
	var names []string
	for _, d := range setToDays(set) {
		names = append(names, d.Abbrev())
	}
	if len(names) == 0 {
		return "aucun"
	}
	return strings.Join(names, ", ")
}

func (p prefsModel) view() string {
	w := p.width - 4
	title := titleStyle.Render("Préférences")

	if p.formActive && p.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()),
		)
	}

	rows := []string{
		title,
		"",
		"  " + lipgloss.NewStyle().Width(24).Render("Télétravail") + highlightStyle.Render(daysLabel(p.telework)),
		"  " + lipgloss.NewStyle().Width(24).Render("Ticket restaurant") + highlightStyle.Render(daysLabel(p.restaurant)),
		"",
		mutedStyle.Render("Ces jours sont cochés d'office à l'ouverture d'une semaine. enter: modifier"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
