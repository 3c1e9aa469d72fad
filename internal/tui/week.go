package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

// Grid columns: the three pickers, then one column per weekday.
const (
	colType = iota
	colClient
	colActivity
	colFirstDay
	colCount = colFirstDay + 7
)

const (
	widthType     = 9
	widthClient   = 22
	widthActivity = 22
	widthDay      = 7
)

// weekModel edits one week through a timesheet.SessionDraft.
type weekModel struct {
	weeks  *timesheet.Service
	userID string
	width  int
	height int

	draft  timesheet.SessionDraft
	loaded bool
	row    int
	col    int

	// inline value entry on a day cell
	inputActive bool
	input       string

	formActive bool
	form       *huh.Form
	formCol    int
	choice     *string
}

func newWeekModel(w *timesheet.Service) weekModel {
	c := ""
	return weekModel{weeks: w, col: colFirstDay, choice: &c}
}

func (w *weekModel) setSize(width, height int) {
	w.width = width
	w.height = height
}

type weekLoadedMsg struct {
	draft timesheet.SessionDraft
}

func (w weekModel) load(anchor time.Time) tea.Cmd {
	uid := w.userID
	return func() tea.Msg {
		d, err := w.weeks.LoadWeek(uid, anchor)
		if err != nil {
			return statusMsg{text: "Chargement impossible: " + err.Error(), isError: true}
		}
		return weekLoadedMsg{draft: d}
	}
}

// capturing reports whether keys must reach the grid before the app.
func (w weekModel) capturing() bool { return w.formActive || w.inputActive }

// wantsKey reports whether msg starts a value entry on the current cell.
func (w weekModel) wantsKey(msg tea.KeyMsg) bool {
	_, onDay := w.day()
	return onDay && w.draft.Len() > 0 && isValueKey(msg.String())
}

func isValueKey(s string) bool {
	return len(s) == 1 && strings.Contains("0123456789.,", s)
}

func (w weekModel) day() (timesheet.Weekday, bool) {
	if w.col < colFirstDay || w.col >= colCount {
		return 0, false
	}
	return timesheet.Weekday(w.col - colFirstDay), true
}

func (w weekModel) update(msg tea.Msg) (weekModel, tea.Cmd) {
	if w.formActive && w.form != nil {
		return w.updateForm(msg)
	}

	switch msg := msg.(type) {
	case weekLoadedMsg:
		w.draft = msg.draft
		w.loaded = true
		w.row = 0
		return w, nil

	case tea.KeyMsg:
		if !w.loaded {
			return w, nil
		}
		if w.inputActive {
			return w.updateInput(msg)
		}
		return w.updateGrid(msg)
	}
	return w, nil
}

func (w weekModel) updateGrid(msg tea.KeyMsg) (weekModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if w.row > 0 {
			w.row--
		}
	case key.Matches(msg, keys.Down):
		if w.row < w.draft.Len()-1 {
			w.row++
		}
	case key.Matches(msg, keys.Left):
		if w.col > 0 {
			w.col--
		}
	case key.Matches(msg, keys.Right):
		if w.col < colCount-1 {
			w.col++
		}
	case key.Matches(msg, keys.NewRow):
		w.draft = w.draft.AddRow()
		w.row = w.draft.Len() - 1
		w.col = colType
	case key.Matches(msg, keys.DeleteRow):
		if w.draft.Len() > 0 {
			w.draft = w.draft.RemoveRow(w.row)
			w.row = max(0, min(w.row, w.draft.Len()-1))
		}
	case key.Matches(msg, keys.Edit):
		w.draft = w.draft.EnterEditMode(w.weeks.Catalog())
		w.row = 0
		return w, statusCmd("Mode édition: semaine enregistrée chargée", false)
	case key.Matches(msg, keys.Back):
		if w.draft.Editing {
			w.draft = w.draft.CancelEdit()
			w.row = 0
			return w, statusCmd("Modification annulée", false)
		}
	case key.Matches(msg, keys.Submit):
		return w.submit()
	case key.Matches(msg, keys.Telework):
		if d, ok := w.day(); ok {
			w.draft = w.draft.ToggleTelework(d)
		}
	case key.Matches(msg, keys.Restaurant):
		if d, ok := w.day(); ok {
			w.draft = w.draft.ToggleRestaurant(d)
		}
	case key.Matches(msg, keys.Prev):
		return w, w.load(w.draft.Week.Prev().Monday)
	case key.Matches(msg, keys.Next):
		return w, w.load(w.draft.Week.Next().Monday)
	case key.Matches(msg, keys.Enter):
		return w.editCell()
	default:
		if w.wantsKey(msg) {
			w.inputActive = true
			w.input = msg.String()
		}
	}
	return w, nil
}

func (w weekModel) updateInput(msg tea.KeyMsg) (weekModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		w.inputActive = false
		d, _ := w.day()
		next, ok := w.draft.SetValue(w.row, d, w.input)
		w.input = ""
		if !ok {
			return w, statusCmd("Valeur invalide: entre 0,1 et 1 par pas de 0,1", true)
		}
		w.draft = next
	case tea.KeyEsc:
		w.inputActive = false
		w.input = ""
	case tea.KeyBackspace:
		if r := []rune(w.input); len(r) > 0 {
			w.input = string(r[:len(r)-1])
		}
	default:
		if isValueKey(msg.String()) {
			w.input += msg.String()
		}
	}
	return w, nil
}

// editCell opens the picker of the current column, or starts value entry
// on a day column.
func (w weekModel) editCell() (weekModel, tea.Cmd) {
	r, ok := w.draft.Row(w.row)
	if !ok {
		return w, nil
	}
	if d, onDay := w.day(); onDay {
		w.inputActive = true
		w.input = ""
		if v, set := r.Value(d); set {
			w.input = timesheet.FormatValue(v)
		}
		return w, nil
	}

	cat := w.weeks.Catalog()
	var (
		title   string
		options []huh.Option[string]
	)
	switch w.col {
	case colType:
		title = "Type"
		options = []huh.Option[string]{
			huh.NewOption("Présent", string(timesheet.Present)),
			huh.NewOption("Absent", string(timesheet.Absent)),
		}
		*w.choice = string(r.Classification)
	case colClient:
		if r.Classification == timesheet.Absent {
			return w, statusCmd("Une absence est imputée au client "+cat.InternalClient, false)
		}
		title = "Client"
		options = huh.NewOptions(cat.Clients...)
		*w.choice = r.Client
	case colActivity:
		title = "Activité"
		options = huh.NewOptions(cat.ActivitiesFor(r.Classification)...)
		*w.choice = r.Activity
	}

	w.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title(title).Options(options...).Value(w.choice),
		),
	).WithShowHelp(true).WithShowErrors(true)
	w.formCol = w.col
	w.formActive = true
	return w, w.form.Init()
}

func (w weekModel) updateForm(msg tea.Msg) (weekModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			w.formActive = false
			w.form = nil
			return w, nil
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		w.formActive = false
		w.form = nil
		w.draft = w.applyChoice(w.formCol, *w.choice)
		return w, nil
	}
	return w, cmd
}

func (w weekModel) applyChoice(col int, value string) timesheet.SessionDraft {
	switch col {
	case colType:
		return w.draft.SetClassification(w.row, timesheet.Classification(value), w.weeks.Catalog())
	case colClient:
		return w.draft.SetClient(w.row, value)
	case colActivity:
		return w.draft.SetActivity(w.row, value)
	}
	return w.draft
}

// submit stores the grid. A rejected grid stays as it is.
func (w weekModel) submit() (weekModel, tea.Cmd) {
	saved, err := w.weeks.SubmitWeek(w.userID, w.draft)
	if err != nil {
		return w, statusCmd(submitError(err), true)
	}
	w.draft = saved
	w.row = 0
	return w, statusCmd("Semaine enregistrée", false)
}

var fieldLabels = map[string]string{
	"client":             "client",
	"activity":           "activité",
	"timeClassification": "type",
	"value":              "valeur",
}

func submitError(err error) string {
	var ve *timesheet.ValidationError
	if errors.As(err, &ve) {
		switch ve.Kind {
		case timesheet.KindMissingField:
			return fmt.Sprintf("Ligne %d: %s manquant", ve.Row+1, fieldLabels[ve.Field])
		case timesheet.KindInvalidOption:
			return fmt.Sprintf("Ligne %d: %s %q non autorisé", ve.Row+1, fieldLabels[ve.Field], ve.Value)
		case timesheet.KindSumMismatch:
			parts := make([]string, len(ve.Mismatches))
			for i, m := range ve.Mismatches {
				parts[i] = m.Weekday.Abbrev() + " " + timesheet.FormatValue(m.Sum)
			}
			return "Le total de chaque jour doit faire 1: " + strings.Join(parts, ", ")
		}
	}
	switch timesheet.KindOf(err) {
	case timesheet.KindUnauthenticated:
		return "Session expirée, reconnectez-vous"
	case timesheet.KindStoreUnavailable:
		return "Enregistrement impossible, réessayez"
	}
	return err.Error()
}

// --- View ---

func cell(s string, width int, style lipgloss.Style) string {
	return style.Width(width).Render(truncate(s, width-1))
}

func classLabel(c timesheet.Classification) string {
	switch c {
	case timesheet.Present:
		return "Présent"
	case timesheet.Absent:
		return "Absent"
	}
	return ""
}

func (w weekModel) view() string {
	pw := w.width - 4
	if !w.loaded {
		return panelStyle.Width(pw).Render(mutedStyle.Render("Chargement..."))
	}
	if w.formActive && w.form != nil {
		return panelStyle.Width(pw).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(w.draft.Week.Label()), "", w.form.View()),
		)
	}

	title := titleStyle.Render(w.draft.Week.Label())
	if w.draft.Editing {
		title += "  " + warningStyle.Render("· modification")
	}

	rows := []string{title, "", w.renderHeader()}
	if w.draft.Len() == 0 {
		rows = append(rows, mutedStyle.Render("  Aucune ligne. n: ajouter une ligne  e: modifier la semaine enregistrée"))
	}
	for i := 0; i < w.draft.Len(); i++ {
		rows = append(rows, w.renderRow(i))
	}
	rows = append(rows,
		w.renderTotals(),
		w.renderFlags("Télétravail", w.draft.Telework),
		w.renderFlags("Ticket resto", w.draft.Restaurant),
		"",
		w.renderSaved(),
	)
	return panelStyle.Width(pw).Render(strings.Join(rows, "\n"))
}

func (w weekModel) renderHeader() string {
	parts := []string{
		cell("Type", widthType, gridHeaderStyle),
		cell("Client", widthClient, gridHeaderStyle),
		cell("Activité", widthActivity, gridHeaderStyle),
	}
	dates := w.draft.Week.Dates()
	for _, d := range timesheet.Weekdays {
		label := fmt.Sprintf("%s %02d", d.Abbrev(), dates[d].Day())
		style := gridHeaderStyle
		if d.IsWeekend() {
			style = weekendStyle
		}
		parts = append(parts, cell(label, widthDay, style))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (w weekModel) renderRow(i int) string {
	r, _ := w.draft.Row(i)
	texts := []string{classLabel(r.Classification), r.Client, r.Activity}
	widths := []int{widthType, widthClient, widthActivity}
	for _, d := range timesheet.Weekdays {
		v, _ := r.Value(d)
		texts = append(texts, formatDays(v))
		widths = append(widths, widthDay)
	}

	parts := make([]string, len(texts))
	for col, text := range texts {
		style := cellStyle
		if i == w.row && col == w.col {
			style = cursorCellStyle
			if w.inputActive {
				text = w.input + "_"
			}
		}
		if text == "" && col < colFirstDay {
			text = "-"
		}
		parts[col] = cell(text, widths[col], style)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (w weekModel) renderTotals() string {
	parts := []string{cell("Total", widthType+widthClient+widthActivity, subtitleStyle)}
	for _, v := range w.draft.Totals() {
		style := mutedStyle
		text := "-"
		switch {
		case v == 0:
		case v > 0.99 && v < 1.01:
			style, text = successStyle, formatDays(v)
		default:
			style, text = warningStyle, formatDays(v)
		}
		parts = append(parts, cell(text, widthDay, style))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (w weekModel) renderFlags(label string, set [7]bool) string {
	parts := []string{cell(label, widthType+widthClient+widthActivity, subtitleStyle)}
	for _, on := range set {
		if on {
			parts = append(parts, cell("●", widthDay, highlightStyle))
		} else {
			parts = append(parts, cell("·", widthDay, mutedStyle))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderSaved summarises what is stored for the week, day by day.
func (w weekModel) renderSaved() string {
	v := w.draft.View()
	parts := []string{cell(fmt.Sprintf("Enregistré %d/7", v.FilledDays), widthType+widthClient+widthActivity, subtitleStyle)}
	for _, d := range v.Days {
		text := formatDays(d.PresentTotal)
		if d.Record.Absence.Type != store.AbsencePresent {
			text = truncate(string(d.Record.Absence.Type), widthDay-1)
		}
		if text == "" {
			text = "-"
		}
		parts = append(parts, cell(text, widthDay, mutedStyle))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
