package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/suivi/internal/auth"
	"github.com/sadopc/suivi/internal/store"
)

// employeesModel is the admin roster of every account.
type employeesModel struct {
	store     *store.Store
	auth      *auth.Service
	positions []string
	selfID    string
	width     int
	height    int

	users  []store.User
	cursor int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formEmail    *string
	formPassword *string
	formFirst    *string
	formLast     *string
	formPosition *string
	formAdmin    *bool
}

func newEmployeesModel(s *store.Store, a *auth.Service, positions []string) employeesModel {
	email, pw, first, last, pos, admin := "", "", "", "", "", false
	return employeesModel{
		store:        s,
		auth:         a,
		positions:    positions,
		formEmail:    &email,
		formPassword: &pw,
		formFirst:    &first,
		formLast:     &last,
		formPosition: &pos,
		formAdmin:    &admin,
	}
}

func (e *employeesModel) setSize(w, h int) {
	e.width = w
	e.height = h
}

type usersDataMsg struct {
	users []store.User
}

func (e employeesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		users, err := e.store.ListUsers()
		if err != nil {
			return statusMsg{text: "Chargement impossible: " + err.Error(), isError: true}
		}
		return usersDataMsg{users: users}
	}
}

func (e employeesModel) update(msg tea.Msg) (employeesModel, tea.Cmd) {
	if e.formActive && e.form != nil {
		return e.updateForm(msg)
	}

	switch msg := msg.(type) {
	case usersDataMsg:
		e.users = msg.users
		if e.cursor >= len(e.users) {
			e.cursor = max(0, len(e.users)-1)
		}
		return e, nil

	case tea.KeyMsg:
		return e.updateList(msg)
	}
	return e, nil
}

func (e employeesModel) updateList(msg tea.KeyMsg) (employeesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if e.cursor > 0 {
			e.cursor--
		}
	case key.Matches(msg, keys.Down):
		if e.cursor < len(e.users)-1 {
			e.cursor++
		}
	case key.Matches(msg, keys.ToggleActive):
		if len(e.users) == 0 {
			return e, nil
		}
		u := e.users[e.cursor]
		if u.ID == e.selfID && u.IsActive {
			return e, statusCmd("Impossible de désactiver votre propre compte", true)
		}
		if err := e.store.SetUserActive(u.ID, !u.IsActive); err != nil {
			return e, statusCmd(err.Error(), true)
		}
		return e, e.refresh()
	case key.Matches(msg, keys.ToggleRole):
		if len(e.users) == 0 {
			return e, nil
		}
		u := e.users[e.cursor]
		if u.ID == e.selfID {
			return e, statusCmd("Impossible de modifier votre propre rôle", true)
		}
		role := store.RoleAdmin
		if u.IsAdmin() {
			role = store.RoleEmployee
		}
		if err := e.store.SetUserRole(u.ID, role); err != nil {
			return e, statusCmd(err.Error(), true)
		}
		return e, e.refresh()
	case key.Matches(msg, keys.NewAccount):
		return e.showNewAccountForm()
	}
	return e, nil
}

func (e employeesModel) showNewAccountForm() (employeesModel, tea.Cmd) {
	*e.formEmail, *e.formPassword, *e.formFirst, *e.formLast = "", "", "", ""
	*e.formAdmin = false
	if len(e.positions) > 0 {
		*e.formPosition = e.positions[0]
	}

	e.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(e.formEmail),
			huh.NewInput().Title("Mot de passe").EchoMode(huh.EchoModePassword).Value(e.formPassword),
			huh.NewInput().Title("Prénom").Value(e.formFirst),
			huh.NewInput().Title("Nom").Value(e.formLast),
			huh.NewSelect[string]().Title("Poste").Options(huh.NewOptions(e.positions...)...).Value(e.formPosition),
			huh.NewConfirm().Title("Administrateur ?").Value(e.formAdmin),
		),
	).WithShowHelp(true).WithShowErrors(true)

	e.formActive = true
	return e, e.form.Init()
}

func (e employeesModel) updateForm(msg tea.Msg) (employeesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			e.formActive = false
			e.form = nil
			return e, nil
		}
	}

	form, cmd := e.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		e.form = f
	}

	if e.form.State == huh.StateCompleted {
		e.formActive = false
		return e.createAccount()
	}
	return e, cmd
}

func (e employeesModel) createAccount() (employeesModel, tea.Cmd) {
	role := store.RoleEmployee
	if *e.formAdmin {
		role = store.RoleAdmin
	}
	u, err := e.auth.CreateAccount(store.User{
		Email:     *e.formEmail,
		FirstName: strings.TrimSpace(*e.formFirst),
		LastName:  strings.TrimSpace(*e.formLast),
		Position:  *e.formPosition,
		Role:      role,
	}, *e.formPassword)
	*e.formPassword = ""
	if err != nil {
		return e, statusCmd("Compte non créé: "+loginError(err), true)
	}
	return e, tea.Batch(e.refresh(), statusCmd("Compte créé: "+u.Email, false))
}

func (e employeesModel) view() string {
	w := e.width - 4
	if e.formActive && e.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Nouveau compte"), "", e.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Collaborateurs")
	if len(e.users) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("Aucun compte. n: créer un compte"),
		))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-26s %-30s %-20s %-10s %s", "Nom", "Email", "Poste", "Rôle", "Statut")))
	for i, u := range e.users {
		cursor := "  "
		style := normalItemStyle
		if i == e.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		status := successStyle.Render("actif")
		if !u.IsActive {
			status = errorStyle.Render("désactivé")
		}
		line := fmt.Sprintf("%s%-26s %-30s %-20s %-10s ", cursor,
			truncate(u.FullName(), 26), truncate(u.Email, 30), truncate(u.Position, 20), roleLabel(u.Role))
		rows = append(rows, style.Render(line)+status)
	}
	rows = append(rows, "", mutedStyle.Render("  a: activer/désactiver  r: rôle  n: nouveau compte  e: export"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func roleLabel(r store.Role) string {
	if r == store.RoleAdmin {
		return "admin"
	}
	return "employé"
}
