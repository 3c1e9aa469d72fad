package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/suivi/internal/auth"
	"github.com/sadopc/suivi/internal/store"
)

type loginMode int

const (
	modeSignIn loginMode = iota
	modeRegister
)

// loginModel is shown until an account signs in.
type loginModel struct {
	auth      *auth.Service
	positions []string
	width     int
	height    int

	mode loginMode
	form *huh.Form
	err  string

	// Form values as pointers (survive value copies)
	email     *string
	password  *string
	confirm   *string
	firstName *string
	lastName  *string
	position  *string
}

func newLoginModel(a *auth.Service, positions []string) loginModel {
	email, pw, confirm, first, last, pos := "", "", "", "", "", ""
	m := loginModel{
		auth:      a,
		positions: positions,
		email:     &email,
		password:  &pw,
		confirm:   &confirm,
		firstName: &first,
		lastName:  &last,
		position:  &pos,
	}
	m.form = m.buildForm()
	return m
}

func (m *loginModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m loginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m loginModel) buildForm() *huh.Form {
	if m.mode == modeSignIn {
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Email").Value(m.email),
				huh.NewInput().Title("Mot de passe").EchoMode(huh.EchoModePassword).Value(m.password),
			).Title("Connexion"),
		).WithShowHelp(true).WithShowErrors(true)
	}

	opts := make([]huh.Option[string], len(m.positions))
	for i, p := range m.positions {
		opts[i] = huh.NewOption(p, p)
	}
	if *m.position == "" && len(m.positions) > 0 {
		*m.position = m.positions[0]
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(m.email),
			huh.NewInput().Title("Mot de passe").EchoMode(huh.EchoModePassword).Value(m.password),
			huh.NewInput().Title("Confirmation").EchoMode(huh.EchoModePassword).Value(m.confirm),
		).Title("Inscription"),
		huh.NewGroup(
			huh.NewInput().Title("Prénom").Value(m.firstName),
			huh.NewInput().Title("Nom").Value(m.lastName),
			huh.NewSelect[string]().Title("Poste").Options(opts...).Value(m.position),
		).Title("Profil"),
	).WithShowHelp(true).WithShowErrors(true)
}

// switchMode toggles between sign-in and registration, keeping the email.
func (m loginModel) switchMode() (loginModel, tea.Cmd) {
	if m.mode == modeSignIn {
		m.mode = modeRegister
	} else {
		m.mode = modeSignIn
	}
	*m.password, *m.confirm = "", ""
	m.err = ""
	m.form = m.buildForm()
	return m, m.form.Init()
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.SwitchForm) {
		return m.switchMode()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}
	return m, cmd
}

// submit runs the pending sign-in or registration. On failure the form is
// rebuilt with the error shown above it.
func (m loginModel) submit() (loginModel, tea.Cmd) {
	var (
		u   *store.User
		err error
	)
	if m.mode == modeSignIn {
		u, err = m.auth.SignIn(*m.email, *m.password)
	} else {
		u, err = m.auth.Register(auth.RegisterInput{
			Email:           *m.email,
			Password:        *m.password,
			ConfirmPassword: *m.confirm,
			FirstName:       *m.firstName,
			LastName:        *m.lastName,
			Position:        *m.position,
		})
	}
	if err != nil {
		m.err = loginError(err)
		*m.password, *m.confirm = "", ""
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	*m.password, *m.confirm = "", ""
	m.err = ""
	return m, func() tea.Msg { return signedInMsg{user: u} }
}

func loginError(err error) string {
	var ie *auth.InputError
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Email ou mot de passe incorrect"
	case errors.Is(err, auth.ErrAccountDisabled):
		return "Ce compte est désactivé"
	case errors.Is(err, auth.ErrPasswordMismatch):
		return "Les mots de passe ne correspondent pas"
	case errors.Is(err, store.ErrEmailTaken):
		return "Cet email est déjà utilisé"
	case errors.As(err, &ie):
		for _, field := range []string{"email", "password", "firstName", "lastName", "position"} {
			if msg, ok := ie.Fields[field]; ok {
				return field + ": " + msg
			}
		}
	}
	return err.Error()
}

func (m loginModel) view() string {
	title := titleStyle.Render("suivi · connexion")
	if m.mode == modeRegister {
		title = titleStyle.Render("suivi · inscription")
	}
	rows := []string{title, ""}
	if m.err != "" {
		rows = append(rows, errorStyle.Render(m.err), "")
	}
	rows = append(rows, m.form.View(), "", mutedStyle.Render("ctrl+n: connexion/inscription  ctrl+c: quitter"))

	w := min(m.width-4, 72)
	return activePanelStyle.Width(max(w, 40)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
