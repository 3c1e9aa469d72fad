package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NewRow       key.Binding
	DeleteRow    key.Binding
	Edit         key.Binding
	Submit       key.Binding
	Telework     key.Binding
	Restaurant   key.Binding
	Prev         key.Binding
	Next         key.Binding
	ToggleActive key.Binding
	ToggleRole   key.Binding
	NewAccount   key.Binding
	Export       key.Binding
	SwitchForm   key.Binding
	Tab1         key.Binding
	Tab2         key.Binding
	Tab3         key.Binding
	Tab4         key.Binding
	Tab          key.Binding
	Help         key.Binding
	Enter        key.Binding
	Back         key.Binding
	Up           key.Binding
	Down         key.Binding
	Left         key.Binding
	Right        key.Binding
	Quit         key.Binding
}

var keys = keyMap{
	NewRow: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "ligne"),
	),
	DeleteRow: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "supprimer"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "modifier"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "enregistrer"),
	),
	Telework: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "télétravail"),
	),
	Restaurant: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "ticket resto"),
	),
	Prev: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "précédent"),
	),
	Next: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "suivant"),
	),
	ToggleActive: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "activer/désactiver"),
	),
	ToggleRole: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rôle"),
	),
	NewAccount: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "nouveau compte"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	SwitchForm: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("ctrl+n", "connexion/inscription"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "onglet 1"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "onglet 2"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "onglet 3"),
	),
	Tab4: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "onglet 4"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "onglet suivant"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "aide"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "choisir"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "annuler"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "haut"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "bas"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "gauche"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "droite"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quitter"),
	),
}

// viewKeys is the help for one view; it satisfies help.KeyMap.
type viewKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k viewKeys) ShortHelp() []key.Binding  { return k.short }
func (k viewKeys) FullHelp() [][]key.Binding { return k.full }

func helpFor(v viewState, signedIn bool) viewKeys {
	nav := []key.Binding{keys.Tab, keys.Tab1, keys.Tab2, keys.Tab3, keys.Tab4, keys.Help, keys.Quit}
	if !signedIn {
		return viewKeys{
			short: []key.Binding{keys.SwitchForm, keys.Enter},
			full:  [][]key.Binding{{keys.SwitchForm, keys.Enter}},
		}
	}
	switch v {
	case viewWeek:
		return viewKeys{
			short: []key.Binding{keys.NewRow, keys.Edit, keys.Submit, keys.Prev, keys.Next, keys.Help},
			full: [][]key.Binding{
				{keys.Up, keys.Down, keys.Left, keys.Right, keys.Enter},
				{keys.NewRow, keys.DeleteRow, keys.Telework, keys.Restaurant},
				{keys.Edit, keys.Back, keys.Submit, keys.Prev, keys.Next},
				nav,
			},
		}
	case viewMonth, viewReports:
		return viewKeys{
			short: []key.Binding{keys.Prev, keys.Next, keys.Tab, keys.Help, keys.Quit},
			full:  [][]key.Binding{{keys.Prev, keys.Next}, nav},
		}
	case viewEmployees:
		return viewKeys{
			short: []key.Binding{keys.ToggleActive, keys.ToggleRole, keys.NewAccount, keys.Export, keys.Help},
			full: [][]key.Binding{
				{keys.Up, keys.Down, keys.ToggleActive, keys.ToggleRole},
				{keys.NewAccount, keys.Export},
				nav,
			},
		}
	}
	return viewKeys{
		short: []key.Binding{keys.Enter, keys.Tab, keys.Help, keys.Quit},
		full:  [][]key.Binding{{keys.Enter}, nav},
	}
}
