package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/dori/taskman/internal/ui/views"
)

// KeyMap defines all keybindings for the application
type KeyMap struct {
	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Task list
	Search     key.Binding
	SortDate   key.Binding
	SortStatus key.Binding
	Toggle     key.Binding
	Details    key.Binding
	Add        key.Binding
	Delete     key.Binding
	DeleteAll  key.Binding
	Reload     key.Binding

	// Forms
	Save       key.Binding
	NextField  key.Binding
	GoLogin    key.Binding
	GoRegister key.Binding
	OpenTasks  key.Binding
	Logout     key.Binding

	// General
	ThemeCycle key.Binding
	Help       key.Binding
	Quit       key.Binding
	Back       key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),

		// Task list
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		SortDate: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort by date"),
		),
		SortStatus: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort by status"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab", " ", "x"),
			key.WithHelp("tab", "toggle done"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		DeleteAll: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete all"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),

		// Forms
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "save"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		GoLogin: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "login"),
		),
		GoRegister: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "register"),
		),
		OpenTasks: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "tasks"),
		),
		Logout: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "logout"),
		),

		// General
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Search, k.SortDate, k.SortStatus, k.Reload},
		{k.Add, k.Details, k.Toggle, k.Delete, k.DeleteAll},
		{k.Save, k.NextField, k.GoLogin, k.GoRegister},
		{k.OpenTasks, k.Logout, k.ThemeCycle, k.Back},
		{k.Help, k.Quit},
	}
}

// ScreenHints returns the footer bindings for a screen
func (k KeyMap) ScreenHints(screen views.Screen) []key.Binding {
	switch screen {
	case views.ScreenRegister:
		return []key.Binding{k.NextField, k.GoLogin}
	case views.ScreenLogin:
		return []key.Binding{k.NextField, k.GoRegister}
	case views.ScreenMain:
		return []key.Binding{k.OpenTasks, k.Logout, k.Quit}
	case views.ScreenTasks:
		return []key.Binding{k.Add, k.Toggle, k.Details, k.Search, k.SortDate, k.SortStatus, k.Delete, k.Help}
	case views.ScreenAddTask, views.ScreenTaskDetails:
		return []key.Binding{k.Save, k.Back}
	}
	return k.ShortHelp()
}
