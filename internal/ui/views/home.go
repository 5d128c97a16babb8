package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/taskman/internal/store"
	"github.com/dori/taskman/internal/ui/theme"
)

type homeItem struct {
	label  string
	hotkey string
}

var homeItems = []homeItem{
	{label: "Tasks", hotkey: "t"},
	{label: "Logout", hotkey: "l"},
}

// HomeView is the landing screen after registration
type HomeView struct {
	session  *store.SessionStore
	username string
	cursor   int
	width    int
}

type sessionLoadedMsg struct {
	username string
	err      error
}

type signedOutMsg struct {
	err error
}

func NewHomeView(session *store.SessionStore) HomeView {
	return HomeView{session: session}
}

// Init reads the signed-in user for the greeting
func (v HomeView) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		user, _, err := v.session.Current(ctx)
		return sessionLoadedMsg{username: user, err: err}
	}
}

func (v HomeView) IsInputMode() bool { return false }

func (v HomeView) SetSize(width, height int) HomeView {
	v.width = width
	return v
}

func (v HomeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionLoadedMsg:
		if msg.err != nil {
			return v, AlertError(msg.err)
		}
		v.username = msg.username
		return v, nil

	case signedOutMsg:
		if msg.err != nil {
			return v, AlertError(msg.err)
		}
		v.username = ""
		v.cursor = 0
		return v, Navigate(ScreenLogin, nil)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.cursor > 0 {
				v.cursor--
			}
		case "down", "j":
			if v.cursor < len(homeItems)-1 {
				v.cursor++
			}
		case "enter", " ":
			return v, v.activate(v.cursor)
		default:
			for i, item := range homeItems {
				if msg.String() == item.hotkey {
					return v, v.activate(i)
				}
			}
		}
	}
	return v, nil
}

func (v HomeView) activate(i int) tea.Cmd {
	switch homeItems[i].label {
	case "Tasks":
		return Navigate(ScreenTasks, nil)
	case "Logout":
		return v.signOut()
	}
	return nil
}

func (v HomeView) signOut() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		return signedOutMsg{err: v.session.SignOut(ctx)}
	}
}

func (v HomeView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder
	greeting := "Welcome to the Task Manager!"
	if v.username != "" {
		greeting = fmt.Sprintf("Welcome to the Task Manager, %s!", v.username)
	}
	b.WriteString(styles.Title.Render(greeting))
	b.WriteString("\n")

	for i, item := range homeItems {
		style := lipgloss.NewStyle().Padding(0, 2).Foreground(t.Foreground)
		prefix := "  "
		if i == v.cursor {
			style = style.Background(t.Highlight).Foreground(t.Primary).Bold(true)
			prefix = "> "
		}
		b.WriteString(style.Render(prefix + item.label))
		b.WriteString(styles.HelpDesc.Render(" (" + item.hotkey + ")"))
		b.WriteString("\n")
	}

	return styles.Panel.Render(b.String())
}
