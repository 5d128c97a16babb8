package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/taskman/internal/store"
	"github.com/dori/taskman/internal/ui/theme"
)

// credentialForm is the username/password pair shared by Register and Login
type credentialForm struct {
	title    string
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	width    int
}

func newCredentialForm(title string) credentialForm {
	u := textinput.New()
	u.Placeholder = "Username"
	u.CharLimit = 64
	u.Prompt = ""
	u.Focus()

	p := textinput.New()
	p.Placeholder = "Password"
	p.CharLimit = 128
	p.Prompt = ""
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	return credentialForm{title: title, username: u, password: p}
}

func (f credentialForm) values() (string, string) {
	return f.username.Value(), f.password.Value()
}

// blank reports whether either field is empty after trimming
func (f credentialForm) blank() bool {
	u, p := f.values()
	return strings.TrimSpace(u) == "" || strings.TrimSpace(p) == ""
}

func (f credentialForm) reset() credentialForm {
	f.username.SetValue("")
	f.password.SetValue("")
	f.focus = 0
	f.username.Focus()
	f.password.Blur()
	return f
}

func (f credentialForm) setFocus(i int) credentialForm {
	f.focus = i
	if i == 0 {
		f.username.Focus()
		f.password.Blur()
	} else {
		f.password.Focus()
		f.username.Blur()
	}
	return f
}

// update moves focus between fields and feeds keys to the focused input.
// submit is true when enter is pressed on the password field.
func (f credentialForm) update(msg tea.Msg) (credentialForm, tea.Cmd, bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab", "up", "down":
			return f.setFocus((f.focus + 1) % 2), nil, false
		case "enter":
			if f.focus == 0 {
				return f.setFocus(1), nil, false
			}
			return f, nil, true
		}
	}

	var cmd tea.Cmd
	if f.focus == 0 {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd, false
}

func (f credentialForm) view(submitLabel, footer string) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	fieldWidth := 40
	if f.width > 0 && f.width-8 < fieldWidth {
		fieldWidth = max(f.width-8, 10)
	}

	field := func(label string, input textinput.Model, focused bool) string {
		style := styles.Input
		if focused {
			style = styles.InputFocused
		}
		return styles.Label.Render(label) + "\n" + style.Width(fieldWidth).Render(input.View())
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(f.title))
	b.WriteString("\n")
	b.WriteString(field("Username", f.username, f.focus == 0))
	b.WriteString("\n")
	b.WriteString(field("Password", f.password, f.focus == 1))
	b.WriteString("\n\n")

	button := lipgloss.NewStyle().
		Foreground(t.Background).
		Background(t.Primary).
		Bold(true).
		Padding(0, 2)
	if f.busy {
		button = button.Background(t.Subtle)
	}
	b.WriteString(button.Render(submitLabel))
	if footer != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(t.Subtle).Render(footer))
	}

	return styles.Panel.Render(b.String())
}

// RegisterView creates an account and signs it in
type RegisterView struct {
	users   *store.CredentialStore
	session *store.SessionStore
	form    credentialForm
}

type registeredMsg struct {
	username string
	err      error
}

func NewRegisterView(users *store.CredentialStore, session *store.SessionStore) RegisterView {
	return RegisterView{
		users:   users,
		session: session,
		form:    newCredentialForm("Register"),
	}
}

func (v RegisterView) Init() tea.Cmd {
	return textinput.Blink
}

// IsInputMode is always true: every key belongs to a text field
func (v RegisterView) IsInputMode() bool { return true }

func (v RegisterView) SetSize(width, height int) RegisterView {
	v.form.width = width
	return v
}

func (v RegisterView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case registeredMsg:
		v.form.busy = false
		if msg.err != nil {
			return v, AlertError(msg.err)
		}
		v.form = v.form.reset()
		return v, tea.Sequence(
			Alert("Success", "User registered successfully"),
			Navigate(ScreenMain, nil),
		)

	case tea.KeyMsg:
		if msg.String() == "ctrl+l" {
			return v, Navigate(ScreenLogin, nil)
		}
	}

	form, cmd, submit := v.form.update(msg)
	v.form = form
	if !submit || v.form.busy {
		return v, cmd
	}
	if v.form.blank() {
		return v, AlertFailure("Username and password are required")
	}
	v.form.busy = true
	return v, v.register()
}

func (v RegisterView) register() tea.Cmd {
	username, password := v.form.values()
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		if err := v.users.Register(ctx, username, password); err != nil {
			return registeredMsg{err: err}
		}
		if err := v.session.SignIn(ctx, username); err != nil {
			return registeredMsg{err: err}
		}
		return registeredMsg{username: username}
	}
}

func (v RegisterView) View() string {
	return v.form.view("Register", "enter next/submit • tab switch field • ctrl+l go to login")
}

// LoginView checks credentials against registered users
type LoginView struct {
	users   *store.CredentialStore
	session *store.SessionStore
	form    credentialForm
}

type loggedInMsg struct {
	username string
	err      error
}

func NewLoginView(users *store.CredentialStore, session *store.SessionStore) LoginView {
	return LoginView{
		users:   users,
		session: session,
		form:    newCredentialForm("Login"),
	}
}

func (v LoginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v LoginView) IsInputMode() bool { return true }

func (v LoginView) SetSize(width, height int) LoginView {
	v.form.width = width
	return v
}

func (v LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loggedInMsg:
		v.form.busy = false
		if msg.err != nil {
			return v, AlertError(msg.err)
		}
		v.form = v.form.reset()
		return v, tea.Sequence(
			Alert("Success", "Login successful"),
			Navigate(ScreenTasks, nil),
		)

	case tea.KeyMsg:
		if msg.String() == "ctrl+r" {
			return v, Navigate(ScreenRegister, nil)
		}
	}

	form, cmd, submit := v.form.update(msg)
	v.form = form
	if !submit || v.form.busy {
		return v, cmd
	}
	if v.form.blank() {
		return v, AlertFailure("Username and password are required")
	}
	v.form.busy = true
	return v, v.login()
}

func (v LoginView) login() tea.Cmd {
	username, password := v.form.values()
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()

		if err := v.users.Authenticate(ctx, username, password); err != nil {
			return loggedInMsg{err: err}
		}
		if err := v.session.SignIn(ctx, username); err != nil {
			return loggedInMsg{err: err}
		}
		return loggedInMsg{username: username}
	}
}

func (v LoginView) View() string {
	return v.form.view("Login", "enter next/submit • tab switch field • ctrl+r register")
}
