package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dori/taskman/internal/app"
	"github.com/dori/taskman/internal/logger"
	"github.com/dori/taskman/internal/ui/theme"
	"github.com/dori/taskman/internal/ui/views"
)

// alert is a blocking message; any key dismisses it
type alert struct {
	title   string
	body    string
	isError bool
}

// RootModel is the main application model that routes between screens
type RootModel struct {
	app    *app.App
	keys   KeyMap
	help   help.Model
	width  int
	height int

	screen      views.Screen
	register    views.RegisterView
	login       views.LoginView
	home        views.HomeView
	tasks       views.TasksView
	addTask     views.AddTaskView
	taskDetails views.TaskDetailsView
	helpVisible bool

	alert     *alert
	statusMsg string
}

// NewRootModel creates the root model. Users with a live session start on
// the main screen, everyone else on registration.
func NewRootModel(application *app.App) RootModel {
	h := help.New()
	h.ShowAll = true

	if t, ok := theme.ByName(application.Config.Theme); ok {
		theme.SetTheme(t)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := views.ScreenRegister
	if _, ok := application.SignedIn(ctx); ok {
		start = views.ScreenMain
	}

	return RootModel{
		app:         application,
		keys:        DefaultKeyMap(),
		help:        h,
		screen:      start,
		register:    views.NewRegisterView(application.Users, application.Session),
		login:       views.NewLoginView(application.Users, application.Session),
		home:        views.NewHomeView(application.Session),
		tasks:       views.NewTasksView(application.Tasks, application.Config.Sort()),
		addTask:     views.NewAddTaskView(application.Tasks),
		taskDetails: views.NewTaskDetailsView(application.Tasks),
	}
}

// Screen returns the active screen
func (m RootModel) Screen() views.Screen {
	return m.screen
}

// Init initializes the starting screen
func (m RootModel) Init() tea.Cmd {
	return m.initScreen()
}

func (m RootModel) initScreen() tea.Cmd {
	switch m.screen {
	case views.ScreenRegister:
		return m.register.Init()
	case views.ScreenLogin:
		return m.login.Init()
	case views.ScreenMain:
		return m.home.Init()
	case views.ScreenTasks:
		return m.tasks.Init()
	case views.ScreenAddTask:
		return m.addTask.Init()
	case views.ScreenTaskDetails:
		return m.taskDetails.Init()
	}
	return nil
}

func (m RootModel) isInputMode() bool {
	switch m.screen {
	case views.ScreenRegister:
		return m.register.IsInputMode()
	case views.ScreenLogin:
		return m.login.IsInputMode()
	case views.ScreenMain:
		return m.home.IsInputMode()
	case views.ScreenTasks:
		return m.tasks.IsInputMode()
	case views.ScreenAddTask:
		return m.addTask.IsInputMode()
	case views.ScreenTaskDetails:
		return m.taskDetails.IsInputMode()
	}
	return false
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header (2 lines) and footer (2 lines)
		contentHeight := m.height - 4
		m.register = m.register.SetSize(m.width, contentHeight)
		m.login = m.login.SetSize(m.width, contentHeight)
		m.home = m.home.SetSize(m.width, contentHeight)
		m.tasks = m.tasks.SetSize(m.width, contentHeight)
		m.addTask = m.addTask.SetSize(m.width, contentHeight)
		m.taskDetails = m.taskDetails.SetSize(m.width, contentHeight)
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.alert != nil {
			m.alert = nil
			return m, nil
		}
		if key.Matches(msg, m.keys.ThemeCycle) {
			m.cycleTheme()
			return m, nil
		}

		if !m.isInputMode() {
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.Help):
				m.helpVisible = !m.helpVisible
				return m, nil
			case m.helpVisible && key.Matches(msg, m.keys.Back):
				m.helpVisible = false
				return m, nil
			}
		}

	case views.AlertMsg:
		m.alert = &alert{title: msg.Title, body: msg.Body, isError: msg.IsError}
		if msg.IsError {
			logger.Warn("alert", zap.String("title", msg.Title), zap.String("body", msg.Body))
		}
		return m, m.mirrorAlert(msg)

	case views.NavigateMsg:
		return m.navigate(msg)

	case views.TaskCompletedMsg:
		m.statusMsg = fmt.Sprintf("Completed: %s", msg.Task.ShortID())
		return m, m.notifyCompleted(msg.Task.Text)
	}

	return m.delegate(msg)
}

// navigate switches screens and prepares the target screen
func (m RootModel) navigate(msg views.NavigateMsg) (tea.Model, tea.Cmd) {
	logger.Debug("navigate", zap.Stringer("from", m.screen), zap.Stringer("to", msg.Screen))
	m.screen = msg.Screen
	m.helpVisible = false

	switch msg.Screen {
	case views.ScreenAddTask:
		var cmd tea.Cmd
		m.addTask, cmd = m.addTask.Reset()
		return m, tea.Batch(cmd, m.addTask.Init())
	case views.ScreenTaskDetails:
		if msg.Task == nil {
			m.screen = views.ScreenTasks
			return m, m.tasks.Init()
		}
		m.taskDetails = m.taskDetails.SetTask(*msg.Task)
	}
	return m, m.initScreen()
}

// delegate forwards msg to the active screen
func (m RootModel) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var next tea.Model

	switch m.screen {
	case views.ScreenRegister:
		next, cmd = m.register.Update(msg)
		m.register = next.(views.RegisterView)
	case views.ScreenLogin:
		next, cmd = m.login.Update(msg)
		m.login = next.(views.LoginView)
	case views.ScreenMain:
		next, cmd = m.home.Update(msg)
		m.home = next.(views.HomeView)
	case views.ScreenTasks:
		next, cmd = m.tasks.Update(msg)
		m.tasks = next.(views.TasksView)
	case views.ScreenAddTask:
		next, cmd = m.addTask.Update(msg)
		m.addTask = next.(views.AddTaskView)
	case views.ScreenTaskDetails:
		next, cmd = m.taskDetails.Update(msg)
		m.taskDetails = next.(views.TaskDetailsView)
	}
	return m, cmd
}

// mirrorAlert forwards an alert to the desktop when notifications are on
func (m RootModel) mirrorAlert(msg views.AlertMsg) tea.Cmd {
	notifier := m.app.Notifier
	if notifier == nil || !notifier.IsEnabled() {
		return nil
	}
	return func() tea.Msg {
		if err := notifier.Alert(msg.Title, msg.Body, msg.IsError); err != nil {
			logger.Warn("desktop alert failed", zap.Error(err))
		}
		return nil
	}
}

func (m RootModel) notifyCompleted(text string) tea.Cmd {
	notifier := m.app.Notifier
	if notifier == nil || !notifier.IsEnabled() {
		return nil
	}
	return func() tea.Msg {
		if err := notifier.TaskCompleted(text); err != nil {
			logger.Warn("completion notification failed", zap.Error(err))
		}
		return nil
	}
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	// Reserve: 1 line for header + footer lines
	footer := m.renderFooter()
	contentHeight := max(m.height-1-lipgloss.Height(footer), 1)

	var content string
	switch {
	case m.alert != nil:
		content = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, m.renderAlert())
	case m.helpVisible:
		content = m.help.View(m.keys)
	default:
		content = m.screenView()
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content, footer)

	return strings.Join(sections, "\n")
}

func (m RootModel) screenView() string {
	switch m.screen {
	case views.ScreenRegister:
		return m.register.View()
	case views.ScreenLogin:
		return m.login.View()
	case views.ScreenMain:
		return m.home.View()
	case views.ScreenTasks:
		return m.tasks.View()
	case views.ScreenAddTask:
		return m.addTask.View()
	case views.ScreenTaskDetails:
		return m.taskDetails.View()
	}
	return theme.Current.Styles.Panel.Render("Unknown screen")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("taskman")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	screenIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.screen))
	themeIndicator := viewStyle.Render(fmt.Sprintf("theme: %s", t.Name))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, screenIndicator)
	gap := max(m.width-lipgloss.Width(leftSide)-lipgloss.Width(themeIndicator), 0)

	return leftSide + strings.Repeat(" ", gap) + themeIndicator
}

// renderFooter renders the status line and key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var lines []string
	if m.statusMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Info).Render(m.statusMsg))
	}

	var hints []string
	if m.alert != nil {
		hints = append(hints, styles.HelpKey.Render("any key")+styles.HelpDesc.Render(" dismiss"))
	} else {
		for _, b := range m.keys.ScreenHints(m.screen) {
			h := b.Help()
			hints = append(hints, styles.HelpKey.Render(h.Key)+styles.HelpDesc.Render(" "+h.Desc))
		}
		hints = append(hints, styles.HelpKey.Render("C-t")+styles.HelpDesc.Render(" theme"))
	}
	lines = append(lines, strings.Join(hints, styles.HelpSeparator.Render(" │ ")))

	return strings.Join(lines, "\n")
}

func (m RootModel) renderAlert() string {
	styles := theme.Current.Styles

	box, title := styles.Alert, styles.AlertTitle
	if m.alert.isError {
		box, title = styles.AlertError, styles.AlertFailed
	}

	body := title.Render(m.alert.title) + "\n\n" + m.alert.body + "\n\n" +
		styles.HelpDesc.Render("press any key")
	return box.Render(body)
}

// cycleTheme cycles through available themes
func (m *RootModel) cycleTheme() {
	next := theme.Next(theme.Current.Theme.Name)
	theme.SetTheme(next)
	m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
}
