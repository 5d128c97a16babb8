package views

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/taskman/internal/model"
	"github.com/dori/taskman/internal/store"
)

// storeTimeout bounds every store call made from a screen
const storeTimeout = 5 * time.Second

// Screen identifies one of the app's screens
type Screen int

const (
	ScreenRegister Screen = iota
	ScreenLogin
	ScreenMain
	ScreenTasks
	ScreenAddTask
	ScreenTaskDetails
)

// String returns the display name for a screen
func (s Screen) String() string {
	switch s {
	case ScreenRegister:
		return "Register"
	case ScreenLogin:
		return "Login"
	case ScreenMain:
		return "Main"
	case ScreenTasks:
		return "Tasks"
	case ScreenAddTask:
		return "Add Task"
	case ScreenTaskDetails:
		return "Task Details"
	default:
		return "Unknown"
	}
}

// NavigateMsg asks the root model to switch screens.
// Task is set when opening TaskDetails.
// (Defined here to avoid circular import with ui package)
type NavigateMsg struct {
	Screen Screen
	Task   *model.Task
}

// AlertMsg asks the root model to show a blocking alert
type AlertMsg struct {
	Title   string
	Body    string
	IsError bool
}

// Navigate returns a command that switches to screen
func Navigate(screen Screen, task *model.Task) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen, Task: task}
	}
}

// Alert returns a command that shows an informational alert
func Alert(title, body string) tea.Cmd {
	return func() tea.Msg {
		return AlertMsg{Title: title, Body: body}
	}
}

// AlertError returns a command that shows err as a blocking error alert
func AlertError(err error) tea.Cmd {
	return func() tea.Msg {
		return AlertMsg{Title: "Error", Body: ErrorText(err), IsError: true}
	}
}

// AlertFailure returns a command that shows body as a blocking error alert
func AlertFailure(body string) tea.Cmd {
	return func() tea.Msg {
		return AlertMsg{Title: "Error", Body: body, IsError: true}
	}
}

// ErrorText turns a store or model error into the message shown to the user
func ErrorText(err error) string {
	var de *store.DeserializationError
	switch {
	case errors.Is(err, model.ErrEmptyInput):
		return "Input cannot be empty"
	case errors.Is(err, store.ErrUsernameTaken):
		return "Username already exists"
	case errors.Is(err, store.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task no longer exists"
	case errors.As(err, &de):
		return "Stored " + de.Key + " are damaged: " + de.Err.Error()
	default:
		return "An error occurred: " + err.Error()
	}
}

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}
