package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/taskman/internal/model"
	"github.com/dori/taskman/internal/store"
	"github.com/dori/taskman/internal/ui/theme"
)

// EmptyTaskText is shown when saving a task with blank text
const EmptyTaskText = "Task text cannot be empty"

type taskSavedMsg struct {
	task model.Task
	err  error
}

// AddTaskView collects the text for a new task
type AddTaskView struct {
	tasks  *store.TaskStore
	input  textarea.Model
	saving bool
}

// NewAddTaskView creates the add task form backed by tasks
func NewAddTaskView(tasks *store.TaskStore) AddTaskView {
	ta := textarea.New()
	ta.Placeholder = "Enter your task details here..."
	ta.CharLimit = 1000
	ta.ShowLineNumbers = false
	ta.SetHeight(5)

	return AddTaskView{tasks: tasks, input: ta}
}

// Reset clears and focuses the form
func (v AddTaskView) Reset() (AddTaskView, tea.Cmd) {
	v.input.Reset()
	v.saving = false
	cmd := v.input.Focus()
	return v, cmd
}

func (v AddTaskView) Init() tea.Cmd {
	return textarea.Blink
}

func (v AddTaskView) IsInputMode() bool { return true }

func (v AddTaskView) SetSize(width, height int) AddTaskView {
	v.input.SetWidth(max(width-6, 20))
	v.input.SetHeight(min(max(height-10, 3), 10))
	return v
}

// Update edits the text and saves it on ctrl+s
func (v AddTaskView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskSavedMsg:
		v.saving = false
		if msg.err != nil {
			return v, AlertError(msg.err)
		}
		v.input.Reset()
		return v, Navigate(ScreenTasks, nil)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			if v.saving {
				return v, nil
			}
			text := v.input.Value()
			if strings.TrimSpace(text) == "" {
				return v, AlertFailure(EmptyTaskText)
			}
			v.saving = true
			return v, v.save(text)
		case "esc":
			v.input.Reset()
			return v, Navigate(ScreenTasks, nil)
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v AddTaskView) save(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		task, err := v.tasks.Add(ctx, text)
		return taskSavedMsg{task: task, err: err}
	}
}

// View renders the form
func (v AddTaskView) View() string {
	styles := theme.Current.Styles

	var b strings.Builder
	b.WriteString(styles.Title.Render("Add new Task"))
	b.WriteString("\n")
	b.WriteString(styles.InputFocused.Render(v.input.View()))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpKey.Render("ctrl+s"))
	b.WriteString(styles.HelpDesc.Render(" save task  "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" cancel"))
	return b.String()
}
