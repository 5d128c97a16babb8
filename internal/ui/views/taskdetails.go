package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/taskman/internal/model"
	"github.com/dori/taskman/internal/store"
	"github.com/dori/taskman/internal/tasklist"
	"github.com/dori/taskman/internal/ui/theme"
)

type detailsFocus int

const (
	focusText detailsFocus = iota
	focusCompleted
)

// TaskDetailsView edits the text and completion of one task
type TaskDetailsView struct {
	tasks     *store.TaskStore
	task      model.Task
	input     textarea.Model
	completed bool
	focus     detailsFocus
	saving    bool
}

func NewTaskDetailsView(tasks *store.TaskStore) TaskDetailsView {
	ta := textarea.New()
	ta.CharLimit = 1000
	ta.ShowLineNumbers = false
	ta.SetHeight(5)

	return TaskDetailsView{tasks: tasks, input: ta}
}

// SetTask loads task into the form
func (v TaskDetailsView) SetTask(task model.Task) TaskDetailsView {
	v.task = task
	v.completed = task.Completed
	v.input.SetValue(task.Text)
	v.focus = focusText
	v.saving = false
	v.input.Focus()
	return v
}

func (v TaskDetailsView) Init() tea.Cmd {
	return textarea.Blink
}

// IsInputMode is true while the text area has focus
func (v TaskDetailsView) IsInputMode() bool {
	return v.focus == focusText
}

func (v TaskDetailsView) SetSize(width, height int) TaskDetailsView {
	v.input.SetWidth(max(width-6, 20))
	v.input.SetHeight(min(max(height-12, 3), 10))
	return v
}

func (v TaskDetailsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskSavedMsg:
		v.saving = false
		if msg.err != nil {
			return v, AlertError(msg.err)
		}
		return v, Navigate(ScreenTasks, nil)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			return v.submit()
		case "esc":
			return v, Navigate(ScreenTasks, nil)
		case "tab", "shift+tab":
			if v.focus == focusText {
				v.focus = focusCompleted
				v.input.Blur()
				return v, nil
			}
			v.focus = focusText
			cmd := v.input.Focus()
			return v, cmd
		}

		if v.focus == focusCompleted {
			switch msg.String() {
			case " ", "x", "enter":
				v.completed = !v.completed
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v TaskDetailsView) submit() (tea.Model, tea.Cmd) {
	if v.saving {
		return v, nil
	}
	text := v.input.Value()
	if strings.TrimSpace(text) == "" {
		return v, AlertFailure(EmptyTaskText)
	}

	updated := v.task.WithText(text)
	updated.Completed = v.completed
	v.saving = true
	return v, func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		return taskSavedMsg{task: updated, err: v.tasks.Update(ctx, updated)}
	}
}

func (v TaskDetailsView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder
	b.WriteString(styles.Title.Render("Change your task:"))
	b.WriteString("\n")

	inputStyle := styles.Input
	if v.focus == focusText {
		inputStyle = styles.InputFocused
	}
	b.WriteString(inputStyle.Render(v.input.View()))
	b.WriteString("\n\n")

	checkbox := "[ ]"
	if v.completed {
		checkbox = "[x]"
	}
	checkStyle := lipgloss.NewStyle().Foreground(t.Foreground)
	if v.focus == focusCompleted {
		checkStyle = checkStyle.Background(t.Highlight).Foreground(t.Primary).Bold(true)
	}
	b.WriteString(styles.Label.Render("Completed: "))
	b.WriteString(checkStyle.Render(checkbox))
	b.WriteString("\n")

	if at, ok := tasklist.CreatedAt(v.task); ok {
		b.WriteString(styles.Label.Render("Created: " + at.Local().Format("2006-01-02 15:04")))
		b.WriteString("\n")
	}
	b.WriteString(styles.Label.Render("ID: " + v.task.ShortID()))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpKey.Render("ctrl+s"))
	b.WriteString(styles.HelpDesc.Render(" save  "))
	b.WriteString(styles.HelpKey.Render("tab"))
	b.WriteString(styles.HelpDesc.Render(" switch field  "))
	b.WriteString(styles.HelpKey.Render("space"))
	b.WriteString(styles.HelpDesc.Render(" toggle completed  "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" back"))
	return b.String()
}
