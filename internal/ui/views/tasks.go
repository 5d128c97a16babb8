package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dori/taskman/internal/logger"
	"github.com/dori/taskman/internal/model"
	"github.com/dori/taskman/internal/store"
	"github.com/dori/taskman/internal/tasklist"
	"github.com/dori/taskman/internal/ui/theme"
)

// TasksMode represents the current input mode of the tasks view
type TasksMode int

const (
	TasksModeNormal TasksMode = iota
	TasksModeSearch
	TasksModeConfirmDelete
	TasksModeConfirmDeleteAll
)

// TaskCompletedMsg is emitted after a task is checked off
type TaskCompletedMsg struct {
	Task model.Task
}

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type taskToggledMsg struct {
	task model.Task
	err  error
}

type tasksChangedMsg struct {
	status string
	err    error
}

// TasksView lists, searches, sorts, toggles and deletes tasks
type TasksView struct {
	tasks *store.TaskStore

	all     []model.Task
	visible []model.Task
	loaded  bool

	sort    tasklist.SortOption
	keyword string
	search  textinput.Model

	mode      TasksMode
	deleteID  string
	cursor    int
	scroll    int
	statusMsg string

	width  int
	height int
}

// NewTasksView creates the task list screen sorted by sort. Call Init to load.
func NewTasksView(tasks *store.TaskStore, sort tasklist.SortOption) TasksView {
	ti := textinput.New()
	ti.Placeholder = "Search tasks..."
	ti.CharLimit = 128
	ti.Prompt = ""

	return TasksView{
		tasks:  tasks,
		sort:   sort,
		search: ti,
	}
}

// Init reloads the task list from the store
func (v TasksView) Init() tea.Cmd {
	return v.loadTasks
}

// IsInputMode returns true while typing a search or answering a prompt
func (v TasksView) IsInputMode() bool {
	return v.mode != TasksModeNormal
}

// SetSize updates the view dimensions
func (v TasksView) SetSize(width, height int) TasksView {
	v.width = width
	v.height = height
	v.search.Width = max(width-12, 10)
	return v
}

// Visible returns the tasks currently displayed, in display order
func (v TasksView) Visible() []model.Task {
	return v.visible
}

// Mode reports the current input mode, such as search or a pending delete
func (v TasksView) Mode() TasksMode {
	return v.mode
}

// Update handles list navigation, search input and store results
func (v TasksView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			logger.Warn("tasks view load failed", zap.Error(msg.err))
			v.all = nil
			v.project()
			return v, AlertError(msg.err)
		}
		v.all = msg.tasks
		v.project()
		return v, nil

	case taskToggledMsg:
		if msg.err != nil {
			return v, AlertError(msg.err)
		}
		cmds := []tea.Cmd{v.loadTasks}
		if msg.task.Completed {
			task := msg.task
			cmds = append(cmds, func() tea.Msg { return TaskCompletedMsg{Task: task} })
		}
		return v, tea.Batch(cmds...)

	case tasksChangedMsg:
		if errors.Is(msg.err, store.ErrCancelled) {
			return v, nil
		}
		if msg.err != nil {
			return v, AlertError(msg.err)
		}
		v.statusMsg = msg.status
		return v, v.loadTasks

	case tea.KeyMsg:
		switch v.mode {
		case TasksModeSearch:
			return v.handleSearchMode(msg)
		case TasksModeConfirmDelete, TasksModeConfirmDeleteAll:
			return v.handleConfirm(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.mode == TasksModeSearch {
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v TasksView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.statusMsg = ""

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.visible)-1 {
			v.cursor++
		}
	case "g", "home":
		v.cursor = 0
	case "G", "end":
		v.cursor = max(len(v.visible)-1, 0)

	case "/":
		v.mode = TasksModeSearch
		v.search.SetValue(v.keyword)
		v.search.CursorEnd()
		cmd := v.search.Focus()
		return v, cmd

	case "s":
		v.sort = tasklist.SortDate
		v.project()
	case "S":
		v.sort = tasklist.SortStatus
		v.project()

	case "tab", " ", "x":
		if task, ok := v.current(); ok {
			return v, v.toggle(task.ID)
		}

	case "enter":
		if task, ok := v.current(); ok {
			return v, Navigate(ScreenTaskDetails, &task)
		}

	case "a":
		return v, Navigate(ScreenAddTask, nil)

	case "d":
		if task, ok := v.current(); ok {
			v.deleteID = task.ID
			v.mode = TasksModeConfirmDelete
		}
	case "D":
		if len(v.all) > 0 {
			v.mode = TasksModeConfirmDeleteAll
		}

	case "esc":
		if v.keyword != "" {
			v.keyword = ""
			v.project()
			return v, nil
		}
		return v, Navigate(ScreenMain, nil)

	case "r":
		return v, v.loadTasks
	}

	v.ensureCursorVisible()
	return v, nil
}

// handleSearchMode filters as the user types
func (v TasksView) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		v.mode = TasksModeNormal
		v.search.Blur()
		return v, nil
	case "esc":
		v.mode = TasksModeNormal
		v.search.Blur()
		v.search.SetValue("")
		v.keyword = ""
		v.project()
		return v, nil
	}

	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	v.keyword = v.search.Value()
	v.project()
	return v, cmd
}

// handleConfirm answers the delete prompts
func (v TasksView) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		mode, id := v.mode, v.deleteID
		v.mode = TasksModeNormal
		v.deleteID = ""
		if mode == TasksModeConfirmDeleteAll {
			return v, v.deleteAll()
		}
		return v, v.delete(id)
	case "n", "N", "esc":
		v.mode = TasksModeNormal
		v.deleteID = ""
	}
	return v, nil
}

func (v TasksView) current() (model.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.visible) {
		return model.Task{}, false
	}
	return v.visible[v.cursor], true
}

// project recomputes the displayed list and clamps the cursor
func (v *TasksView) project() {
	v.visible = tasklist.Project(v.all, v.sort, v.keyword)
	if v.cursor >= len(v.visible) {
		v.cursor = max(len(v.visible)-1, 0)
	}
	v.ensureCursorVisible()
}

func (v TasksView) visibleRows() int {
	// Title, search bar, sort bar, prompt/status and spacing
	return max(v.height-8, 1)
}

func (v *TasksView) ensureCursorVisible() {
	rows := v.visibleRows()
	if v.cursor < v.scroll {
		v.scroll = v.cursor
	}
	if v.cursor >= v.scroll+rows {
		v.scroll = v.cursor - rows + 1
	}
	maxScroll := max(len(v.visible)-rows, 0)
	v.scroll = min(max(v.scroll, 0), maxScroll)
}

func (v TasksView) loadTasks() tea.Msg {
	ctx, cancel := storeContext()
	defer cancel()
	tasks, err := v.tasks.Load(ctx)
	return tasksLoadedMsg{tasks: tasks, err: err}
}

func (v TasksView) toggle(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		task, err := v.tasks.Toggle(ctx, id)
		return taskToggledMsg{task: task, err: err}
	}
}

// delete runs after the user answered yes at the prompt
func (v TasksView) delete(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		err := v.tasks.Delete(ctx, id, store.Confirmed)
		return tasksChangedMsg{status: "Task deleted", err: err}
	}
}

func (v TasksView) deleteAll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := storeContext()
		defer cancel()
		err := v.tasks.DeleteAll(ctx, store.Confirmed)
		return tasksChangedMsg{status: "All tasks deleted", err: err}
	}
}

// View renders the header, the visible rows and the status line
func (v TasksView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var b strings.Builder

	counts := tasklist.Count(v.all)
	b.WriteString(styles.Title.Render("Tasks:"))
	b.WriteString(styles.Label.Render(fmt.Sprintf("  %d total, %d pending, %d done", counts.Total, counts.Pending, counts.Completed)))
	b.WriteString("\n")

	// Search bar
	searchStyle := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	if v.mode == TasksModeSearch {
		b.WriteString(searchStyle.Render("/ "))
		b.WriteString(v.search.View())
	} else if v.keyword != "" {
		b.WriteString(searchStyle.Render("/ "))
		b.WriteString(lipgloss.NewStyle().Foreground(t.Info).Italic(true).Render(v.keyword))
		b.WriteString(styles.HelpDesc.Render("  (esc to clear)"))
	} else {
		b.WriteString(styles.Placeholder.Render("/ Search tasks..."))
	}
	b.WriteString("\n")

	// Sort buttons
	sortButton := func(opt tasklist.SortOption, label, hotkey string) string {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(t.Subtle)
		if v.sort == opt {
			style = style.Background(t.Highlight).Foreground(t.Primary).Bold(true)
		}
		return style.Render(label) + styles.HelpDesc.Render("("+hotkey+") ")
	}
	b.WriteString(sortButton(tasklist.SortDate, "Sort by Date", "s"))
	b.WriteString(sortButton(tasklist.SortStatus, "Sort by Status", "S"))
	b.WriteString("\n\n")

	// Prompts
	confirmStyle := lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
	switch v.mode {
	case TasksModeConfirmDelete:
		b.WriteString(confirmStyle.Render(store.DeletePrompt + " (y/n)"))
		b.WriteString("\n\n")
	case TasksModeConfirmDeleteAll:
		b.WriteString(confirmStyle.Render(store.DeleteAllPrompt + " (y/n)"))
		b.WriteString("\n\n")
	}

	if v.statusMsg != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Info).Italic(true).Render(v.statusMsg))
		b.WriteString("\n\n")
	}

	emptyStyle := lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Padding(1, 0)
	switch {
	case !v.loaded:
		b.WriteString(emptyStyle.Render("Loading..."))
	case len(v.all) == 0:
		b.WriteString(emptyStyle.Render("List is empty"))
	case len(v.visible) == 0:
		b.WriteString(emptyStyle.Render("No tasks match your search"))
	default:
		rows := v.visibleRows()
		end := min(v.scroll+rows, len(v.visible))
		scrollStyle := lipgloss.NewStyle().Foreground(t.Subtle)

		if v.scroll > 0 {
			b.WriteString(scrollStyle.Render(fmt.Sprintf("  ↑ %d more above", v.scroll)))
			b.WriteString("\n")
		}
		for i := v.scroll; i < end; i++ {
			b.WriteString(v.renderTask(v.visible[i], i == v.cursor))
			b.WriteString("\n")
		}
		if remaining := len(v.visible) - end; remaining > 0 {
			b.WriteString(scrollStyle.Render(fmt.Sprintf("  ↓ %d more below", remaining)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (v TasksView) renderTask(task model.Task, isCursor bool) string {
	styles := theme.Current.Styles

	checkbox := styles.CheckPending.Render("[ ]")
	if task.Completed {
		checkbox = styles.CheckDone.Render("[x]")
	}

	// One line per task, like a single-line list cell
	text := firstLine(task.Text)
	if limit := v.width - 10; limit > 0 && lipgloss.Width(text) > limit {
		text = truncate(text, limit)
	}

	style := styles.TaskNormal
	switch {
	case isCursor:
		style = styles.TaskSelected
	case task.Completed:
		style = styles.TaskDone
	}
	if isCursor && task.Completed {
		style = style.Strikethrough(true)
	}

	cursor := "  "
	if isCursor {
		cursor = "> "
	}
	return cursor + checkbox + style.Render(text)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
