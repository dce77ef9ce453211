package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/tgienger/taskly/internal/auth"
	"github.com/tgienger/taskly/internal/models"
	"github.com/tgienger/taskly/internal/tasks"
	"github.com/tgienger/taskly/internal/ui/keys"
	"github.com/tgienger/taskly/internal/ui/styles"
)

// TimestampLayout formats a task's creation time.
const TimestampLayout = "02/01/2006 15:04"

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// PendingLabel is the footer count, e.g. "1 task" or "3 tasks".
func PendingLabel(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}

// Runner turns prepared store calls into commands. Each command performs its
// call off the event loop and delivers the tasks.Result as a message.
type Runner func(reqs ...tasks.Request) tea.Cmd

// NewRunner returns a Runner giving every call its own timeout.
func NewRunner(timeout time.Duration) Runner {
	return func(reqs ...tasks.Request) tea.Cmd {
		cmds := make([]tea.Cmd, 0, len(reqs))
		for _, req := range reqs {
			cmds = append(cmds, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()
				return req.Do(ctx)
			})
		}
		return tea.Batch(cmds...)
	}
}

// SignOutRequested asks the app to end the session.
type SignOutRequested struct{}

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusInput FocusArea = iota
	FocusTaskList
)

// TaskListView shows the signed-in user's tasks, the creation form and the
// inline editor. All task state lives in the controller.
type TaskListView struct {
	ctrl   *tasks.Controller
	run    Runner
	log    zerolog.Logger
	styles *styles.Styles
	keys   keys.KeyMap
	email  string

	width  int
	height int

	// UI state
	focus     FocusArea
	cursor    int
	scrollY   int
	input     textinput.Model
	editInput textinput.Model
	editingID string
	spinner   spinner.Model
	toast     toaster

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a new task list view
func NewTaskListView(store tasks.Store, run Runner, log zerolog.Logger) *TaskListView {
	s := styles.NewStyles()

	input := textinput.New()
	input.Placeholder = "What needs to be done?"
	input.CharLimit = 500

	editInput := textinput.New()
	editInput.CharLimit = 500

	v := &TaskListView{
		run:       run,
		log:       log,
		styles:    s,
		keys:      keys.DefaultKeyMap(),
		focus:     FocusTaskList,
		input:     input,
		editInput: editInput,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(s.Spinner),
		),
	}
	v.ctrl = tasks.NewController(store, v.toast.push)
	return v
}

// Controller exposes the task state behind the view.
func (v *TaskListView) Controller() *tasks.Controller {
	return v.ctrl
}

// SetUser switches the view to id and starts loading their tasks.
func (v *TaskListView) SetUser(id auth.Identity) tea.Cmd {
	v.reset()
	v.email = id.Email
	return v.run(v.ctrl.SetOwner(id.UserID)...)
}

// Clear drops everything belonging to the previous user.
func (v *TaskListView) Clear() {
	v.reset()
	v.email = ""
	v.ctrl.SetOwner("")
}

func (v *TaskListView) reset() {
	v.cursor = 0
	v.scrollY = 0
	v.focus = FocusTaskList
	v.editingID = ""
	v.showHelpPopup = false
	v.input.Reset()
	v.input.Blur()
	v.editInput.Blur()
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.spinner.Tick
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := v.update(msg)
	return model, tea.Batch(cmd, v.toast.schedule())
}

func (v *TaskListView) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.input.Width = clamp(contentWidth-8, 10, 60)
		v.editInput.Width = clamp(contentWidth-24, 10, 50)
		v.ensureVisible()
		return v, nil

	case tasks.Result:
		if err := msg.Err(); err != nil {
			req := msg.Request()
			v.log.Error().Err(err).
				Str("op", req.Op()).
				Str("owner_id", v.ctrl.Owner()).
				Str("task_id", req.TaskID()).
				Msg("store call failed")
		}
		follow := v.ctrl.Resolve(msg)
		v.sync()
		return v, v.run(follow...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case toastExpiredMsg:
		v.toast.expire(msg)
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.editingID != "" {
			return v.updateEditing(msg)
		}

		if v.focus == FocusInput {
			return v.updateInput(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

// sync pulls controller state the widgets mirror after a result is applied.
func (v *TaskListView) sync() {
	if v.editingID != "" && v.ctrl.EditState(v.editingID) != tasks.Editing {
		v.editingID = ""
		v.editInput.Blur()
	}
	if form := v.ctrl.Form(); !form.Submitting() && v.input.Value() != form.Input() {
		v.input.SetValue(form.Input())
	}
	if n := len(v.rows()); v.cursor >= n {
		v.cursor = max(0, n-1)
	}
	v.ensureVisible()
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.SignOut):
		return v, func() tea.Msg { return SignOutRequested{} }

	case key.Matches(msg, v.keys.New), key.Matches(msg, v.keys.Tab):
		v.focus = FocusInput
		return v, v.input.Focus()

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows())-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		task, ok := v.selected()
		if !ok {
			return v, nil
		}
		req, err := v.ctrl.ToggleStatus(task.ID)
		if err != nil {
			return v, nil
		}
		return v, v.run(req)

	case key.Matches(msg, v.keys.Edit), key.Matches(msg, v.keys.Enter):
		task, ok := v.selected()
		if !ok {
			return v, nil
		}
		if err := v.ctrl.BeginEdit(task.ID); err != nil {
			return v, nil
		}
		v.editingID = task.ID
		v.editInput.SetValue(task.Description)
		v.editInput.CursorEnd()
		return v, v.editInput.Focus()

	case key.Matches(msg, v.keys.Delete):
		task, ok := v.selected()
		if !ok {
			return v, nil
		}
		req, err := v.ctrl.Delete(task.ID)
		if err != nil {
			return v, nil
		}
		return v, v.run(req)

	case key.Matches(msg, v.keys.Refresh):
		req, err := v.ctrl.Refresh()
		if err != nil {
			return v, nil
		}
		return v, v.run(req)
	}

	return v, nil
}

func (v *TaskListView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Tab):
		v.input.Blur()
		v.focus = FocusTaskList
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.ctrl.Form().Submitting() {
			return v, nil
		}
		req, err := v.ctrl.Submit(v.input.Value())
		if err != nil {
			return v, nil
		}
		return v, v.run(req)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	v.ctrl.Form().SetInput(v.input.Value())
	return v, cmd
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := v.editingID

	switch {
	case key.Matches(msg, v.keys.Back):
		v.ctrl.Cancel(id)
		v.editingID = ""
		v.editInput.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if ed := v.ctrl.Editor(id); ed != nil && ed.Saving() {
			return v, nil
		}
		v.ctrl.SetDraft(id, v.editInput.Value())
		req, err := v.ctrl.Save(id)
		if errors.Is(err, tasks.ErrUnknownTask) {
			v.editingID = ""
			v.editInput.Blur()
			return v, nil
		}
		if err != nil {
			return v, nil
		}
		return v, v.run(req)

	// arrows and the toggle reach the list; letters belong to the draft
	case msg.Type == tea.KeyUp:
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case msg.Type == tea.KeyDown:
		if v.cursor < len(v.rows())-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.EditToggle):
		task, ok := v.selected()
		if !ok {
			return v, nil
		}
		req, err := v.ctrl.ToggleStatus(task.ID)
		if err != nil {
			return v, nil
		}
		return v, v.run(req)
	}

	var cmd tea.Cmd
	v.editInput, cmd = v.editInput.Update(msg)
	v.ctrl.SetDraft(id, v.editInput.Value())
	return v, cmd
}

// rows is the display order: pending tasks, then completed ones.
func (v *TaskListView) rows() []models.Task {
	return append(v.ctrl.PendingTasks(), v.ctrl.CompletedTasks()...)
}

func (v *TaskListView) selected() (models.Task, bool) {
	rows := v.rows()
	if v.cursor < 0 || v.cursor >= len(rows) {
		return models.Task{}, false
	}
	return rows[v.cursor], true
}

func (v *TaskListView) visibleItems() int {
	// Each task item is 1 line, section headers take 2
	availableHeight := v.height - 16
	return max(availableHeight, 3)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(v.renderForm())
	b.WriteString("\n")

	if toast := v.toast.view(v.styles); toast != "" {
		b.WriteString(toast)
		b.WriteString("\n")
	}

	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderFooter())
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	parts := []string{s.Title.Render("Tasks")}
	if v.email != "" {
		parts = append(parts, "  ", s.TitleMuted.Render(v.email))
	}
	if v.ctrl.Loading() {
		parts = append(parts, "  ", v.spinner.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (v *TaskListView) renderForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	inputStyle := s.Input
	if v.focus == FocusInput {
		inputStyle = s.InputFocused
	}
	box := inputStyle.Width(clamp(contentWidth-4, 14, 64)).Render(v.input.View())

	if v.ctrl.Form().Submitting() {
		return lipgloss.JoinHorizontal(lipgloss.Center, box, " ", s.TitleMuted.Render("Adding..."))
	}
	return box
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if !v.ctrl.Loaded() {
		if v.ctrl.Loading() {
			return v.spinner.View() + " " + s.TitleMuted.Render("Loading tasks...")
		}
		return ""
	}

	rows := v.rows()
	if len(rows) == 0 {
		return s.TitleMuted.Render("No tasks yet. Press 'n' to add one.")
	}

	pending := v.ctrl.PendingCount()
	endIdx := min(v.scrollY+v.visibleItems(), len(rows))

	var items []string
	for i := v.scrollY; i < endIdx; i++ {
		switch {
		case i == 0 && pending > 0:
			items = append(items, s.Section.Render(fmt.Sprintf("Pending (%d)", pending)))
		case i == pending:
			items = append(items, s.Section.Render(fmt.Sprintf("Completed (%d)", len(rows)-pending)))
		}
		items = append(items, v.renderTaskItem(rows[i], i == v.cursor && v.focus == FocusTaskList))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	check := "[ ]"
	descStyle := s.TaskTitle
	if task.Completed() {
		check = s.Checkbox.Render("[x]")
		descStyle = s.TaskDone
	}

	desc := descStyle.Render(task.Description)
	if task.ID == v.editingID {
		desc = v.editInput.View()
	}
	stamp := s.Timestamp.Render(task.CreatedAt.Local().Format(TimestampLayout))

	line := fmt.Sprintf("%s %s  %s", check, desc, stamp)

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	return itemStyle.Width(width).Render(line)
}

func (v *TaskListView) renderFooter() string {
	s := v.styles
	return s.StatusBar.Render(
		s.TitleMuted.Render("Pending tasks: ") + s.Title.Render(PendingLabel(v.ctrl.PendingCount())),
	)
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}

	switch {
	case v.editingID != "":
		return s.Help.Render(fmt.Sprintf("%s save • %s cancel • %s done",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("esc"),
			s.HelpKey.Render("ctrl+x"),
		))
	case v.focus == FocusInput:
		return s.Help.Render(fmt.Sprintf("%s add • %s back to list",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("esc"),
		))
	}

	return s.Help.Render(
		fmt.Sprintf("%s new • %s done • %s edit • %s del • %s refresh • %s sign out • %s quit",
			s.HelpKey.Render("n"),
			s.HelpKey.Render("space"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("r"),
			s.HelpKey.Render("ctrl+o"),
			s.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("n") + "       new task",
		s.HelpKey.Render("space") + "   complete / reopen",
		s.HelpKey.Render("e") + "       edit description",
		s.HelpKey.Render("d") + "       delete task",
		s.HelpKey.Render("r") + "       refresh",
		s.HelpKey.Render("ctrl+o") + "  sign out",
		s.HelpKey.Render("q") + "       quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}
