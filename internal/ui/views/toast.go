package views

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/taskly/internal/tasks"
	"github.com/tgienger/taskly/internal/ui/styles"
)

// ToastDuration is how long a notice stays on screen.
const ToastDuration = 3 * time.Second

type toastExpiredMsg struct {
	seq int
}

// toaster shows the most recent notice until it expires.
type toaster struct {
	current   *tasks.Notice
	seq       int
	scheduled int
}

// push replaces the visible notice. Called from the controller's notifier.
func (t *toaster) push(n tasks.Notice) {
	t.current = &n
	t.seq++
}

// schedule returns the expiry timer for a notice pushed since the last call.
func (t *toaster) schedule() tea.Cmd {
	if t.current == nil || t.scheduled == t.seq {
		return nil
	}
	t.scheduled = t.seq
	seq := t.seq
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

// expire clears the notice if msg belongs to it.
func (t *toaster) expire(msg toastExpiredMsg) {
	if msg.seq == t.seq {
		t.current = nil
	}
}

func (t *toaster) view(s *styles.Styles) string {
	if t.current == nil {
		return ""
	}
	switch t.current.Level {
	case tasks.LevelSuccess:
		return s.ToastSuccess.Render("✓ " + t.current.Text)
	case tasks.LevelError:
		return s.ToastError.Render("✗ " + t.current.Text)
	}
	return s.ToastInfo.Render(t.current.Text)
}
