// Package ui is the terminal front end.
package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/tgienger/taskly/internal/auth"
	"github.com/tgienger/taskly/internal/tasks"
	"github.com/tgienger/taskly/internal/ui/styles"
	"github.com/tgienger/taskly/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewRestoring View = iota
	ViewAuth
	ViewTasks
)

type restoredMsg struct {
	identity auth.Identity
	err      error
}

// Options configures the app.
type Options struct {
	Session *auth.Session
	Store   tasks.Store
	Timeout time.Duration
	Logger  zerolog.Logger

	// Runner overrides how store calls are executed. Tests set it.
	Runner views.Runner
}

type App struct {
	session     *auth.Session
	timeout     time.Duration
	log         zerolog.Logger
	currentView View
	authView    *views.AuthView
	taskList    *views.TaskListView
	width       int
	height      int
}

// Creates a new application
func NewApp(opts Options) *App {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	run := opts.Runner
	if run == nil {
		run = views.NewRunner(opts.Timeout)
	}

	return &App{
		session:     opts.Session,
		timeout:     opts.Timeout,
		log:         opts.Logger,
		currentView: ViewRestoring,
		authView:    views.NewAuthView(opts.Session, opts.Timeout),
		taskList:    views.NewTaskListView(opts.Store, run, opts.Logger),
	}
}

// Tasks returns the task view.
func (a *App) Tasks() *views.TaskListView { return a.taskList }

// CurrentView reports which screen is showing.
func (a *App) CurrentView() View { return a.currentView }

func (a *App) Init() tea.Cmd {
	// Sign back in with the saved token, if any
	return tea.Batch(a.taskList.Init(), a.restore)
}

func (a *App) restore() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	id, err := a.session.Restore(ctx)
	return restoredMsg{identity: id, err: err}
}

func (a *App) showAuth() tea.Cmd {
	a.currentView = ViewAuth
	a.authView.Reset()
	return tea.Batch(
		a.authView.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) openTasks(id auth.Identity) tea.Cmd {
	a.currentView = ViewTasks
	a.log.Info().Str("user_id", id.UserID).Msg("signed in")

	return tea.Batch(
		a.taskList.SetUser(id),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Both views keep their size
		a.authView.Update(msg)
		_, cmd := a.taskList.Update(msg)
		return a, cmd

	case restoredMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, auth.ErrSignedOut) {
				a.log.Warn().Err(msg.err).Msg("could not restore session")
			}
			return a, a.showAuth()
		}
		return a, a.openTasks(msg.identity)

	case views.SignedIn:
		return a, a.openTasks(msg.Identity)

	case views.SignOutRequested:
		if err := a.session.SignOut(); err != nil {
			a.log.Error().Err(err).Msg("sign out")
		}
		a.taskList.Clear()
		a.log.Info().Msg("signed out")
		return a, a.showAuth()

	case tea.KeyMsg:
		if a.currentView == ViewRestoring {
			if msg.String() == "ctrl+c" {
				return a, tea.Quit
			}
			return a, nil
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewAuth:
		_, cmd = a.authView.Update(msg)
		// results and ticks still belong to the task view
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			_, listCmd := a.taskList.Update(msg)
			cmd = tea.Batch(cmd, listCmd)
		}
	default:
		_, cmd = a.taskList.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewAuth:
		return a.authView.View()
	case ViewTasks:
		return a.taskList.View()
	}
	return styles.NewStyles().TitleMuted.Render("Loading...")
}
