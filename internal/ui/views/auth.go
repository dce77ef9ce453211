package views

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskly/internal/auth"
	"github.com/tgienger/taskly/internal/ui/keys"
	"github.com/tgienger/taskly/internal/ui/styles"
)

// Authenticator signs users in. *auth.Session implements it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (auth.Identity, error)
	SignUp(ctx context.Context, email, password string) (auth.Identity, error)
}

// SignedIn is emitted once credentials are accepted.
type SignedIn struct {
	Identity auth.Identity
}

type authResultMsg struct {
	identity auth.Identity
	err      error
}

// AuthView is the sign-in / sign-up form.
type AuthView struct {
	auth    Authenticator
	timeout time.Duration
	styles  *styles.Styles
	keys    keys.KeyMap
	width   int
	height  int

	signingUp bool
	busy      bool
	errText   string
	email     textinput.Model
	password  textinput.Model
	focusIdx  int // 0=email, 1=password, 2=confirm
}

// NewAuthView creates the form. timeout bounds each attempt.
func NewAuthView(authenticator Authenticator, timeout time.Duration) *AuthView {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 72
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &AuthView{
		auth:     authenticator,
		timeout:  timeout,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		email:    email,
		password: password,
	}
}

// Reset clears the form for the next user.
func (v *AuthView) Reset() {
	v.signingUp = false
	v.busy = false
	v.errText = ""
	v.email.Reset()
	v.password.Reset()
	v.focusIdx = 0
	v.updateFocus()
}

func (v *AuthView) Init() tea.Cmd {
	v.updateFocus()
	return textinput.Blink
}

func (v *AuthView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case authResultMsg:
		v.busy = false
		if msg.err != nil {
			v.errText = authErrorText(msg.err)
			v.password.Reset()
			v.focusIdx = 1
			v.updateFocus()
			return v, nil
		}
		v.errText = ""
		id := msg.identity
		return v, func() tea.Msg { return SignedIn{Identity: id} }

	case tea.KeyMsg:
		return v.updateForm(msg)
	}

	return v, nil
}

func (v *AuthView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return v, tea.Quit
	}
	if v.busy {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		if v.focusIdx == 2 {
			return v, tea.Quit
		}
		v.focusIdx = 2
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Switch):
		v.signingUp = !v.signingUp
		v.errText = ""
		return v, nil

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 2) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx == 0 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.submit()
	}

	if v.focusIdx == 2 && key.Matches(msg, v.keys.Quit) {
		return v, tea.Quit
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.email, cmd = v.email.Update(msg)
	case 1:
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v *AuthView) submit() tea.Cmd {
	email := v.email.Value()
	password := v.password.Value()
	if email == "" || password == "" {
		v.errText = "Email and password are required"
		return nil
	}

	v.busy = true
	v.errText = ""
	signUp := v.signingUp
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
		defer cancel()

		var (
			id  auth.Identity
			err error
		)
		if signUp {
			id, err = v.auth.SignUp(ctx, email, password)
		} else {
			id, err = v.auth.SignIn(ctx, email, password)
		}
		return authResultMsg{identity: id, err: err}
	}
}

func authErrorText(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, auth.ErrEmailTaken):
		return "That email is already registered"
	case errors.Is(err, auth.ErrInvalidEmail):
		return "Enter a valid email address"
	case errors.Is(err, auth.ErrWeakPassword):
		return "Password must be at least 6 characters"
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer"
	}
	return "Could not sign in: " + err.Error()
}

func (v *AuthView) updateFocus() {
	v.email.Blur()
	v.password.Blur()
	switch v.focusIdx {
	case 0:
		v.email.Focus()
	case 1:
		v.password.Focus()
	}
}

// View renders the view
func (v *AuthView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	emailStyle := s.Input
	passStyle := s.Input
	btnStyle := s.Button

	switch v.focusIdx {
	case 0:
		emailStyle = s.InputFocused
	case 1:
		passStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	title, button, other := "Sign in", " Sign in ", "Ctrl+T: create an account"
	if v.signingUp {
		title, button, other = "Create account", " Sign up ", "Ctrl+T: sign in instead"
	}
	if v.busy {
		button = " Please wait... "
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	rows := []string{
		s.Title.Render(title),
		"",
		"Email:",
		emailStyle.Width(inputWidth).Render(v.email.View()),
		"",
		"Password:",
		passStyle.Width(inputWidth).Render(v.password.View()),
		"",
		btnStyle.Render(button),
	}
	if v.errText != "" {
		rows = append(rows, "", s.ToastError.Render(v.errText))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • "+other+" • Ctrl+C: quit"))

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
