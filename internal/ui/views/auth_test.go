package views

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskly/internal/auth"
)

type fakeAuth struct {
	signUp   bool
	email    string
	password string
	err      error
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (auth.Identity, error) {
	f.email, f.password = email, password
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	return auth.Identity{UserID: "u1", Email: email, Token: "tok"}, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (auth.Identity, error) {
	f.signUp = true
	return f.SignIn(ctx, email, password)
}

func fillForm(v *AuthView, email, password string) tea.Cmd {
	v.Update(keyRunes(email))
	v.Update(keyEnter)
	v.Update(keyRunes(password))
	_, cmd := v.Update(keyEnter)
	return cmd
}

func TestAuthView_SignIn(t *testing.T) {
	fa := &fakeAuth{}
	v := NewAuthView(fa, time.Second)
	v.Init()

	cmd := fillForm(v, "a@example.com", "secret1")
	require.NotNil(t, cmd)
	assert.True(t, v.busy)
	assert.Contains(t, v.View(), "Please wait...")

	_, next := v.Update(cmd())
	assert.False(t, v.busy)
	assert.False(t, fa.signUp)
	assert.Equal(t, "a@example.com", fa.email)
	assert.Equal(t, "secret1", fa.password)

	require.NotNil(t, next)
	msg, ok := next().(SignedIn)
	require.True(t, ok)
	assert.Equal(t, "u1", msg.Identity.UserID)
}

func TestAuthView_SignUpToggle(t *testing.T) {
	fa := &fakeAuth{}
	v := NewAuthView(fa, time.Second)
	v.Init()

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Contains(t, v.View(), "Create account")

	cmd := fillForm(v, "b@example.com", "secret1")
	require.NotNil(t, cmd)
	v.Update(cmd())
	assert.True(t, fa.signUp)
}

func TestAuthView_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{auth.ErrInvalidCredentials, "Invalid email or password"},
		{auth.ErrEmailTaken, "That email is already registered"},
		{auth.ErrWeakPassword, "at least 6 characters"},
		{context.DeadlineExceeded, "took too long"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			v := NewAuthView(&fakeAuth{err: tt.err}, time.Second)
			v.Init()

			cmd := fillForm(v, "c@example.com", "secret1")
			require.NotNil(t, cmd)
			_, next := v.Update(cmd())
			assert.Nil(t, next)
			assert.Contains(t, v.View(), tt.want)
			assert.Empty(t, v.password.Value(), "password cleared after a failure")
		})
	}
}

func TestAuthView_RequiresFields(t *testing.T) {
	v := NewAuthView(&fakeAuth{}, time.Second)
	v.Init()

	v.Update(keyEnter)
	_, cmd := v.Update(keyEnter)
	assert.Nil(t, cmd)
	assert.Contains(t, v.View(), "Email and password are required")
}
