package tui

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadhub/internal/tui/config"
	"threadhub/internal/tui/views"
)

func newApp(t *testing.T) (Model, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tui.yaml")
	cfg := config.Default()
	cfg.Server.Live = false
	app := New(cfg, path)
	m, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m.(Model), path
}

func TestApp_LoginViewRoundTrip(t *testing.T) {
	m, _ := newApp(t)
	assert.Equal(t, ViewThread, m.currentView)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = next.(Model)
	assert.Equal(t, ViewAuth, m.currentView)
	assert.Contains(t, m.View(), "Login")

	// q is text while the form is open
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)
	assert.Equal(t, ViewAuth, m.currentView)
	assert.Equal(t, "q", m.authModel.Username())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewThread, next.(Model).currentView)
}

func TestApp_SignInSavesSession(t *testing.T) {
	m, path := newApp(t)

	next, cmd := m.Update(views.AuthSuccessMsg{Username: "ana", Token: "tok-123"})
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, ViewThread, m.currentView)
	assert.Equal(t, "tok-123", m.identity.Token())
	assert.Contains(t, m.renderStatusBar(), "Signed in as ana")

	saved, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", saved.User.Token)
	assert.Equal(t, "ana", saved.User.Username)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m = next.(Model)
	assert.Empty(t, m.identity.Token())

	saved, _, err = config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, saved.User.Token)
}

func TestApp_QuitOutsideTextEntry(t *testing.T) {
	m, _ := newApp(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}
