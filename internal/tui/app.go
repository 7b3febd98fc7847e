package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"threadhub/internal/api"
	"threadhub/internal/identity"
	"threadhub/internal/session"
	"threadhub/internal/tui/config"
	"threadhub/internal/tui/styles"
	"threadhub/internal/tui/views"
	"threadhub/pkg/logger"
)

// View represents different screens in the TUI
type View int

const (
	ViewThread View = iota
	ViewAuth
)

// Model is the root Bubble Tea model
type Model struct {
	config     *config.Config
	configPath string

	identity *identity.TokenProvider

	currentView View
	keys        KeyMap
	help        help.Model

	width  int
	height int

	authModel   views.AuthModel
	threadModel views.ThreadModel

	// status is a one-line message from the root model, e.g. a failed save
	status string
}

// New creates a new TUI application for cfg. configPath is where the
// session token is saved after signing in.
func New(cfg *config.Config, configPath string) *Model {
	client := api.NewClient(cfg.Server.BaseURL, api.WithTimeout(cfg.Server.Timeout))
	ident := identity.NewTokenProvider(cfg.User.Token)
	ctrl := session.New(cfg.UI.Article, client, ident, cfg.Comments)

	var events views.EventSource
	if cfg.Server.Live {
		events = client
	}

	return &Model{
		config:      cfg,
		configPath:  configPath,
		identity:    ident,
		currentView: ViewThread,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		authModel:   views.NewAuthModel(client),
		threadModel: views.NewThreadModel(ctrl, events, ident.Token, cfg.UI.RelativeTimes),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.threadModel.Init()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		m.authModel, _ = m.authModel.Update(msg)
		m.threadModel, _ = m.threadModel.Update(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case views.AuthSuccessMsg:
		m.authModel, _ = m.authModel.Update(msg)
		return m.signedIn(msg)

	case views.AuthErrorMsg:
		m.authModel, _ = m.authModel.Update(msg)
		return m, nil
	}

	// Thread commands keep running behind the auth form
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.threadModel, cmd = m.threadModel.Update(msg)
	cmds = append(cmds, cmd)
	if m.currentView == ViewAuth {
		m.authModel, cmd = m.authModel.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// handleKey applies global bindings, then routes the key to the active view
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.threadModel.Close()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.currentView == ViewAuth {
		if key.Matches(msg, m.keys.Back) {
			m.currentView = ViewThread
			return m, nil
		}
		m.authModel, cmd = m.authModel.Update(msg)
		return m, cmd
	}

	// Text entry gets every other key
	if !m.threadModel.Capturing() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.threadModel.Close()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Login):
			m.currentView = ViewAuth
			m.status = ""
			return m, m.authModel.Init()

		case key.Matches(msg, m.keys.Logout):
			return m.signedOut()
		}
	}

	m.threadModel, cmd = m.threadModel.Update(msg)
	return m, cmd
}

// signedIn stores the new token and reloads the thread as that user
func (m Model) signedIn(msg views.AuthSuccessMsg) (tea.Model, tea.Cmd) {
	m.identity.SetToken(msg.Token)
	m.config.User.Token = msg.Token
	m.config.User.Username = msg.Username
	m.status = "Signed in as " + msg.Username
	if err := m.config.Save(m.configPath); err != nil {
		logger.Warnf("tui: failed to save session: %v", err)
		m.status += " (not saved: " + err.Error() + ")"
	}

	m.currentView = ViewThread
	m.threadModel.Close()
	return m, m.threadModel.Init()
}

func (m Model) signedOut() (tea.Model, tea.Cmd) {
	if m.identity.Token() == "" {
		return m, nil
	}
	m.identity.SetToken("")
	m.config.User = config.UserConfig{}
	m.status = "Signed out"
	if err := m.config.Save(m.configPath); err != nil {
		logger.Warnf("tui: failed to clear session: %v", err)
	}

	m.threadModel.Close()
	return m, m.threadModel.Init()
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.currentView {
	case ViewAuth:
		content = m.authModel.View()
	default:
		content = m.threadModel.View()
	}

	return styles.AppStyle.Render(content + "\n\n" + m.renderStatusBar() + "\n" + m.help.View(m.keys))
}

// renderStatusBar renders the bottom status bar
func (m Model) renderStatusBar() string {
	viewName := "Thread"
	if m.currentView == ViewAuth {
		viewName = "Sign in"
	}

	user := "anonymous"
	if m.config.User.Username != "" && m.identity.Token() != "" {
		user = m.config.User.Username
	}

	left := styles.StatusBarActiveStyle.Render("● " + viewName)
	right := styles.StatusBarStyle.Render("User: " + user)
	if m.status != "" {
		right = styles.StatusBarStyle.Render(m.status + " | User: " + user)
	}

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if spacing < 0 {
		spacing = 0
	}

	return left + strings.Repeat(" ", spacing) + right
}
