package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"threadhub/internal/api"
	"threadhub/internal/tui/components"
	"threadhub/internal/tui/styles"
	"threadhub/pkg/models"
)

// AuthMode represents login or register mode
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// Authenticator is the part of the API client the form needs
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) error
}

// AuthModel handles login/register forms
type AuthModel struct {
	mode   AuthMode
	client Authenticator

	// Input fields
	usernameInput components.Input
	nameInput     components.Input
	passwordInput components.Input
	confirmInput  components.Input

	// State
	focusIndex int
	loading    bool
	err        error

	// Window size
	width  int
	height int
}

// NewAuthModel creates a new auth model
func NewAuthModel(client Authenticator) AuthModel {
	m := AuthModel{
		mode:          ModeLogin,
		client:        client,
		usernameInput: components.NewInput("Username", "Username", 50),
		nameInput:     components.NewInput("Display name", "Shown next to your comments", 100),
		passwordInput: components.NewPasswordInput("Password"),
		confirmInput:  components.NewPasswordInput("Confirm"),
	}
	m.updateFocus()
	return m
}

// Init initializes the model
func (m AuthModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m AuthModel) Update(msg tea.Msg) (AuthModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("tab", "down"))):
			return m.moveFocus(1), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("shift+tab", "up"))):
			return m.moveFocus(-1), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if m.isSubmitFocused() {
				return m.submit()
			}
			return m.moveFocus(1), nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+t"))):
			m.toggleMode()
			return m, nil
		}

	case AuthSuccessMsg:
		m.loading = false
		m.passwordInput.Reset()
		m.confirmInput.Reset()
		return m, nil

	case AuthErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil
	}

	if field := m.focusedField(); field != nil {
		return m, field.Update(msg)
	}
	return m, nil
}

// View renders the auth form
func (m AuthModel) View() string {
	var b strings.Builder

	title := "🔐 Login"
	if m.mode == ModeRegister {
		title = "📝 Register"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")

	var form strings.Builder
	for _, field := range m.fields() {
		form.WriteString(field.View())
		form.WriteString("\n")
	}
	form.WriteString("\n")

	label := "  Login  "
	if m.mode == ModeRegister {
		label = "  Register  "
	}
	submitStyle := styles.ButtonStyle
	if m.isSubmitFocused() {
		submitStyle = styles.ButtonActiveStyle
	}
	form.WriteString(submitStyle.Render(label))

	b.WriteString(styles.CardStyle.Render(form.String()))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: " + models.Classify(m.err).UserMessage()))
		b.WriteString("\n\n")
	}

	if m.loading {
		b.WriteString(styles.SpinnerStyle.Render("⟳ "))
		b.WriteString(styles.InfoStyle.Render("Processing..."))
		b.WriteString("\n\n")
	}

	other := "Register"
	if m.mode == ModeRegister {
		other = "Login"
	}
	b.WriteString(styles.RenderKeyHint("ctrl+t", "switch to "+other, "esc", "back to the thread"))

	return b.String()
}

// fields returns the inputs of the current mode in focus order
func (m *AuthModel) fields() []*components.Input {
	if m.mode == ModeRegister {
		return []*components.Input{&m.usernameInput, &m.nameInput, &m.passwordInput, &m.confirmInput}
	}
	return []*components.Input{&m.usernameInput, &m.passwordInput}
}

func (m *AuthModel) focusedField() *components.Input {
	fields := m.fields()
	if m.focusIndex < len(fields) {
		return fields[m.focusIndex]
	}
	return nil
}

// moveFocus cycles through the fields and the submit button
func (m AuthModel) moveFocus(delta int) AuthModel {
	n := len(m.fields()) + 1
	m.focusIndex = (m.focusIndex + delta + n) % n
	m.updateFocus()
	return m
}

// updateFocus updates input focus states
func (m *AuthModel) updateFocus() {
	for i, field := range m.fields() {
		if i == m.focusIndex {
			field.Focus()
		} else {
			field.Blur()
		}
	}
}

// isSubmitFocused returns true if submit button is focused
func (m AuthModel) isSubmitFocused() bool {
	return m.focusIndex == len(m.fields())
}

// toggleMode switches between login and register
func (m *AuthModel) toggleMode() {
	for _, field := range m.fields() {
		field.Blur()
	}
	if m.mode == ModeLogin {
		m.mode = ModeRegister
	} else {
		m.mode = ModeLogin
	}
	m.focusIndex = 0
	m.err = nil
	m.updateFocus()
}

// submit validates the form and starts the request
func (m AuthModel) submit() (AuthModel, tea.Cmd) {
	username := strings.TrimSpace(m.usernameInput.Value())
	password := m.passwordInput.Value()

	if username == "" {
		m.err = fmt.Errorf("username is required")
		return m, nil
	}
	if password == "" {
		m.err = fmt.Errorf("password is required")
		return m, nil
	}
	if m.mode == ModeRegister && password != m.confirmInput.Value() {
		m.err = fmt.Errorf("passwords do not match")
		return m, nil
	}

	m.loading = true
	m.err = nil

	if m.mode == ModeLogin {
		return m, m.doLogin(username, password)
	}
	return m, m.doRegister(username, strings.TrimSpace(m.nameInput.Value()), password)
}

// doLogin performs login API call
func (m AuthModel) doLogin(username, password string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.Login(ctx, username, password)
		if err != nil {
			return AuthErrorMsg{Err: err}
		}
		return AuthSuccessMsg{
			Username: resp.User.Username,
			Token:    resp.Token,
			User:     &resp.User,
		}
	}
}

// doRegister creates the account and signs in with it
func (m AuthModel) doRegister(username, displayName, password string) tea.Cmd {
	client := m.client
	login := m.doLogin(username, password)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.Register(ctx, models.RegisterRequest{
			Username:    username,
			DisplayName: displayName,
			Password:    password,
		})
		if err != nil {
			return AuthErrorMsg{Err: err}
		}
		return login()
	}
}

// Username returns the entered username
func (m AuthModel) Username() string {
	return m.usernameInput.Value()
}

// Messages

// AuthSuccessMsg is sent when auth succeeds
type AuthSuccessMsg struct {
	Username string
	Token    string
	User     *models.UserProfile
}

// AuthErrorMsg is sent when auth fails
type AuthErrorMsg struct {
	Err error
}

var _ Authenticator = (*api.Client)(nil)
