package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"threadhub/internal/tui/views"
)

// KeyMap defines the global key bindings; the thread view owns the rest
type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Login     key.Binding
	Logout    key.Binding
	Back      key.Binding

	Thread views.ThreadKeyMap
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Login: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "sign in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "sign out"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Thread: views.DefaultThreadKeyMap(),
	}
}

// ShortHelp returns a short help message
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Login, k.Logout, k.Help, k.Quit,
	}
}

// FullHelp returns the full help message
func (k KeyMap) FullHelp() [][]key.Binding {
	t := k.Thread
	return [][]key.Binding{
		{t.Up, t.Down, t.Top, t.Bottom},
		{t.Comment, t.Reply, t.Delete, t.Reload},
		{t.Like, t.Dislike, t.ArticleLike, t.ArticleDislike},
		{k.Login, k.Logout, k.Help, k.Quit},
	}
}
