package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Dracula color palette
const (
	Background  = "#282a36"
	CurrentLine = "#44475a"
	Foreground  = "#f8f8f2"
	Comment     = "#6272a4"
	Cyan        = "#8be9fd"
	Green       = "#50fa7b"
	Orange      = "#ffb86c"
	Pink        = "#ff79c6"
	Purple      = "#bd93f9"
	Red         = "#ff5555"
	Yellow      = "#f1fa8c"
)

var (
	// App-level styles
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Foreground(lipgloss.Color(Foreground))

	// Title styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(Purple)).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Cyan))

	// Status bar styles
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Foreground)).
			Background(lipgloss.Color(CurrentLine)).
			Padding(0, 1)

	StatusBarActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Green)).
				Background(lipgloss.Color(CurrentLine)).
				Bold(true).
				Padding(0, 1)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Foreground)).
			Background(lipgloss.Color(CurrentLine)).
			Padding(0, 1)

	InputFocusedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Pink)).
				Background(lipgloss.Color(CurrentLine)).
				Bold(true).
				Padding(0, 1)

	InputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Purple)).
				Bold(true)

	// Comment list styles
	CommentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Foreground)).
			PaddingLeft(2)

	CommentSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Foreground)).
				Background(lipgloss.Color(CurrentLine)).
				PaddingLeft(1).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(lipgloss.Color(Pink))

	AuthorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Cyan)).
			Bold(true)

	MetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Comment))

	PendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Orange)).
			Italic(true)

	LikeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Green))

	LikeActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Green)).
			Bold(true).
			Underline(true)

	DislikeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Red))

	DislikeActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Red)).
				Bold(true).
				Underline(true)

	// Button styles
	ButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Foreground)).
			Background(lipgloss.Color(CurrentLine)).
			Padding(0, 2).
			MarginRight(2)

	ButtonActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Background)).
				Background(lipgloss.Color(Purple)).
				Bold(true).
				Padding(0, 2).
				MarginRight(2)

	// Card/Box styles
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Purple)).
			Padding(1, 2).
			MarginBottom(1)

	CardContentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(Foreground))

	// Info/Alert styles
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Cyan)).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Green)).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Yellow)).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Red)).
			Bold(true)

	// Help/Hints styles
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Comment)).
			Italic(true)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Purple)).
			Bold(true)

	// Metadata styles
	MetaKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Purple)).
			Bold(true)

	// Divider/Border styles
	DividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(CurrentLine))

	// Spinner styles
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(Purple))

	// Dialog/Modal styles
	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Pink)).
			Padding(1, 2)
)

// RenderDivider renders a horizontal divider
func RenderDivider(width int) string {
	if width <= 0 {
		width = 40
	}
	return DividerStyle.Render(strings.Repeat("─", width))
}

// RenderKeyHint renders "key action" pairs for help bars
func RenderKeyHint(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, HelpKeyStyle.Render(pairs[i])+" "+HelpStyle.Render(pairs[i+1]))
	}
	return strings.Join(parts, HelpStyle.Render(" • "))
}
