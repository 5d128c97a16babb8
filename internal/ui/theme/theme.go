package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme and styles for the UI
type Theme struct {
	Name string

	// Base colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color

	// Semantic colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color

	// Task state colors
	Pending   lipgloss.Color
	Completed lipgloss.Color
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	// Base styles
	Header lipgloss.Style
	Footer lipgloss.Style

	// Task styles
	TaskNormal   lipgloss.Style
	TaskSelected lipgloss.Style
	TaskDone     lipgloss.Style
	CheckPending lipgloss.Style
	CheckDone    lipgloss.Style

	// Component styles
	Title lipgloss.Style
	Label lipgloss.Style

	// Input styles
	Input        lipgloss.Style
	InputFocused lipgloss.Style
	Placeholder  lipgloss.Style

	// Panel styles
	Panel lipgloss.Style

	// Alert dialog
	Alert       lipgloss.Style
	AlertError  lipgloss.Style
	AlertTitle  lipgloss.Style
	AlertFailed lipgloss.Style

	// Help styles
	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		// Base styles
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Padding(0, 1),

		// Task styles
		TaskNormal: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		TaskSelected: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Highlight).
			Padding(0, 1),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Strikethrough(true).
			Padding(0, 1),

		CheckPending: lipgloss.NewStyle().
			Foreground(t.Pending),

		CheckDone: lipgloss.NewStyle().
			Foreground(t.Completed).
			Bold(true),

		// Component styles
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			MarginBottom(1),

		Label: lipgloss.NewStyle().
			Foreground(t.Subtle),

		// Input styles
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),

		Placeholder: lipgloss.NewStyle().
			Foreground(t.Subtle),

		// Panel styles
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),

		// Alert dialog
		Alert: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(t.Success).
			Padding(1, 3),

		AlertError: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(t.Error).
			Padding(1, 3),

		AlertTitle: lipgloss.NewStyle().
			Foreground(t.Success).
			Bold(true),

		AlertFailed: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		// Help styles
		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.Subtle),

		HelpSeparator: lipgloss.NewStyle().
			Foreground(t.Border),
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{
		Nord,
		Dracula,
		Gruvbox,
		Catppuccin,
	}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Next returns the theme after the one named name, wrapping around
func Next(name string) Theme {
	themes := Available()
	for i, t := range themes {
		if t.Name == name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}
