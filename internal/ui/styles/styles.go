package styles

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	Theme Theme

	// Text
	Header lipgloss.Style
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
	Link   lipgloss.Style
	Error  lipgloss.Style

	// File tree
	Folder     lipgloss.Style
	FileAdd    lipgloss.Style
	FileEdit   lipgloss.Style
	FileDelete lipgloss.Style
	Comments   lipgloss.Style

	// Diff
	HunkHeader  lipgloss.Style
	LineAdded   lipgloss.Style
	LineRemoved lipgloss.Style
	LineContext lipgloss.Style
	LineNumber  lipgloss.Style

	// Tables
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableBorder lipgloss.Style
}

// NewStyles creates a new Styles instance from the given theme.
func NewStyles(theme Theme) *Styles {
	s := &Styles{Theme: theme}

	s.Header = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	s.Title = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	s.Label = lipgloss.NewStyle().Foreground(theme.Edited).Bold(true)
	s.Value = lipgloss.NewStyle().Foreground(theme.Foreground)
	s.Muted = lipgloss.NewStyle().Foreground(theme.ForegroundMuted)
	s.Link = lipgloss.NewStyle().Foreground(theme.Link).Underline(true)
	s.Error = lipgloss.NewStyle().Foreground(theme.Removed)

	s.Folder = lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	s.FileAdd = lipgloss.NewStyle().Foreground(theme.Added)
	s.FileEdit = lipgloss.NewStyle().Foreground(theme.Edited)
	s.FileDelete = lipgloss.NewStyle().Foreground(theme.Removed).Strikethrough(true)
	s.Comments = lipgloss.NewStyle().Foreground(theme.Accent)

	s.HunkHeader = lipgloss.NewStyle().Foreground(theme.Accent)
	s.LineAdded = lipgloss.NewStyle().Foreground(theme.Added)
	s.LineRemoved = lipgloss.NewStyle().Foreground(theme.Removed)
	s.LineContext = lipgloss.NewStyle().Foreground(theme.Foreground)
	s.LineNumber = lipgloss.NewStyle().Foreground(theme.ForegroundMuted)

	s.TableHeader = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Padding(0, 1)
	s.TableCell = lipgloss.NewStyle().Foreground(theme.Foreground).Padding(0, 1)
	s.TableBorder = lipgloss.NewStyle().Foreground(theme.Border)

	return s
}

// ForTheme returns styles for the named theme, falling back to the default theme.
func ForTheme(name string) *Styles {
	return NewStyles(GetThemeByNameWithFallback(name))
}

// DefaultStyles returns styles using the default dark theme.
func DefaultStyles() *Styles {
	return NewStyles(GetDefaultTheme())
}
