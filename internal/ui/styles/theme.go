package styles

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	ErrThemeNameRequired = errors.New("theme name is required")
	ErrThemeNotFound     = errors.New("theme not found")
)

// Theme is a named palette. Colors are ANSI 256 codes ("33") or hex ("#7c6f64").
type Theme struct {
	Name string

	// Primary colors headers, Secondary names (repositories, branches) and
	// Accent hunk headers and comment counts.
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Change colors are used for tree entries and diff lines alike.
	Added   lipgloss.Color
	Edited  lipgloss.Color
	Removed lipgloss.Color

	Foreground      lipgloss.Color
	ForegroundMuted lipgloss.Color
	Border          lipgloss.Color
	Link            lipgloss.Color
}

// Validate reports a theme without a name or without change colors, since
// added, edited and removed entries would be indistinguishable.
func (t Theme) Validate() error {
	if t.Name == "" {
		return ErrThemeNameRequired
	}
	if t.Added == "" || t.Edited == "" || t.Removed == "" {
		return fmt.Errorf("theme %q must define added, edited and removed colors", t.Name)
	}
	return nil
}
