package styles

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

const defaultThemeName = "dark"

var themeRegistry = registry(darkTheme, lightTheme, gruvboxTheme, nordTheme, draculaTheme)

func registry(themes ...Theme) map[string]Theme {
	m := make(map[string]Theme, len(themes))
	for _, t := range themes {
		m[t.Name] = t
	}
	return m
}

// GetThemeByName returns the built-in theme called name. The error wraps
// ErrThemeNotFound.
func GetThemeByName(name string) (Theme, error) {
	if theme, ok := themeRegistry[name]; ok {
		return theme, nil
	}
	return Theme{}, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
}

// GetThemeByNameWithFallback is GetThemeByName with the default theme for unknown names.
func GetThemeByNameWithFallback(name string) Theme {
	if theme, err := GetThemeByName(name); err == nil {
		return theme
	}
	return GetDefaultTheme()
}

func GetDefaultTheme() Theme {
	return themeRegistry[defaultThemeName]
}

// ListAvailableThemes returns the built-in theme names in sorted order.
func ListAvailableThemes() []string {
	names := make([]string, 0, len(themeRegistry))
	for name := range themeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var darkTheme = Theme{
	Name: "dark",

	Primary:   lipgloss.Color("33"),  // Blue - headers
	Secondary: lipgloss.Color("39"),  // Cyan - repository and branch names
	Accent:    lipgloss.Color("212"), // Magenta - hunk headers, comment counts

	Added:   lipgloss.Color("42"),  // Green
	Edited:  lipgloss.Color("214"), // Orange
	Removed: lipgloss.Color("196"), // Red

	Foreground:      lipgloss.Color("252"),
	ForegroundMuted: lipgloss.Color("243"),
	Border:          lipgloss.Color("240"),
	Link:            lipgloss.Color("75"),
}

// lightTheme keeps ANSI codes readable on white backgrounds.
var lightTheme = Theme{
	Name: "light",

	Primary:   lipgloss.Color("25"),
	Secondary: lipgloss.Color("30"),
	Accent:    lipgloss.Color("127"),

	Added:   lipgloss.Color("28"),
	Edited:  lipgloss.Color("130"),
	Removed: lipgloss.Color("160"),

	Foreground:      lipgloss.Color("235"),
	ForegroundMuted: lipgloss.Color("245"),
	Border:          lipgloss.Color("250"),
	Link:            lipgloss.Color("25"),
}

var gruvboxTheme = Theme{
	Name: "gruvbox",

	Primary:   lipgloss.Color("#83a598"),
	Secondary: lipgloss.Color("#8ec07c"),
	Accent:    lipgloss.Color("#d3869b"),

	Added:   lipgloss.Color("#b8bb26"),
	Edited:  lipgloss.Color("#fabd2f"),
	Removed: lipgloss.Color("#fb4934"),

	Foreground:      lipgloss.Color("#ebdbb2"),
	ForegroundMuted: lipgloss.Color("#928374"),
	Border:          lipgloss.Color("#665c54"),
	Link:            lipgloss.Color("#83a598"),
}

var nordTheme = Theme{
	Name: "nord",

	Primary:   lipgloss.Color("#88c0d0"),
	Secondary: lipgloss.Color("#81a1c1"),
	Accent:    lipgloss.Color("#b48ead"),

	Added:   lipgloss.Color("#a3be8c"),
	Edited:  lipgloss.Color("#ebcb8b"),
	Removed: lipgloss.Color("#bf616a"),

	Foreground:      lipgloss.Color("#eceff4"),
	ForegroundMuted: lipgloss.Color("#4c566a"),
	Border:          lipgloss.Color("#434c5e"),
	Link:            lipgloss.Color("#88c0d0"),
}

var draculaTheme = Theme{
	Name: "dracula",

	Primary:   lipgloss.Color("#bd93f9"),
	Secondary: lipgloss.Color("#8be9fd"),
	Accent:    lipgloss.Color("#ff79c6"),

	Added:   lipgloss.Color("#50fa7b"),
	Edited:  lipgloss.Color("#ffb86c"),
	Removed: lipgloss.Color("#ff5555"),

	Foreground:      lipgloss.Color("#f8f8f2"),
	ForegroundMuted: lipgloss.Color("#6272a4"),
	Border:          lipgloss.Color("#44475a"),
	Link:            lipgloss.Color("#8be9fd"),
}
