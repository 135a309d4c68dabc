package settings

import "strings"

// Theme is a named background/text color pair.
type Theme struct {
	Name            string
	BackgroundColor string
	TextColor       string
}

// Themes lists the built-in color presets in display order.
var Themes = []Theme{
	{Name: "light", BackgroundColor: "#ffffff", TextColor: "#000000"},
	{Name: "dark", BackgroundColor: "#2b2b2b", TextColor: "#ffffff"},
	{Name: "yellow-on-black", BackgroundColor: "#000000", TextColor: "#ffff00"},
	{Name: "blue-on-cream", BackgroundColor: "#fdf5e6", TextColor: "#00008b"},
}

// LookupTheme finds a preset by name, case-insensitively.
func LookupTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t, true
		}
	}
	return Theme{}, false
}

// ThemeNames returns the preset names in display order.
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// WithTheme returns a copy of s using the theme's colors.
func (s Settings) WithTheme(t Theme) Settings {
	s.BackgroundColor = t.BackgroundColor
	s.TextColor = t.TextColor
	return s
}

// MatchTheme returns the preset whose colors equal the current ones.
func (s Settings) MatchTheme() (Theme, bool) {
	for _, t := range Themes {
		if strings.EqualFold(t.BackgroundColor, s.BackgroundColor) && strings.EqualFold(t.TextColor, s.TextColor) {
			return t, true
		}
	}
	return Theme{}, false
}
