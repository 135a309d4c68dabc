// Package settings holds the reading preferences and their persisted form.
package settings

import (
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Font selects the display typeface.
type Font string

const (
	FontNormal       Font = "normal"
	FontOpenDyslexic Font = "openDyslexic"
)

// ParseFont maps a stored or user-entered name to a Font.
func ParseFont(s string) (Font, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return FontNormal, true
	case "opendyslexic":
		return FontOpenDyslexic, true
	}
	return "", false
}

// Range is a closed numeric interval with the UI step for that control.
type Range struct {
	Min  float64
	Max  float64
	Step float64
}

// Clamp returns v limited to [Min, Max]. NaN maps to Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside the interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

var (
	FontSizeRange      = Range{Min: 14, Max: 48, Step: 1}
	LineHeightRange    = Range{Min: 1.0, Max: 2.4, Step: 0.1}
	LetterSpacingRange = Range{Min: 0, Max: 4, Step: 0.5}
	SpeechRateRange    = Range{Min: 0.5, Max: 2.0, Step: 0.1}
)

// Settings are the display and reading preferences for one session.
type Settings struct {
	Font            Font
	FontSizePx      float64
	LineHeight      float64
	LetterSpacingPx float64
	BackgroundColor string
	TextColor       string
	SpeechRate      float64
}

// Default returns the startup preferences.
func Default() Settings {
	return Settings{
		Font:            FontNormal,
		FontSizePx:      18,
		LineHeight:      1.6,
		LetterSpacingPx: 0,
		BackgroundColor: "#fdf6e3",
		TextColor:       "#1a1a1a",
		SpeechRate:      1.0,
	}
}

// Clamp returns a copy with every numeric field inside its range and
// unknown fonts or unparsable colors replaced by the defaults.
func (s Settings) Clamp() Settings {
	return s.ClampFrom(Default())
}

// ClampFrom is Clamp with an unknown font or unparsable color falling back
// to the value in prev instead of the default.
func (s Settings) ClampFrom(prev Settings) Settings {
	prev = prev.fallbacks()
	if _, ok := ParseFont(string(s.Font)); !ok {
		s.Font = prev.Font
	}
	s.FontSizePx = FontSizeRange.Clamp(s.FontSizePx)
	s.LineHeight = LineHeightRange.Clamp(s.LineHeight)
	s.LetterSpacingPx = LetterSpacingRange.Clamp(s.LetterSpacingPx)
	s.SpeechRate = SpeechRateRange.Clamp(s.SpeechRate)
	if c, ok := NormalizeColor(s.BackgroundColor); ok {
		s.BackgroundColor = c
	} else {
		s.BackgroundColor = prev.BackgroundColor
	}
	if c, ok := NormalizeColor(s.TextColor); ok {
		s.TextColor = c
	} else {
		s.TextColor = prev.TextColor
	}
	return s
}

// fallbacks replaces invalid font and colors in s with the defaults.
func (s Settings) fallbacks() Settings {
	def := Default()
	if _, ok := ParseFont(string(s.Font)); !ok {
		s.Font = def.Font
	}
	if c, ok := NormalizeColor(s.BackgroundColor); ok {
		s.BackgroundColor = c
	} else {
		s.BackgroundColor = def.BackgroundColor
	}
	if c, ok := NormalizeColor(s.TextColor); ok {
		s.TextColor = c
	} else {
		s.TextColor = def.TextColor
	}
	return s
}

// NormalizeColor parses a hex color and returns it as lowercase #rrggbb.
func NormalizeColor(s string) (string, bool) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return c.Hex(), true
}

// Contrast returns the WCAG contrast ratio between the text and background
// colors, or 0 if either color is invalid.
func (s Settings) Contrast() float64 {
	bg, err := colorful.Hex(s.BackgroundColor)
	if err != nil {
		return 0
	}
	fg, err := colorful.Hex(s.TextColor)
	if err != nil {
		return 0
	}
	l1, l2 := luminance(bg), luminance(fg)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
