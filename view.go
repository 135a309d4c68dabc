package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/metcalfc/lexi/internal/importer"
	"github.com/metcalfc/lexi/internal/settings"
	"github.com/metcalfc/lexi/internal/speech"
)

// spaceLetters inserts gap between adjacent runes of each word.
func spaceLetters(line, gap string) string {
	if gap == "" {
		return line
	}
	var sb strings.Builder
	prev := ' '
	for i, r := range line {
		if i > 0 && r != ' ' && prev != ' ' {
			sb.WriteString(gap)
		}
		sb.WriteRune(r)
		prev = r
	}
	return sb.String()
}

// wrapWords breaks line into rows no wider than width as reported by
// measure. A single word wider than width gets a row of its own.
func wrapWords(line string, width float32, measure func(string) float32) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}
	var rows []string
	row := words[0]
	for _, w := range words[1:] {
		candidate := row + " " + w
		if measure(candidate) <= width {
			row = candidate
			continue
		}
		rows = append(rows, row)
		row = w
	}
	return append(rows, row)
}

func themeName(st settings.Settings) string {
	if t, ok := st.MatchTheme(); ok {
		return t.Name
	}
	return "custom"
}

// minContrast is the WCAG AA ratio for body text.
const minContrast = 4.5

// contrastNote warns about color pairs below minContrast.
func contrastNote(st settings.Settings) string {
	if r := st.Contrast(); r < minContrast {
		return fmt.Sprintf("low contrast %.1f:1", r)
	}
	return ""
}

// userMessage turns an error into a status line message.
func userMessage(err error) string {
	switch {
	case errors.Is(err, importer.ErrUnsupportedType):
		return fmt.Sprintf("Unsupported file type. Supported: %s", strings.Join(importer.Extensions(), " "))
	case errors.Is(err, speech.ErrTTSUnsupported):
		return "Read aloud is not available: install espeak-ng or spd-say, or set speech_cmd"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
