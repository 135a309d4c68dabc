package main

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/metcalfc/lexi/internal/importer"
	"github.com/metcalfc/lexi/internal/settings"
	"github.com/metcalfc/lexi/internal/speech"
)

func TestSpaceLetters(t *testing.T) {
	tests := []struct {
		line string
		gap  string
		want string
	}{
		{"abc", "", "abc"},
		{"abc", " ", "a b c"},
		{"ab cd", " ", "a b c d"},
		{"ab cd", "  ", "a  b c  d"},
		{"hé", "_", "h_é"},
		{"", "  ", ""},
	}
	for _, tt := range tests {
		if got := spaceLetters(tt.line, tt.gap); got != tt.want {
			t.Errorf("spaceLetters(%q, %q) = %q, want %q", tt.line, tt.gap, got, tt.want)
		}
	}
}

func TestWrapWords(t *testing.T) {
	measure := func(s string) float32 { return float32(len(s)) }

	tests := []struct {
		line  string
		width float32
		want  []string
	}{
		{"", 10, []string{""}},
		{"one two three", 100, []string{"one two three"}},
		{"one two three", 7, []string{"one two", "three"}},
		{"one two three", 3, []string{"one", "two", "three"}},
		{"  spaced   out  ", 20, []string{"spaced out"}},
	}
	for _, tt := range tests {
		if got := wrapWords(tt.line, tt.width, measure); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("wrapWords(%q, %v) = %q, want %q", tt.line, tt.width, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	err := &importer.ImportError{Name: "a.epub", Err: importer.ErrUnsupportedType}
	if got := userMessage(err); !strings.Contains(got, ".docx") {
		t.Errorf("userMessage(unsupported) = %q", got)
	}
	if got := userMessage(speech.ErrTTSUnsupported); !strings.Contains(got, "speech_cmd") {
		t.Errorf("userMessage(tts) = %q", got)
	}
	if got := userMessage(errors.New("boom")); got != "Error: boom" {
		t.Errorf("userMessage = %q", got)
	}
}

func TestThemeName(t *testing.T) {
	if got := themeName(settings.Default()); got != "custom" {
		t.Errorf("themeName(default) = %q", got)
	}
	dark, _ := settings.LookupTheme("dark")
	if got := themeName(settings.Default().WithTheme(dark)); got != "dark" {
		t.Errorf("themeName(dark) = %q", got)
	}
}

func TestContrastNote(t *testing.T) {
	if got := contrastNote(settings.Default()); got != "" {
		t.Errorf("contrastNote(default) = %q", got)
	}
	st := settings.Default()
	st.BackgroundColor = "#777777"
	st.TextColor = "#888888"
	if got := contrastNote(st); !strings.HasPrefix(got, "low contrast") {
		t.Errorf("contrastNote(grey on grey) = %q", got)
	}
}

func TestVersionString(t *testing.T) {
	if got := versionString(); !strings.HasPrefix(got, "lexi dev") {
		t.Errorf("versionString() = %q", got)
	}
}
