package app

import (
	"fmt"

	"github.com/metcalfc/lexi/internal/buffer"
	"github.com/metcalfc/lexi/internal/speech"
)

// ReadMode selects how the buffer is presented.
type ReadMode string

const (
	// ModeRead shows the text without speech.
	ModeRead ReadMode = "read"
	// ModeHighlight shows the text and reads it aloud, marking the spoken word.
	ModeHighlight ReadMode = "highlight"
	// ModeListen hides the text and reads it aloud.
	ModeListen ReadMode = "listen"
)

// ReadModes lists the modes in display order.
var ReadModes = []ReadMode{ModeRead, ModeHighlight, ModeListen}

// ParseReadMode accepts the mode names.
func ParseReadMode(s string) (ReadMode, error) {
	for _, m := range ReadModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown read mode %q", s)
}

// Mode returns the current read mode.
func (s *Session) Mode() ReadMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode stops any speech and switches mode. ModeHighlight and ModeListen
// start reading the buffer; if that fails the session stays in ModeRead.
// done is nil for ModeRead.
func (s *Session) SetMode(m ReadMode) (done <-chan struct{}, err error) {
	if _, err := ParseReadMode(string(m)); err != nil {
		return nil, err
	}
	s.speech.Stop()

	if m != ModeRead {
		done, err = s.Play()
		if err != nil {
			m = ModeRead
		}
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	s.logger.Info("read mode", "mode", string(m))
	return done, err
}

// TextVisible reports whether front ends should show the buffer.
func (s *Session) TextVisible() bool {
	return s.Mode() != ModeListen
}

// Highlight returns the index, within buffer.ParseWords of the buffer, of
// the word estimated to be spoken now. ok is false outside ModeHighlight,
// when idle, or once the buffer no longer matches the spoken snapshot.
func (s *Session) Highlight() (index int, ok bool) {
	s.mu.Lock()
	mode, spoken, rate := s.mode, s.spoken, s.rate
	s.mu.Unlock()

	if mode != ModeHighlight || s.speech.State() != speech.StateSpeaking {
		return 0, false
	}
	elapsed, ok := s.speech.Elapsed()
	if !ok || s.buf.Text() != spoken {
		return 0, false
	}
	words := buffer.ParseWords(spoken)
	if len(words) == 0 {
		return 0, false
	}
	return speech.WordAt(elapsed, rate, len(words)), true
}
