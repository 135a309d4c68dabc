// Package app is the headless session core shared by the terminal and
// desktop front ends. It owns the one text buffer and the one settings set
// of a session and routes user actions to the importer, the read-aloud
// controller and the output sinks.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/metcalfc/lexi/internal/buffer"
	"github.com/metcalfc/lexi/internal/capture"
	"github.com/metcalfc/lexi/internal/importer"
	"github.com/metcalfc/lexi/internal/output"
	"github.com/metcalfc/lexi/internal/settings"
	"github.com/metcalfc/lexi/internal/speech"
)

var (
	// ErrImportBusy is returned when an import is requested while another
	// is still running.
	ErrImportBusy = errors.New("an import is already in progress")
	// ErrUnknownTheme is returned by ApplyTheme for names not in settings.Themes.
	ErrUnknownTheme = errors.New("unknown theme")
)

// DocumentImporter turns a file into text.
type DocumentImporter interface {
	Import(ctx context.Context, f importer.File) (string, error)
}

// Session is safe for concurrent use; front ends still apply its results
// on their own UI loop.
type Session struct {
	store     *settings.Store
	buf       *buffer.Buffer
	importer  DocumentImporter
	speech    *speech.Controller
	clipboard output.Clipboard
	capturer  capture.Capturer
	exportDir string
	logger    *slog.Logger

	mu        sync.Mutex
	settings  settings.Settings
	importing bool
	mode      ReadMode
	spoken    string
	rate      float64
}

// Option configures a Session.
type Option func(*Session)

func WithImporter(im DocumentImporter) Option {
	return func(s *Session) { s.importer = im }
}

func WithSpeech(c *speech.Controller) Option {
	return func(s *Session) { s.speech = c }
}

func WithClipboard(cb output.Clipboard) Option {
	return func(s *Session) { s.clipboard = cb }
}

func WithCapturer(c capture.Capturer) Option {
	return func(s *Session) { s.capturer = c }
}

func WithExportDir(dir string) Option {
	return func(s *Session) { s.exportDir = dir }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New loads the persisted settings from store and returns a session with
// the welcome placeholder in its buffer.
func New(store *settings.Store, opts ...Option) *Session {
	s := &Session{
		store:     store,
		buf:       buffer.New(),
		exportDir: ".",
		logger:    slog.New(slog.DiscardHandler),
		mode:      ModeRead,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.importer == nil {
		s.importer = importer.New(importer.WithLogger(s.logger))
	}
	if s.speech == nil {
		s.speech = speech.NewController(nil, speech.WithLogger(s.logger))
	}
	if s.clipboard == nil {
		s.clipboard = output.SystemClipboard{}
	}
	if s.capturer == nil {
		s.capturer = capture.NewScreen()
	}
	s.settings = store.Load()
	return s
}

// Settings returns the current settings.
func (s *Session) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings applies fn to the current settings, clamps the result and
// persists it. An unknown font or unparsable color keeps the current value.
// The in-memory value is updated even when saving fails.
func (s *Session) UpdateSettings(fn func(settings.Settings) settings.Settings) (settings.Settings, error) {
	s.mu.Lock()
	next := fn(s.settings).ClampFrom(s.settings)
	s.settings = next
	s.mu.Unlock()

	if err := s.store.Save(next); err != nil {
		s.logger.Error("settings not saved", "error", err.Error())
		return next, err
	}
	return next, nil
}

// ApplyTheme sets both colors from the named theme.
func (s *Session) ApplyTheme(name string) (settings.Settings, error) {
	theme, ok := settings.LookupTheme(name)
	if !ok {
		return s.Settings(), fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return s.UpdateSettings(func(st settings.Settings) settings.Settings {
		return st.WithTheme(theme)
	})
}

// NextTheme applies the theme after the one matching the current colors,
// or the first theme when the colors are custom.
func (s *Session) NextTheme() (settings.Settings, error) {
	next := settings.Themes[0]
	if cur, ok := s.Settings().MatchTheme(); ok {
		for i, t := range settings.Themes {
			if t.Name == cur.Name {
				next = settings.Themes[(i+1)%len(settings.Themes)]
				break
			}
		}
	}
	return s.ApplyTheme(next.Name)
}

// ResetSettings drops the persisted blob and restores defaults.
func (s *Session) ResetSettings() (settings.Settings, error) {
	if err := s.store.Reset(); err != nil {
		return s.Settings(), err
	}
	s.mu.Lock()
	s.settings = settings.Default()
	s.mu.Unlock()
	s.logger.Info("settings reset")
	return settings.Default(), nil
}

// Text returns the buffer contents.
func (s *Session) Text() string { return s.buf.Text() }

// SetText records a user edit.
func (s *Session) SetText(text string) { s.buf.Replace(text) }

// Clear empties the buffer.
func (s *Session) Clear() { s.buf.Clear() }

// Stats describes the buffer contents.
func (s *Session) Stats() buffer.Stats { return s.buf.Stats() }

// Importing reports whether an import is running.
func (s *Session) Importing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.importing
}

// Import extracts text from f and loads it. On failure the buffer is left
// untouched.
func (s *Session) Import(ctx context.Context, f importer.File) (string, error) {
	if err := s.begin(); err != nil {
		return "", err
	}
	defer s.end()
	return s.load(ctx, f)
}

// CaptureScreen grabs the whole screen and loads its OCR text like an
// imported image.
func (s *Session) CaptureScreen(ctx context.Context) (string, error) {
	if err := s.begin(); err != nil {
		return "", err
	}
	defer s.end()

	data, err := s.capturer.Capture(ctx)
	if err != nil {
		s.logger.Error("screen capture failed", "error", err.Error())
		return "", err
	}
	return s.load(ctx, namedReader{Reader: bytes.NewReader(data), name: capture.FileName})
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.importing {
		return ErrImportBusy
	}
	s.importing = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.importing = false
	s.mu.Unlock()
}

// load stops any speech, replaces the buffer and drops back to ModeRead
// once f has been extracted.
func (s *Session) load(ctx context.Context, f importer.File) (string, error) {
	text, err := s.importer.Import(ctx, f)
	if err != nil {
		return "", err
	}
	s.speech.Stop()
	s.buf.Replace(text)
	s.mu.Lock()
	s.mode = ModeRead
	s.mu.Unlock()
	return text, nil
}

type namedReader struct {
	*bytes.Reader
	name string
}

func (n namedReader) Name() string { return n.name }

// Play reads a snapshot of the buffer aloud at the configured rate. Edits
// made while speaking do not affect the utterance.
func (s *Session) Play() (<-chan struct{}, error) {
	text := s.buf.Text()
	rate := s.Settings().SpeechRate
	done, err := s.speech.Play(text, rate)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.spoken, s.rate = text, rate
	s.mu.Unlock()
	return done, nil
}

// Stop halts read-aloud.
func (s *Session) Stop() { s.speech.Stop() }

// SpeechState reports the read-aloud state.
func (s *Session) SpeechState() speech.State { return s.speech.State() }

// SpeechSupported reports whether Play can succeed.
func (s *Session) SpeechSupported() bool { return s.speech.Supported() }

// Export writes the buffer to text.txt in the export directory.
func (s *Session) Export() (string, error) {
	path, err := output.Export(s.exportDir, s.buf.Text())
	if err != nil {
		s.logger.Error("export failed", "error", err.Error())
		return "", err
	}
	s.logger.Info("exported", "path", path)
	return path, nil
}

// Copy places the buffer on the clipboard.
func (s *Session) Copy() error {
	if err := output.Copy(s.clipboard, s.buf.Text()); err != nil {
		s.logger.Error("copy failed", "error", err.Error())
		return err
	}
	return nil
}
