package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metcalfc/lexi/internal/buffer"
	"github.com/metcalfc/lexi/internal/capture"
	"github.com/metcalfc/lexi/internal/importer"
	"github.com/metcalfc/lexi/internal/output"
	"github.com/metcalfc/lexi/internal/settings"
	"github.com/metcalfc/lexi/internal/speech"
	"github.com/metcalfc/lexi/internal/state"
)

type memFile struct {
	*bytes.Reader
	name string
}

func (f memFile) Name() string { return f.name }

func file(name, body string) memFile {
	return memFile{Reader: bytes.NewReader([]byte(body)), name: name}
}

// blockingImporter holds every import until release is closed.
type blockingImporter struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingImporter) Import(ctx context.Context, f importer.File) (string, error) {
	b.started <- struct{}{}
	<-b.release
	return "late", nil
}

type speakingSynth struct {
	mu    sync.Mutex
	texts []string
	rates []float64
}

func (s *speakingSynth) Available() bool { return true }

func (s *speakingSynth) Speak(ctx context.Context, text string, rate float64) error {
	s.mu.Lock()
	s.texts = append(s.texts, text)
	s.rates = append(s.rates, rate)
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func newSession(t *testing.T, opts ...Option) (*Session, *state.MemoryStore) {
	t.Helper()
	kv := state.NewMemoryStore()
	return New(settings.NewStore(kv, nil), opts...), kv
}

func TestNewStartsWithPlaceholderAndDefaults(t *testing.T) {
	s, _ := newSession(t)
	require.Equal(t, buffer.Placeholder, s.Text())
	require.Equal(t, settings.Default(), s.Settings())
	require.Equal(t, speech.StateIdle, s.SpeechState())
	require.False(t, s.Importing())
}

func TestNewLoadsPersistedSettings(t *testing.T) {
	kv := state.NewMemoryStore()
	require.NoError(t, kv.Set(settings.StorageKey, []byte(`{"font":"openDyslexic","fontSize":99}`)))

	s := New(settings.NewStore(kv, nil))
	require.Equal(t, settings.FontOpenDyslexic, s.Settings().Font)
	require.Equal(t, 48.0, s.Settings().FontSizePx)
}

func TestUpdateSettingsClampsAndPersists(t *testing.T) {
	s, kv := newSession(t)

	got, err := s.UpdateSettings(func(st settings.Settings) settings.Settings {
		st.FontSizePx = 200
		st.LineHeight = 0.2
		return st
	})
	require.NoError(t, err)
	require.Equal(t, 48.0, got.FontSizePx)
	require.Equal(t, 1.0, got.LineHeight)

	reloaded := settings.NewStore(kv, nil).Load()
	require.Equal(t, got.FontSizePx, reloaded.FontSizePx)
	require.Equal(t, got.LineHeight, reloaded.LineHeight)
}

func TestUpdateSettingsKeepsPreviousColorOnBadInput(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.ApplyTheme("yellow-on-black")
	require.NoError(t, err)

	got, err := s.UpdateSettings(func(st settings.Settings) settings.Settings {
		st.BackgroundColor = "not-a-color"
		return st
	})
	require.NoError(t, err)
	require.Equal(t, "#000000", got.BackgroundColor)
	require.Equal(t, "#ffff00", got.TextColor)
}

func TestApplyTheme(t *testing.T) {
	s, _ := newSession(t)

	got, err := s.ApplyTheme("dark")
	require.NoError(t, err)
	require.Equal(t, "#2b2b2b", got.BackgroundColor)
	require.Equal(t, "#ffffff", got.TextColor)

	_, err = s.ApplyTheme("neon")
	require.ErrorIs(t, err, ErrUnknownTheme)
	require.Equal(t, "#2b2b2b", s.Settings().BackgroundColor)
}

func TestNextThemeCycles(t *testing.T) {
	s, _ := newSession(t)

	first, err := s.NextTheme()
	require.NoError(t, err)
	require.Equal(t, settings.Themes[0].BackgroundColor, first.BackgroundColor)

	for i := 1; i <= len(settings.Themes); i++ {
		got, err := s.NextTheme()
		require.NoError(t, err)
		want := settings.Themes[i%len(settings.Themes)]
		require.Equal(t, want.BackgroundColor, got.BackgroundColor)
	}
}

func TestResetSettings(t *testing.T) {
	s, kv := newSession(t)
	_, err := s.UpdateSettings(func(st settings.Settings) settings.Settings {
		st.Font = settings.FontOpenDyslexic
		return st
	})
	require.NoError(t, err)

	got, err := s.ResetSettings()
	require.NoError(t, err)
	require.Equal(t, settings.Default(), got)
	_, ok, err := kv.Get(settings.StorageKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestImportReplacesBuffer(t *testing.T) {
	s, _ := newSession(t)

	text, err := s.Import(context.Background(), file("notes.TXT", "hello\nworld"))
	require.NoError(t, err)
	require.Equal(t, "hello\nworld", text)
	require.Equal(t, "hello\nworld", s.Text())
	require.False(t, s.Importing())
}

func TestImportUnsupportedLeavesBufferUntouched(t *testing.T) {
	s, _ := newSession(t)
	s.SetText("keep me")

	_, err := s.Import(context.Background(), file("book.epub", "ignored"))
	require.ErrorIs(t, err, importer.ErrUnsupportedType)
	require.Equal(t, "keep me", s.Text())
	require.False(t, s.Importing())
}

func TestImportWhileBusy(t *testing.T) {
	im := blockingImporter{started: make(chan struct{}, 1), release: make(chan struct{})}
	s, _ := newSession(t, WithImporter(im))

	errc := make(chan error, 1)
	go func() {
		_, err := s.Import(context.Background(), file("a.txt", "a"))
		errc <- err
	}()
	<-im.started
	require.True(t, s.Importing())

	_, err := s.Import(context.Background(), file("b.txt", "b"))
	require.ErrorIs(t, err, ErrImportBusy)

	close(im.release)
	require.NoError(t, <-errc)
	require.Equal(t, "late", s.Text())
	require.False(t, s.Importing())
}

func TestImportStopsSpeech(t *testing.T) {
	synth := &speakingSynth{}
	s, _ := newSession(t, WithSpeech(speech.NewController(synth)))
	s.SetText("first")

	done, err := s.Play()
	require.NoError(t, err)
	require.Equal(t, speech.StateSpeaking, s.SpeechState())

	_, err = s.Import(context.Background(), file("b.txt", "second"))
	require.NoError(t, err)
	require.Equal(t, speech.StateIdle, s.SpeechState())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("utterance not cancelled by import")
	}
}

func TestPlayUsesSnapshotAndRate(t *testing.T) {
	synth := &speakingSynth{}
	s, _ := newSession(t, WithSpeech(speech.NewController(synth)))
	s.SetText("read this")
	_, err := s.UpdateSettings(func(st settings.Settings) settings.Settings {
		st.SpeechRate = 1.5
		return st
	})
	require.NoError(t, err)

	done, err := s.Play()
	require.NoError(t, err)
	s.SetText("edited while speaking")
	s.Stop()
	<-done

	synth.mu.Lock()
	defer synth.mu.Unlock()
	require.Equal(t, []string{"read this"}, synth.texts)
	require.Equal(t, []float64{1.5}, synth.rates)
	require.Equal(t, speech.StateIdle, s.SpeechState())
}

func TestPlayWithoutSpeech(t *testing.T) {
	s, _ := newSession(t)
	s.SetText("unchanged")

	_, err := s.Play()
	require.ErrorIs(t, err, speech.ErrTTSUnsupported)
	require.Equal(t, speech.StateIdle, s.SpeechState())
	require.Equal(t, "unchanged", s.Text())
	require.False(t, s.SpeechSupported())
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	s, _ := newSession(t, WithExportDir(dir))
	s.SetText("exported ✓\n")

	path, err := s.Export()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, output.ExportFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "exported ✓\n", string(data))
}

func TestCopy(t *testing.T) {
	var got string
	s, _ := newSession(t, WithClipboard(output.ClipboardFunc(func(text string) error {
		got = text
		return nil
	})))
	s.SetText("copy me")

	require.NoError(t, s.Copy())
	require.Equal(t, "copy me", got)

	failing, _ := newSession(t, WithClipboard(output.ClipboardFunc(func(string) error {
		return errors.New("no display")
	})))
	require.ErrorContains(t, failing.Copy(), "no display")
}

func TestClearAndStats(t *testing.T) {
	s, _ := newSession(t)
	s.SetText("One two. Three four five.")
	require.Equal(t, 5, s.Stats().Words)

	s.Clear()
	require.Equal(t, "", s.Text())
	require.Equal(t, 0, s.Stats().Words)
}

type fakeCapturer struct {
	data []byte
	err  error
}

func (f fakeCapturer) Capture(ctx context.Context) ([]byte, error) { return f.data, f.err }

// recordingImporter returns a fixed text and remembers what it was given.
type recordingImporter struct {
	mu   sync.Mutex
	name string
	data []byte
	text string
}

func (r *recordingImporter) Import(ctx context.Context, f importer.File) (string, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name, r.data = f.Name(), data
	return r.text, nil
}

func TestCaptureScreenLoadsOCRText(t *testing.T) {
	im := &recordingImporter{text: "text on screen"}
	s, _ := newSession(t, WithImporter(im), WithCapturer(fakeCapturer{data: []byte("png-bytes")}))

	text, err := s.CaptureScreen(context.Background())
	require.NoError(t, err)
	require.Equal(t, "text on screen", text)
	require.Equal(t, "text on screen", s.Text())
	require.Equal(t, capture.FileName, im.name)
	require.Equal(t, importer.KindImage, importer.Classify(im.name))
	require.Equal(t, []byte("png-bytes"), im.data)
	require.False(t, s.Importing())
}

func TestCaptureScreenFailureLeavesBuffer(t *testing.T) {
	s, _ := newSession(t, WithCapturer(fakeCapturer{err: capture.ErrNoDisplay}))
	s.SetText("keep me")

	_, err := s.CaptureScreen(context.Background())
	require.ErrorIs(t, err, capture.ErrNoDisplay)
	require.Equal(t, "keep me", s.Text())
	require.False(t, s.Importing())
}

func TestCaptureScreenWhileImporting(t *testing.T) {
	im := blockingImporter{started: make(chan struct{}, 1), release: make(chan struct{})}
	s, _ := newSession(t, WithImporter(im), WithCapturer(fakeCapturer{data: []byte("x")}))

	errc := make(chan error, 1)
	go func() {
		_, err := s.Import(context.Background(), file("a.txt", "a"))
		errc <- err
	}()
	<-im.started

	_, err := s.CaptureScreen(context.Background())
	require.ErrorIs(t, err, ErrImportBusy)

	close(im.release)
	require.NoError(t, <-errc)
}

func TestParseReadMode(t *testing.T) {
	for _, m := range ReadModes {
		got, err := ParseReadMode(string(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	_, err := ParseReadMode("skim")
	require.Error(t, err)
}

func TestHighlightModeMarksSpokenWord(t *testing.T) {
	synth := &speakingSynth{}
	s, _ := newSession(t, WithSpeech(speech.NewController(synth)))
	s.SetText("one two three")

	done, err := s.SetMode(ModeHighlight)
	require.NoError(t, err)
	require.Equal(t, ModeHighlight, s.Mode())
	require.True(t, s.TextVisible())
	require.Equal(t, speech.StateSpeaking, s.SpeechState())

	require.Eventually(t, func() bool {
		i, ok := s.Highlight()
		return ok && i == 0
	}, 2*time.Second, 5*time.Millisecond)

	s.SetText("edited")
	_, ok := s.Highlight()
	require.False(t, ok, "highlight must not point into edited text")

	_, err = s.SetMode(ModeRead)
	require.NoError(t, err)
	<-done
	require.Equal(t, speech.StateIdle, s.SpeechState())
	_, ok = s.Highlight()
	require.False(t, ok)
}

func TestListenModeHidesText(t *testing.T) {
	synth := &speakingSynth{}
	s, _ := newSession(t, WithSpeech(speech.NewController(synth)))
	s.SetText("listen to me")

	done, err := s.SetMode(ModeListen)
	require.NoError(t, err)
	require.False(t, s.TextVisible())
	_, ok := s.Highlight()
	require.False(t, ok)

	s.Stop()
	<-done
}

func TestSpeakingModeWithoutSpeechFallsBackToRead(t *testing.T) {
	s, _ := newSession(t)

	done, err := s.SetMode(ModeListen)
	require.ErrorIs(t, err, speech.ErrTTSUnsupported)
	require.Nil(t, done)
	require.Equal(t, ModeRead, s.Mode())
	require.True(t, s.TextVisible())
}

func TestImportResetsModeToRead(t *testing.T) {
	synth := &speakingSynth{}
	s, _ := newSession(t, WithSpeech(speech.NewController(synth)))
	s.SetText("first")
	done, err := s.SetMode(ModeListen)
	require.NoError(t, err)

	_, err = s.Import(context.Background(), file("next.txt", "second"))
	require.NoError(t, err)
	<-done
	require.Equal(t, ModeRead, s.Mode())
	require.Equal(t, speech.StateIdle, s.SpeechState())
}
