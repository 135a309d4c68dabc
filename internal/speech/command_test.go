package speech

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeLookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestDetectOrder(t *testing.T) {
	s := newCommandSynthesizer(nil, fakeLookPath("say", "spd-say"), nil)
	require.True(t, s.Available())
	require.Equal(t, "spd-say", s.Name())

	s = newCommandSynthesizer(nil, fakeLookPath("say", "espeak-ng", "espeak"), nil)
	require.Equal(t, "espeak-ng", s.Name())
}

func TestDetectNothingFound(t *testing.T) {
	s := newCommandSynthesizer(nil, fakeLookPath(), nil)
	require.False(t, s.Available())
	require.Equal(t, "", s.Name())
	require.ErrorIs(t, s.Speak(context.Background(), "hi", 1), ErrTTSUnsupported)
}

func TestExplicitArgvAvailability(t *testing.T) {
	s := newCommandSynthesizer([]string{"piper-say", "--fast"}, fakeLookPath("piper-say"), nil)
	require.True(t, s.Available())
	require.Equal(t, "piper-say", s.Name())

	s = newCommandSynthesizer([]string{"missing-tts"}, fakeLookPath(), nil)
	require.False(t, s.Available())
}

func TestSpdSayTextCannotBeReadAsOptions(t *testing.T) {
	s := newCommandSynthesizer(nil, fakeLookPath("spd-say"), nil)
	require.Equal(t, "spd-say", s.Name())

	argv, stdin := expand(s.cmd.Argv, "-S now", 1)
	require.False(t, stdin)
	require.Equal(t, []string{"spd-say", "-w", "-r", "0", "--", "-S now"}, argv)
}

func TestExpand(t *testing.T) {
	argv, stdin := expand([]string{"espeak-ng", "-s", "{wpm}", "--stdin"}, "hello", 1)
	require.True(t, stdin)
	require.Equal(t, []string{"espeak-ng", "-s", "175", "--stdin"}, argv)

	argv, stdin = expand([]string{"spd-say", "-r", "{percent}", "{text}"}, "say {wpm}", 0.5)
	require.False(t, stdin)
	require.Equal(t, []string{"spd-say", "-r", "-50", "say {wpm}"}, argv)

	argv, _ = expand([]string{"x", "{percent}", "{rate}", "{wpm}"}, "", 2)
	require.Equal(t, []string{"x", "100", "2.00", "350"}, argv)
}

func TestSpeakRunsCommandWithStdin(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	out := filepath.Join(t.TempDir(), "spoken.txt")
	s := NewCommandSynthesizer([]string{"sh", "-c", `cat > "$0"; printf ' %s' {wpm} >> "$0"`, out}, nil)
	require.True(t, s.Available())

	require.NoError(t, s.Speak(context.Background(), "hello there", 1.2))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "hello there 210", string(data))
}

func TestSpeakCommandFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	s := NewCommandSynthesizer([]string{"sh", "-c", "exit 3"}, nil)
	err := s.Speak(context.Background(), "x", 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "run sh")
}

func TestSpeakCancelStopsPromptly(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	s := NewCommandSynthesizer([]string{"sleep", "30"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Speak(ctx, "", 1) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Speak did not return after cancel")
	}
}
