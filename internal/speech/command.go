package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// BaseWPM is the words-per-minute used for rate 1.0.
const BaseWPM = 175

// Command describes how to invoke a host speech program. Argv elements may
// contain {wpm}, {percent}, {rate} and {text}; without {text} the text is
// written to stdin. Stop, when set, is run after a cancelled utterance.
type Command struct {
	Name string
	Argv []string
	Stop []string
}

// Builtin commands in detection order.
var Builtin = []Command{
	{Name: "espeak-ng", Argv: []string{"espeak-ng", "-s", "{wpm}", "--stdin"}},
	{Name: "espeak", Argv: []string{"espeak", "-s", "{wpm}", "--stdin"}},
	{Name: "spd-say", Argv: []string{"spd-say", "-w", "-r", "{percent}", "--", "{text}"}, Stop: []string{"spd-say", "-S"}},
	{Name: "say", Argv: []string{"say", "-r", "{wpm}", "-f", "-"}},
}

// CommandSynthesizer speaks by running a host command per utterance.
type CommandSynthesizer struct {
	cmd      Command
	found    bool
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

// NewCommandSynthesizer uses argv when given, otherwise the first Builtin
// command found on PATH.
func NewCommandSynthesizer(argv []string, logger *slog.Logger) *CommandSynthesizer {
	return newCommandSynthesizer(argv, exec.LookPath, logger)
}

func newCommandSynthesizer(argv []string, lookPath func(string) (string, error), logger *slog.Logger) *CommandSynthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &CommandSynthesizer{lookPath: lookPath, logger: logger}
	if len(argv) > 0 {
		s.cmd = Command{Name: argv[0], Argv: argv}
		_, err := lookPath(argv[0])
		s.found = err == nil
		return s
	}
	if cmd, ok := detect(lookPath); ok {
		s.cmd = cmd
		s.found = true
	}
	return s
}

func detect(lookPath func(string) (string, error)) (Command, bool) {
	for _, c := range Builtin {
		if _, err := lookPath(c.Argv[0]); err == nil {
			return c, true
		}
	}
	return Command{}, false
}

// Name returns the selected command name, empty when none was found.
func (s *CommandSynthesizer) Name() string {
	if !s.found {
		return ""
	}
	return s.cmd.Name
}

func (s *CommandSynthesizer) Available() bool { return s.found }

func (s *CommandSynthesizer) Speak(ctx context.Context, text string, rate float64) error {
	if !s.found {
		return ErrTTSUnsupported
	}
	argv, useStdin := expand(s.cmd.Argv, text, rate)
	if len(argv) == 0 {
		return errors.New("speech command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if useStdin {
		cmd.Stdin = strings.NewReader(text)
	}
	err := cmd.Run()
	if ctx.Err() != nil {
		s.runStop()
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}

func (s *CommandSynthesizer) runStop() {
	if len(s.cmd.Stop) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, s.cmd.Stop[0], s.cmd.Stop[1:]...).Run(); err != nil {
		s.logger.Debug("speech stop command failed", "error", err.Error())
	}
}

// expand substitutes placeholders and reports whether text goes to stdin.
func expand(argv []string, text string, rate float64) ([]string, bool) {
	wpm := strconv.Itoa(int(math.Round(BaseWPM * rate)))
	percent := int(math.Round((rate - 1) * 100))
	if percent < -100 {
		percent = -100
	}
	if percent > 100 {
		percent = 100
	}

	useStdin := true
	out := make([]string, len(argv))
	for i, a := range argv {
		a = strings.ReplaceAll(a, "{wpm}", wpm)
		a = strings.ReplaceAll(a, "{percent}", strconv.Itoa(percent))
		a = strings.ReplaceAll(a, "{rate}", strconv.FormatFloat(rate, 'f', 2, 64))
		if strings.Contains(a, "{text}") {
			useStdin = false
			a = strings.ReplaceAll(a, "{text}", text)
		}
		out[i] = a
	}
	return out, useStdin
}
