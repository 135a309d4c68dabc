// Package speech drives read-aloud playback through a host synthesizer.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Rate bounds accepted by Play.
const (
	MinRate = 0.5
	MaxRate = 2.0
)

// ErrTTSUnsupported is returned by Play when no synthesizer is available.
var ErrTTSUnsupported = errors.New("text-to-speech is not available on this system")

// Synthesizer speaks text. Speak blocks until playback ends or ctx is
// cancelled, in which case it must stop promptly.
type Synthesizer interface {
	Available() bool
	Speak(ctx context.Context, text string, rate float64) error
}

// Controller is the two-state read-aloud machine. At most one utterance is
// in flight; a newer Play or a Stop supersedes it.
type Controller struct {
	synth    Synthesizer
	logger   *slog.Logger
	onChange func(State)

	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	startedAt  time.Time
	now        func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnChange registers a callback run after every state change. It is
// called without the controller lock held, possibly from a worker goroutine.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// NewController returns an idle controller. synth may be nil.
func NewController(synth Synthesizer, opts ...Option) *Controller {
	c := &Controller{
		synth:  synth,
		logger: slog.New(slog.DiscardHandler),
		state:  StateIdle,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Supported reports whether Play can succeed.
func (c *Controller) Supported() bool {
	return c.synth != nil && c.synth.Available()
}

// Play cancels any in-flight utterance and starts speaking text at rate,
// clamped to [MinRate, MaxRate]. The new utterance starts only after the
// previous one has returned. The returned channel is closed when this
// utterance ends, whether it finished, was stopped or was superseded.
func (c *Controller) Play(text string, rate float64) (<-chan struct{}, error) {
	rate = clampRate(rate)
	if !c.Supported() {
		c.logger.Warn("speech unavailable")
		return nil, ErrTTSUnsupported
	}

	c.mu.Lock()
	next, err := Transition(c.state, EventPlay)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	prev := c.done
	c.generation++
	c.startedAt = time.Time{}
	gen := c.generation
	c.cancel = cancel
	c.done = done
	c.state = next
	c.mu.Unlock()

	c.logger.Info("speech started", "generation", gen, "chars", len([]rune(text)), "rate", rate)
	c.notify(next)

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			c.finish(gen)
			return
		}
		c.mu.Lock()
		if gen == c.generation {
			c.startedAt = c.now()
		}
		c.mu.Unlock()
		err := c.synth.Speak(ctx, text, rate)
		if err != nil && ctx.Err() == nil {
			c.logger.Error("speech failed", "generation", gen, "error", err.Error())
		}
		c.finish(gen)
	}()
	return done, nil
}

// Stop cancels any in-flight utterance and returns to idle. It is a no-op
// when already idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	prev := c.state
	next, _ := Transition(c.state, EventStop)
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.startedAt = time.Time{}
	c.state = next
	c.mu.Unlock()

	if prev != next {
		c.logger.Info("speech stopped")
		c.notify(next)
	}
}

// finish handles the completion event of utterance gen. Completions from
// superseded utterances are dropped.
func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	next, err := Transition(c.state, EventFinished)
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("ignored completion", "generation", gen, "error", err.Error())
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = next
	c.mu.Unlock()

	c.logger.Info("speech finished", "generation", gen)
	c.notify(next)
}

// Elapsed reports how long the current utterance has been audible. ok is
// false when idle or while waiting for a superseded utterance to return.
func (c *Controller) Elapsed() (d time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSpeaking || c.startedAt.IsZero() {
		return 0, false
	}
	return c.now().Sub(c.startedAt), true
}

// WordAt estimates the index of the word being spoken after elapsed at
// rate, assuming BaseWPM at rate 1.0. The result is within [0, words).
func WordAt(elapsed time.Duration, rate float64, words int) int {
	if words <= 0 {
		return 0
	}
	i := int(elapsed.Minutes() * BaseWPM * clampRate(rate))
	if i < 0 {
		return 0
	}
	if i >= words {
		return words - 1
	}
	return i
}

func clampRate(rate float64) float64 {
	if math.IsNaN(rate) {
		return 1.0
	}
	return math.Min(MaxRate, math.Max(MinRate, rate))
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
