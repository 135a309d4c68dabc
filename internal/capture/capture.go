// Package capture grabs the screen for OCR import.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// ErrNoDisplay is returned when no active display can be captured.
var ErrNoDisplay = errors.New("no active display")

// FileName is the name given to captured images so they import as PNG.
const FileName = "screen.png"

// Capturer grabs the screen as a PNG.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Screen captures every active display as one image.
type Screen struct {
	numDisplays func() int
	bounds      func(int) image.Rectangle
	grab        func(image.Rectangle) (*image.RGBA, error)
}

// NewScreen returns a Screen backed by github.com/kbinani/screenshot.
func NewScreen() *Screen {
	return &Screen{
		numDisplays: screenshot.NumActiveDisplays,
		bounds:      screenshot.GetDisplayBounds,
		grab:        screenshot.CaptureRect,
	}
}

// Capture grabs the union of all display bounds and encodes it as PNG.
func (s *Screen) Capture(ctx context.Context) ([]byte, error) {
	n := s.numDisplays()
	if n <= 0 {
		return nil, ErrNoDisplay
	}
	area := s.bounds(0)
	for i := 1; i < n; i++ {
		area = area.Union(s.bounds(i))
	}
	if area.Empty() {
		return nil, ErrNoDisplay
	}

	img, err := s.grab(area)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}
	return buf.Bytes(), nil
}
