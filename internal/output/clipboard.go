package output

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes through github.com/atotto/clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	return clipboard.WriteAll(text)
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(text string) error

func (f ClipboardFunc) WriteAll(text string) error { return f(text) }

// Copy writes text to cb, wrapping failures.
func Copy(cb Clipboard, text string) error {
	if cb == nil {
		return fmt.Errorf("set clipboard: no clipboard configured")
	}
	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	return nil
}
