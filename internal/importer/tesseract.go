//go:build !noocr

package importer

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with the gosseract bindings.
type Tesseract struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseract returns a recognizer for langs, English when empty.
func NewTesseract(langs ...string) *Tesseract {
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Tesseract{languages: langs, clientFactory: gosseract.NewClient}
}

// Languages returns the configured tesseract language codes.
func (t *Tesseract) Languages() []string { return append([]string(nil), t.languages...) }

func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
