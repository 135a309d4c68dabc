//go:build noocr

package importer

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned when the binary was built with -tags noocr.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild without -tags noocr")

// Tesseract is a stand-in that always fails.
type Tesseract struct {
	languages []string
}

// NewTesseract returns a recognizer that reports OCR as unavailable.
func NewTesseract(langs ...string) *Tesseract {
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Tesseract{languages: langs}
}

func (t *Tesseract) Languages() []string { return append([]string(nil), t.languages...) }

func (t *Tesseract) Recognize(context.Context, []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
