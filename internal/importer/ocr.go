package importer

import (
	"context"
	"errors"
)

// Recognizer performs OCR on an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// OCRExtractor passes image bytes to a Recognizer and returns its output
// unfiltered.
type OCRExtractor struct {
	Recognizer Recognizer
}

func (o OCRExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if o.Recognizer == nil {
		return "", errors.New("no OCR engine configured")
	}
	return o.Recognizer.Recognize(ctx, data)
}
