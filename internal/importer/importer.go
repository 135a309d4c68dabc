package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"
)

// File is an opened import source. *os.File satisfies it.
type File interface {
	io.Reader
	Name() string
}

// Extractor converts the raw bytes of one file kind into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// Job describes a single import attempt.
type Job struct {
	Name string
	Kind Kind
}

// Importer dispatches files to the extractor for their Kind.
type Importer struct {
	extractors map[Kind]Extractor
	logger     *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithExtractor overrides the extractor for kind.
func WithExtractor(kind Kind, ex Extractor) Option {
	return func(im *Importer) { im.extractors[kind] = ex }
}

// WithLogger sets the logger used for import diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// WithOCRLanguages replaces the default recognizer with one for langs.
func WithOCRLanguages(langs ...string) Option {
	return func(im *Importer) {
		im.extractors[KindImage] = OCRExtractor{Recognizer: NewTesseract(langs...)}
	}
}

// New builds an Importer with the default extractors: verbatim text,
// PDF text layer, DOCX raw text and English OCR.
func New(opts ...Option) *Importer {
	im := &Importer{
		extractors: map[Kind]Extractor{
			KindText:  ExtractorFunc(extractPlainText),
			KindPDF:   PDFExtractor{},
			KindDOCX:  DOCXExtractor{},
			KindImage: OCRExtractor{Recognizer: NewTesseract("eng")},
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import reads f and returns its extracted text. Errors are *ImportError.
func (im *Importer) Import(ctx context.Context, f File) (string, error) {
	job := Job{Name: filepath.Base(f.Name()), Kind: Classify(f.Name())}
	if job.Kind == KindUnsupported {
		im.logger.Info("import rejected", "file", job.Name, "reason", "unsupported type")
		return "", newImportError(job, ErrUnsupportedType, nil)
	}

	ex, ok := im.extractors[job.Kind]
	if !ok || ex == nil {
		return "", newImportError(job, sentinelFor(job.Kind), fmt.Errorf("no extractor for %s", job.Kind))
	}

	started := time.Now()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", newImportError(job, ErrRead, err)
	}
	if err := ctx.Err(); err != nil {
		return "", newImportError(job, sentinelFor(job.Kind), err)
	}

	text, err := ex.Extract(ctx, data)
	if err != nil {
		im.logger.Warn("import failed", "file", job.Name, "kind", job.Kind.String(), "error", err.Error())
		return "", newImportError(job, sentinelFor(job.Kind), err)
	}

	im.logger.Info("import complete",
		"file", job.Name,
		"kind", job.Kind.String(),
		"bytes", len(data),
		"chars", len([]rune(text)),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return text, nil
}

func extractPlainText(_ context.Context, data []byte) (string, error) {
	return string(data), nil
}
