package importer

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrRead            = errors.New("could not read the file")
	ErrPDFParse        = errors.New("could not read the PDF file")
	ErrDOCXParse       = errors.New("could not read the Word document")
	ErrOCR             = errors.New("could not recognize text in the image")
)

// ImportError reports which file failed. Err wraps one of the sentinels
// above and, when there is one, the underlying cause.
type ImportError struct {
	Name string
	Kind Kind
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Name, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

func newImportError(job Job, sentinel, cause error) *ImportError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &ImportError{Name: job.Name, Kind: job.Kind, Err: err}
}

func sentinelFor(kind Kind) error {
	switch kind {
	case KindText:
		return ErrRead
	case KindPDF:
		return ErrPDFParse
	case KindDOCX:
		return ErrDOCXParse
	case KindImage:
		return ErrOCR
	default:
		return ErrUnsupportedType
	}
}
