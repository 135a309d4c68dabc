// Package importer turns a picked file into plain text by delegating to the
// extractor registered for its kind.
package importer

import (
	"path/filepath"
	"strings"
)

// Kind is the closed set of import variants.
type Kind int

const (
	KindUnsupported Kind = iota
	KindText
	KindPDF
	KindDOCX
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	case KindDOCX:
		return "docx"
	case KindImage:
		return "image"
	default:
		return "unsupported"
	}
}

// format binds a Kind to its suffixes. Order is match precedence.
type format struct {
	kind       Kind
	name       string
	extensions []string
}

var formats = []format{
	{kind: KindText, name: "Text", extensions: []string{".txt"}},
	{kind: KindPDF, name: "PDF", extensions: []string{".pdf"}},
	{kind: KindDOCX, name: "Word", extensions: []string{".docx"}},
	{kind: KindImage, name: "Image (OCR)", extensions: []string{".png", ".jpg", ".jpeg", ".bmp"}},
}

// Classify maps a file name to its Kind by case-insensitive suffix.
func Classify(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	for _, f := range formats {
		for _, e := range f.extensions {
			if ext == e {
				return f.kind
			}
		}
	}
	return KindUnsupported
}

// Extensions returns every accepted suffix in precedence order.
func Extensions() []string {
	var out []string
	for _, f := range formats {
		out = append(out, f.extensions...)
	}
	return out
}

// SupportedFormats returns format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range formats {
		out = append(out, f.name+" ("+strings.Join(f.extensions, ", ")+")")
	}
	return out
}
