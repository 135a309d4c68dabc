package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFDocument is a parsed PDF exposing its text layer page by page.
// Pages are numbered from 1 through NumPage inclusive.
type PDFDocument interface {
	NumPage() int
	PageFragments(page int) ([]string, error)
}

// PDFOpener parses raw PDF bytes.
type PDFOpener func(data []byte) (PDFDocument, error)

// PDFExtractor pulls the text layer out of a PDF.
type PDFExtractor struct {
	// Open defaults to OpenPDF.
	Open PDFOpener
}

func (p PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	open := p.Open
	if open == nil {
		open = OpenPDF
	}
	doc, err := open(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	return JoinPages(ctx, doc)
}

// JoinPages concatenates every page in order: fragments within a page are
// joined by single spaces and each page is terminated by a newline.
func JoinPages(ctx context.Context, doc PDFDocument) (string, error) {
	var out strings.Builder
	for n := 1; n <= doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fragments, err := doc.PageFragments(n)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n, err)
		}
		out.WriteString(strings.Join(fragments, " "))
		out.WriteByte('\n')
	}
	return out.String(), nil
}

type ledongthucDocument struct {
	r *pdf.Reader
}

// OpenPDF parses data with github.com/ledongthuc/pdf. Parser panics on
// malformed input are returned as errors.
func OpenPDF(data []byte) (doc PDFDocument, err error) {
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return ledongthucDocument{r: r}, nil
}

func (d ledongthucDocument) NumPage() int { return d.r.NumPage() }

// PageFragments returns one fragment per text row, top to bottom.
func (d ledongthucDocument) PageFragments(n int) (fragments []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			fragments, err = nil, fmt.Errorf("malformed page: %v", r)
		}
	}()

	page := d.r.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		var sb strings.Builder
		for _, t := range row.Content {
			sb.WriteString(t.S)
		}
		if s := sb.String(); s != "" {
			fragments = append(fragments, s)
		}
	}
	return fragments, nil
}
