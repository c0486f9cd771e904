// Package extract pulls plain text out of uploaded PDF documents.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrExtraction is returned when the payload is not a readable PDF.
	ErrExtraction = errors.New("could not extract text from document")
	// ErrEmptyContent is returned when a PDF parses but holds no text.
	ErrEmptyContent = errors.New("no text content found in document")
)

// readPages returns the plain text of each page in order. Overridden in tests.
var readPages = pdfPages

// Extract returns the text of every page joined with newlines and trimmed.
func Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrExtraction)
	}

	pages, err := readPages(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if text == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}

func pdfPages(data []byte) (pages []string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
