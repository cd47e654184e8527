package pdfio

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jsk-labs/label-sorter/internal/common"
)

// Document is an opened label PDF. It keeps the raw bytes alongside the
// parsed reader so the assembler can re-read the same source.
type Document struct {
	reader *pdf.Reader
	data   []byte
	logger *slog.Logger
}

// Open parses a PDF from raw bytes.
func Open(data []byte, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	logger.Debug("pdf.open", "bytes", len(data), "pages", r.NumPage())
	return &Document{reader: r, data: data, logger: logger}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// Bytes returns the raw source bytes the document was opened from.
func (d *Document) Bytes() []byte {
	return d.data
}

// PageText extracts the text content of one page (0-based index). Line
// structure is preserved: extracted rows are joined with "\n" because field
// patterns are anchored to lines. A page without a text layer (e.g. a scanned
// image) fails with common.ErrUnreadablePage.
//
// ledongthuc/pdf panics on some malformed content streams, so extraction is
// wrapped in a recover; a bad page must not take down the whole run.
func (d *Document) PageText(pageIndex int) (text string, err error) {
	if pageIndex < 0 || pageIndex >= d.reader.NumPage() {
		return "", fmt.Errorf("page index %d out of range [0,%d): %w", pageIndex, d.reader.NumPage(), common.ErrInvalidInput)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("pdf.page.panic", "page", pageIndex, "panic", r)
			text = ""
			err = fmt.Errorf("page %d: malformed content: %w", pageIndex, common.ErrUnreadablePage)
		}
	}()

	// ledongthuc/pdf pages are 1-based.
	page := d.reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: %w", pageIndex, common.ErrUnreadablePage)
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return "", fmt.Errorf("page %d: extract text: %w", pageIndex, common.ErrUnreadablePage)
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		for j, word := range row.Content {
			if j > 0 {
				b.WriteString(" ")
			}
			b.WriteString(word.S)
		}
	}

	text = b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("page %d: %w", pageIndex, common.ErrUnreadablePage)
	}
	return text, nil
}
