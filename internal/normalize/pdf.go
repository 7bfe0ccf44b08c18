package normalize

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/kotae/internal/models"
)

// normalizePDF emits one document per page whose extracted text is non-empty
// after trimming; whitespace-only pages are skipped without error. The
// underlying reader panics on some malformed inputs, so parsing is fenced
// with a recover that reports ErrParse.
func normalizePDF(content []byte) (docs []models.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("%w: invalid pdf: %v", ErrParse, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pdf: %w", ErrParse, err)
	}

	total := reader.NumPage()
	docs = make([]models.Document, 0, total)
	for i := 0; i < total; i++ {
		page := reader.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			return nil, fmt.Errorf("%w: extract page %d: %w", ErrParse, i+1, perr)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, models.Document{
			ID:   fmt.Sprintf("pdf_page_%d", i+1),
			Text: text,
			Metadata: map[string]interface{}{
				"source":      "pdf",
				"page":        i + 1,
				"total_pages": total,
			},
		})
	}
	return docs, nil
}
