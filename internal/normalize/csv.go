package normalize

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/kotae/internal/models"
)

// normalizeCSV treats the first row as a header and emits one document per
// data row, 1-indexed. Row text lists "<header>: <value>" pairs in header
// order; cells beyond the header set are dropped, and headers beyond a short
// row stay absent from the row map (but render as empty in the text).
func normalizeCSV(content []byte) ([]models.Document, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: csv content is not valid utf-8", ErrParse)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid csv: %w", ErrParse, err)
	}
	if len(rows) == 0 {
		return []models.Document{}, nil
	}

	headers := rows[0]
	docs := make([]models.Document, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 1
		rowMap := make(map[string]string, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowMap[headers[j]] = cell
			}
		}

		parts := make([]string, 0, len(headers))
		for _, h := range headers {
			parts = append(parts, h+": "+rowMap[h])
		}

		docs = append(docs, models.Document{
			ID:   fmt.Sprintf("csv_%d", rowNum),
			Text: strings.Join(parts, ", "),
			Metadata: map[string]interface{}{
				"source":   "csv",
				"row":      rowNum,
				"original": rowMap,
			},
		})
	}
	return docs, nil
}
