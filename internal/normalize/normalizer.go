// Package normalize converts raw file content into uniform documents.
package normalize

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Format identifies a supported input format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

var (
	// ErrUnsupportedFormat is returned for format tags outside {json, csv, pdf}.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrParse is returned when content cannot be parsed as its declared format.
	ErrParse = errors.New("parse error")
)

// Normalize converts raw content into documents according to format.
// It is a pure function of its inputs: no file system access, no
// mutation of content.
func Normalize(content []byte, format Format) ([]models.Document, error) {
	switch format {
	case FormatJSON:
		return normalizeJSON(content)
	case FormatCSV:
		return normalizeCSV(content)
	case FormatPDF:
		return normalizePDF(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// FormatFromPath maps a file extension to its Format. Returns
// ErrUnsupportedFormat for anything outside the supported set.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
