// Package cli provides CLI output helpers for Kotae.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat selects how CLI results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteQueryResult writes a query result to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteQueryResult(w io.Writer, result *models.QueryResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeQueryResultText(w, result)
		return nil
	}
}

func writeQueryResultText(w io.Writer, result *models.QueryResult) {
	fmt.Fprintf(w, "\n%s\n", result.Answer)
	fmt.Fprintf(w, "\nAnswered in %dms from %d source(s)\n", result.TookMS, len(result.Sources))
	if len(result.Sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--- Sources ---")
	for i, src := range result.Sources {
		writeOneSource(w, i+1, src)
	}
}

func writeOneSource(w io.Writer, rank int, src models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Similarity: %.4f\n", rank, src.SimilarityScore)
	fmt.Fprintf(w, "ID: %s\n", src.ID)
	if name, ok := src.Metadata["source"].(string); ok && name != "" {
		fmt.Fprintf(w, "Source: %s\n", name)
	}
	fmt.Fprintf(w, "\n%s\n", utils.Truncate(src.Text, 200))
	fmt.Fprintln(w)
}

// WriteIngestStats writes ingest statistics to w in the given format.
func WriteIngestStats(w io.Writer, stats *models.IngestStats, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	default:
		fmt.Fprintf(w, "Ingested %d of %d document(s) in %dms", stats.Added, stats.Received, stats.TookMS)
		if stats.Skipped > 0 {
			fmt.Fprintf(w, " (%d skipped)", stats.Skipped)
		}
		fmt.Fprintf(w, " [batch %s]\n", stats.BatchID)
		return nil
	}
}

// WriteStatus writes store status to w in the given format.
func WriteStatus(w io.Writer, status *rag.Status, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	default:
		fmt.Fprintf(w, "documents:         %d   # count of stored documents\n", status.Documents)
		fmt.Fprintf(w, "dimension:         %d   # embedding vector length\n", status.Dimension)
		fmt.Fprintf(w, "resumed:           %t   # loaded from existing artifacts at startup\n", status.Resumed)
		if status.Reason != "" {
			fmt.Fprintf(w, "load_fallback:     %s\n", status.Reason)
		}
		fmt.Fprintf(w, "disk_usage_bytes:  %d\n", status.DiskBytes)
		return nil
	}
}

// PrintQueryResult prints a query result to stdout in text format (backward compatible).
func PrintQueryResult(result *models.QueryResult) {
	_ = WriteQueryResult(os.Stdout, result, OutputText)
}
