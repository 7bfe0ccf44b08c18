package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
)

func sampleResult() *models.QueryResult {
	return &models.QueryResult{
		Query:  "test query",
		Answer: "The answer, citing Document 1.",
		Sources: []models.SearchResult{
			{
				Document: models.Document{
					ID:       "json_0",
					Text:     "Source content here",
					Metadata: map[string]interface{}{"source": "json"},
				},
				SimilarityScore: 0.9,
			},
		},
		TookMS: 42,
	}
}

func TestWriteQueryResult_JSON(t *testing.T) {
	result := sampleResult()
	var buf bytes.Buffer
	if err := WriteQueryResult(&buf, result, OutputJSON); err != nil {
		t.Fatalf("WriteQueryResult(json): %v", err)
	}
	out := buf.String()
	if out == "" {
		t.Fatal("expected non-empty JSON output")
	}
	var decoded models.QueryResult
	if err := json.NewDecoder(strings.NewReader(out)).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if decoded.Query != result.Query || decoded.TookMS != result.TookMS {
		t.Errorf("decoded query=%q took_ms=%d, want query=%q took_ms=%d",
			decoded.Query, decoded.TookMS, result.Query, result.TookMS)
	}
	if len(decoded.Sources) != 1 || decoded.Sources[0].ID != "json_0" {
		t.Errorf("decoded sources: want one source with id json_0, got %+v", decoded.Sources)
	}
}

func TestWriteQueryResult_text(t *testing.T) {
	result := sampleResult()
	var buf bytes.Buffer
	if err := WriteQueryResult(&buf, result, OutputText); err != nil {
		t.Fatalf("WriteQueryResult(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"The answer, citing Document 1.", "42ms", "1 source(s)", "Sources", "Rank: 1", "ID: json_0", "Source: json", "Source content here"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteQueryResult_text_noSources(t *testing.T) {
	result := &models.QueryResult{
		Query:  "q",
		Answer: "I don't have enough information to answer this question.",
		TookMS: 5,
	}
	var buf bytes.Buffer
	if err := WriteQueryResult(&buf, result, OutputText); err != nil {
		t.Fatalf("WriteQueryResult(text): %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "0 source(s)") {
		t.Errorf("expected 0 source(s) in output:\n%s", out)
	}
	if strings.Contains(out, "--- Sources ---") {
		t.Errorf("sources section should be omitted when empty:\n%s", out)
	}
}

func TestWriteQueryResult_unknownFormatTreatedAsText(t *testing.T) {
	result := &models.QueryResult{Query: "x", Answer: "y"}
	var buf bytes.Buffer
	if err := WriteQueryResult(&buf, result, OutputFormat("unknown")); err != nil {
		t.Fatalf("WriteQueryResult(unknown): %v", err)
	}
	if !strings.Contains(buf.String(), "Answered in") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteIngestStats_text(t *testing.T) {
	stats := &models.IngestStats{
		BatchID:  "batch-1",
		Received: 3,
		Added:    2,
		Skipped:  1,
		TookMS:   7,
	}
	var buf bytes.Buffer
	if err := WriteIngestStats(&buf, stats, OutputText); err != nil {
		t.Fatalf("WriteIngestStats(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Ingested 2 of 3", "7ms", "(1 skipped)", "batch-1"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteIngestStats_JSON(t *testing.T) {
	stats := &models.IngestStats{BatchID: "b", Received: 1, Added: 1}
	var buf bytes.Buffer
	if err := WriteIngestStats(&buf, stats, OutputJSON); err != nil {
		t.Fatalf("WriteIngestStats(json): %v", err)
	}
	var decoded models.IngestStats
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("JSON decode: %v", err)
	}
	if decoded.BatchID != "b" || decoded.Added != 1 {
		t.Errorf("decoded stats: got %+v", decoded)
	}
}

func TestWriteStatus_text(t *testing.T) {
	status := &rag.Status{
		Documents: 12,
		Dimension: 1536,
		Resumed:   true,
		DiskBytes: 4096,
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatalf("WriteStatus(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"documents:", "12", "dimension:", "1536", "resumed:", "true", "disk_usage_bytes:", "4096"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Contains(out, "load_fallback") {
		t.Errorf("load_fallback should be omitted when reason is empty:\n%s", out)
	}
}

func TestWriteStatus_text_withFallbackReason(t *testing.T) {
	status := &rag.Status{
		Documents: 0,
		Dimension: 8,
		Resumed:   false,
		Reason:    "metadata artifact missing",
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatalf("WriteStatus(text): %v", err)
	}
	if !strings.Contains(buf.String(), "metadata artifact missing") {
		t.Errorf("expected fallback reason in output:\n%s", buf.String())
	}
}

func TestPrintQueryResult(t *testing.T) {
	result := &models.QueryResult{Query: "print test", Answer: "printed answer", TookMS: 1}
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
		_ = w.Close()
	}()
	PrintQueryResult(result)
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	if !strings.Contains(buf.String(), "printed answer") {
		t.Errorf("PrintQueryResult should write to stdout; got %q", buf.String())
	}
}
