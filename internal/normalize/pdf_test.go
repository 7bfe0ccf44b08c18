package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// minimalPDF builds a valid PDF with one Helvetica text stream per page.
// Offsets in the xref table are computed while writing, so the output is
// parseable by a strict reader. Page texts must not contain parentheses
// or backslashes.
func minimalPDF(pageTexts ...string) []byte {
	var buf bytes.Buffer
	var offsets []int

	writeObj := func(num int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")

	n := len(pageTexts)
	fontObj := 3 + 2*n
	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, text := range pageTexts {
		pageNum := 3 + 2*i
		contentNum := 4 + 2*i
		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontObj, contentNum))
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		writeObj(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	writeObj(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefPos := buf.Len()
	total := fontObj + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n", total)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total, xrefPos)
	return buf.Bytes()
}

func TestNormalizePDF_perPageDocuments(t *testing.T) {
	content := minimalPDF("First page text", "Second page text")
	docs, err := normalizePDF(content)
	if err != nil {
		t.Fatalf("normalizePDF: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != "pdf_page_1" || docs[1].ID != "pdf_page_2" {
		t.Errorf("ids: %s, %s", docs[0].ID, docs[1].ID)
	}
	if !strings.Contains(docs[0].Text, "First") || !strings.Contains(docs[1].Text, "Second") {
		t.Errorf("texts: %q, %q", docs[0].Text, docs[1].Text)
	}
	if docs[0].Metadata["source"] != "pdf" || docs[0].Metadata["page"] != 1 {
		t.Errorf("metadata: %+v", docs[0].Metadata)
	}
	if docs[1].Metadata["total_pages"] != 2 {
		t.Errorf("total_pages: %v", docs[1].Metadata["total_pages"])
	}
}

func TestNormalizePDF_skipsWhitespacePages(t *testing.T) {
	content := minimalPDF("Only real page", "   ")
	docs, err := normalizePDF(content)
	if err != nil {
		t.Fatalf("normalizePDF: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if docs[0].ID != "pdf_page_1" {
		t.Errorf("id: %s", docs[0].ID)
	}
	// The skipped page still counts toward the page total.
	if docs[0].Metadata["total_pages"] != 2 {
		t.Errorf("total_pages: %v", docs[0].Metadata["total_pages"])
	}
}

func TestNormalizePDF_allWhitespacePages(t *testing.T) {
	content := minimalPDF("   ", " ")
	docs, err := normalizePDF(content)
	if err != nil {
		t.Fatalf("normalizePDF: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("all-whitespace pages should produce zero documents, got %d", len(docs))
	}
}

func TestNormalizePDF_corrupt(t *testing.T) {
	for _, input := range []string{"not a pdf at all", "%PDF-1.4 then garbage"} {
		_, err := normalizePDF([]byte(input))
		if !errors.Is(err, ErrParse) {
			t.Errorf("input %q: expected ErrParse, got %v", input, err)
		}
	}
}
