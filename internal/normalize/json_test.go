package normalize

import (
	"errors"
	"testing"
)

func TestNormalizeJSON_arrayOfObjects(t *testing.T) {
	content := []byte(`[{"name": "Alice", "age": 30}, {"name": "Bob"}]`)
	docs, err := normalizeJSON(content)
	if err != nil {
		t.Fatalf("normalizeJSON: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != "json_0" || docs[1].ID != "json_1" {
		t.Errorf("ids: %s, %s", docs[0].ID, docs[1].ID)
	}
	// Objects keep their JSON form (keys sorted by the encoder).
	if docs[0].Text != `{"age":30,"name":"Alice"}` {
		t.Errorf("text: %q", docs[0].Text)
	}
	if docs[0].Metadata["source"] != "json" || docs[0].Metadata["index"] != 0 {
		t.Errorf("metadata: %+v", docs[0].Metadata)
	}
	if _, ok := docs[0].Metadata["original"].(map[string]interface{}); !ok {
		t.Errorf("original should hold the decoded element, got %T", docs[0].Metadata["original"])
	}
}

func TestNormalizeJSON_arrayOfScalars(t *testing.T) {
	docs, err := normalizeJSON([]byte(`["alpha", 2, true]`))
	if err != nil {
		t.Fatalf("normalizeJSON: %v", err)
	}
	wantTexts := []string{"alpha", "2", "true"}
	for i, want := range wantTexts {
		if docs[i].Text != want {
			t.Errorf("doc %d text = %q, want %q", i, docs[i].Text, want)
		}
	}
}

func TestNormalizeJSON_object(t *testing.T) {
	content := []byte(`{"beta": "two", "alpha": 1, "cfg": {"x": 1}}`)
	docs, err := normalizeJSON(content)
	if err != nil {
		t.Fatalf("normalizeJSON: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}
	// Keys come out sorted.
	if docs[0].ID != "json_alpha" || docs[1].ID != "json_beta" || docs[2].ID != "json_cfg" {
		t.Errorf("ids: %s, %s, %s", docs[0].ID, docs[1].ID, docs[2].ID)
	}
	if docs[0].Text != "1" || docs[1].Text != "two" {
		t.Errorf("scalar texts: %q, %q", docs[0].Text, docs[1].Text)
	}
	if docs[2].Text != `{"x":1}` {
		t.Errorf("structured value text: %q", docs[2].Text)
	}
	if docs[1].Metadata["key"] != "beta" {
		t.Errorf("key metadata: %v", docs[1].Metadata["key"])
	}
}

func TestNormalizeJSON_scalar(t *testing.T) {
	tests := []struct {
		input string
		text  string
	}{
		{`"hello"`, "hello"},
		{`42`, "42"},
		{`3.5`, "3.5"},
		{`null`, "null"},
	}
	for _, tt := range tests {
		docs, err := normalizeJSON([]byte(tt.input))
		if err != nil {
			t.Fatalf("normalizeJSON(%s): %v", tt.input, err)
		}
		if len(docs) != 1 {
			t.Fatalf("scalar %s: got %d documents, want 1", tt.input, len(docs))
		}
		if docs[0].ID != "json_0" {
			t.Errorf("scalar %s: id = %s", tt.input, docs[0].ID)
		}
		if docs[0].Text != tt.text {
			t.Errorf("scalar %s: text = %q, want %q", tt.input, docs[0].Text, tt.text)
		}
	}
}

func TestNormalizeJSON_malformed(t *testing.T) {
	for _, input := range []string{`{nope`, ``, `[1,`} {
		_, err := normalizeJSON([]byte(input))
		if !errors.Is(err, ErrParse) {
			t.Errorf("input %q: expected ErrParse, got %v", input, err)
		}
	}
}
