package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/normalize"
	"github.com/hyperjump/kotae/internal/store"
)

type fakeCompleter struct {
	calls int
	reply string
}

func (f *fakeCompleter) Complete(ctx context.Context, req answer.CompletionRequest) (string, error) {
	f.calls++
	return f.reply, nil
}

type failingEmbedder struct {
	dims int
}

func (e *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding service down")
}

func (e *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embedding service down")
}

func (e *failingEmbedder) Dimensions() int { return e.dims }
func (e *failingEmbedder) Close() error    { return nil }

func newTestPipeline(t *testing.T) (*Pipeline, *fakeCompleter) {
	t.Helper()
	st, outcome, err := store.Open(store.Config{
		Path:      filepath.Join(t.TempDir(), "store"),
		Dimension: 8,
	}, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	fake := &fakeCompleter{reply: "answer from context"}
	gen := answer.NewGenerator(fake, answer.WithSleep(func(time.Duration) {}))
	return NewPipeline(st, outcome, embedding.NewMockEmbedder(8), gen), fake
}

func TestPipeline_IngestAndQuery(t *testing.T) {
	p, fake := newTestPipeline(t)

	stats, err := p.Ingest(context.Background(), []byte(`["alpha text", "beta text", "gamma text"]`), normalize.FormatJSON)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stats.Received != 3 || stats.Added != 3 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want 3 received, 3 added", stats)
	}
	if stats.BatchID == "" {
		t.Error("expected a batch id")
	}

	res, err := p.Query(context.Background(), models.QueryRequest{Query: "alpha text", TopK: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Answer != "answer from context" {
		t.Errorf("answer = %q", res.Answer)
	}
	if fake.calls != 1 {
		t.Errorf("completer calls = %d, want 1", fake.calls)
	}
	if len(res.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(res.Sources))
	}
	// The query text matches a stored document exactly, so the deterministic
	// embedder puts it at distance zero.
	if res.Sources[0].ID != "json_0" || res.Sources[0].SimilarityScore != 1.0 {
		t.Errorf("top source = %s (%v), want json_0 (1.0)",
			res.Sources[0].ID, res.Sources[0].SimilarityScore)
	}
}

func TestPipeline_IngestSkipsEmptyText(t *testing.T) {
	p, _ := newTestPipeline(t)

	stats, err := p.Ingest(context.Background(), []byte(`["", "   ", "real content"]`), normalize.FormatJSON)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if stats.Received != 3 || stats.Added != 1 || stats.Skipped != 2 {
		t.Errorf("stats = %+v, want 1 added, 2 skipped", stats)
	}
	if got := p.Status().Documents; got != 1 {
		t.Errorf("documents = %d, want 1", got)
	}
}

func TestPipeline_IngestParseError(t *testing.T) {
	p, _ := newTestPipeline(t)

	_, err := p.Ingest(context.Background(), []byte(`{bad json`), normalize.FormatJSON)
	if !errors.Is(err, normalize.ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}
}

func TestPipeline_QueryEmptyStoreStillAnswers(t *testing.T) {
	p, fake := newTestPipeline(t)

	res, err := p.Query(context.Background(), models.QueryRequest{Query: "anything"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Sources) != 0 {
		t.Errorf("sources = %d, want 0", len(res.Sources))
	}
	if res.Answer == "" {
		t.Error("expected an answer even with no sources")
	}
	if fake.calls != 1 {
		t.Errorf("completer calls = %d, want 1", fake.calls)
	}
}

func TestPipeline_QueryValidation(t *testing.T) {
	p, fake := newTestPipeline(t)

	if _, err := p.Query(context.Background(), models.QueryRequest{Query: ""}); err == nil {
		t.Fatal("expected error for empty query")
	}
	if fake.calls != 0 {
		t.Errorf("completer calls = %d, want 0", fake.calls)
	}
}

func TestPipeline_Clear(t *testing.T) {
	p, _ := newTestPipeline(t)

	if _, err := p.Ingest(context.Background(), []byte(`["some text"]`), normalize.FormatJSON); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := p.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := p.Status().Documents; got != 0 {
		t.Errorf("documents = %d, want 0", got)
	}
	if err := p.Clear(context.Background()); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestPipeline_IngestFile(t *testing.T) {
	p, _ := newTestPipeline(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte(`["one", "two"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := p.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if stats.Added != 2 {
		t.Errorf("added = %d, want 2", stats.Added)
	}

	_, err = p.IngestFile(context.Background(), filepath.Join(dir, "notes.txt"))
	if !errors.Is(err, normalize.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestPipeline_EmbedFailurePropagates(t *testing.T) {
	st, outcome, err := store.Open(store.Config{
		Path:      filepath.Join(t.TempDir(), "store"),
		Dimension: 8,
	}, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	fake := &fakeCompleter{reply: "unused"}
	gen := answer.NewGenerator(fake, answer.WithSleep(func(time.Duration) {}))
	p := NewPipeline(st, outcome, &failingEmbedder{dims: 8}, gen)

	if _, err := p.Ingest(context.Background(), []byte(`["text"]`), normalize.FormatJSON); err == nil {
		t.Fatal("expected ingest error")
	}
	if _, err := p.Query(context.Background(), models.QueryRequest{Query: "q"}); err == nil {
		t.Fatal("expected query error")
	}
	if fake.calls != 0 {
		t.Errorf("completer calls = %d, want 0", fake.calls)
	}
}

func TestPipeline_ResumeAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store")

	st, outcome, err := store.Open(store.Config{Path: path, Dimension: 8}, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	if outcome.Resumed {
		t.Fatal("first open should not resume")
	}
	fake := &fakeCompleter{reply: "a"}
	gen := answer.NewGenerator(fake, answer.WithSleep(func(time.Duration) {}))
	p := NewPipeline(st, outcome, embedding.NewMockEmbedder(8), gen)

	if _, err := p.Ingest(context.Background(), []byte(`["persisted text", "more text"]`), normalize.FormatJSON); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st2, outcome2, err := store.Open(store.Config{Path: path, Dimension: 8}, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	p2 := NewPipeline(st2, outcome2, embedding.NewMockEmbedder(8), gen)

	status := p2.Status()
	if !status.Resumed {
		t.Error("expected resumed status after restart")
	}
	if status.Documents != 2 {
		t.Errorf("documents = %d, want 2", status.Documents)
	}

	res, err := p2.Query(context.Background(), models.QueryRequest{Query: "persisted text", TopK: 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Sources) != 1 || res.Sources[0].Text != "persisted text" {
		t.Errorf("sources = %+v, want the persisted document", res.Sources)
	}
}
