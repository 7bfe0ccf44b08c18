// Package rag wires normalization, embedding, retrieval, and answer
// generation into a single pipeline.
package rag

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/normalize"
	"github.com/hyperjump/kotae/internal/store"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Pipeline owns the ingest and query paths. Store access is serialized
// here; the store itself performs no locking.
type Pipeline struct {
	mu        sync.RWMutex
	store     *store.Store
	outcome   store.Outcome
	embedder  embedding.Embedder
	generator *answer.Generator
	logger    *zap.Logger
}

// Status describes the store behind the pipeline.
type Status struct {
	Documents int    `json:"documents"`
	Dimension int    `json:"dimension"`
	Resumed   bool   `json:"resumed"`
	Reason    string `json:"reason,omitempty"`
	DiskBytes int64  `json:"disk_bytes"`
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets a logger for ingest and query events.
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline over st. outcome is the load outcome
// reported by store.Open; Status echoes it.
func NewPipeline(st *store.Store, outcome store.Outcome, embedder embedding.Embedder, generator *answer.Generator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:     st,
		outcome:   outcome,
		embedder:  embedder,
		generator: generator,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest normalizes content in the given format, embeds each document, and
// adds them to the store. Documents whose text is empty are counted as
// skipped rather than embedded.
func (p *Pipeline) Ingest(ctx context.Context, content []byte, format normalize.Format) (*models.IngestStats, error) {
	start := time.Now()
	stats := &models.IngestStats{BatchID: uuid.New().String()}

	docs, err := normalize.Normalize(content, format)
	if err != nil {
		return nil, err
	}
	stats.Received = len(docs)

	kept := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			stats.Skipped++
			continue
		}
		kept = append(kept, doc)
	}

	if len(kept) > 0 {
		texts := make([]string, len(kept))
		for i, doc := range kept {
			texts[i] = doc.Text
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}

		p.mu.Lock()
		for i, doc := range kept {
			if err := p.store.Add(vectors[i], doc); err != nil {
				p.mu.Unlock()
				stats.TookMS = time.Since(start).Milliseconds()
				return stats, fmt.Errorf("failed to add document %s: %w", doc.ID, err)
			}
			stats.Added++
		}
		p.mu.Unlock()
	}

	stats.TookMS = time.Since(start).Milliseconds()
	p.logger.Info("ingested batch",
		zap.String("batch_id", stats.BatchID),
		zap.String("format", string(format)),
		zap.Int("received", stats.Received),
		zap.Int("added", stats.Added),
		zap.Int("skipped", stats.Skipped),
		zap.Int64("took_ms", stats.TookMS))
	return stats, nil
}

// IngestFile reads path and ingests it according to its extension.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*models.IngestStats, error) {
	format, err := normalize.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	p.logger.Debug("ingesting file",
		zap.String("path", path),
		zap.String("format", string(format)))
	return p.Ingest(ctx, content, format)
}

// Query embeds the query, retrieves the top matches, and generates an
// answer over them. The generator runs even when retrieval returns nothing,
// so the model can state that it has no information.
func (p *Pipeline) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	vec, err := p.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	p.mu.RLock()
	results, err := p.store.Search(vec, req.TopK)
	p.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	answerText := p.generator.Generate(ctx, req.Query, results)

	res := &models.QueryResult{
		Query:   req.Query,
		Answer:  answerText,
		Sources: results,
		TookMS:  time.Since(start).Milliseconds(),
	}
	p.logger.Info("query answered",
		zap.String("query", utils.Truncate(req.Query, 80)),
		zap.Int("sources", len(results)),
		zap.Int64("took_ms", res.TookMS))
	return res, nil
}

// Clear empties the store and removes its artifacts.
func (p *Pipeline) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Clear(); err != nil {
		return err
	}
	p.logger.Info("store cleared")
	return nil
}

// Status reports the store's current state.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Status{
		Documents: p.store.Count(),
		Dimension: p.store.Dimension(),
		Resumed:   p.outcome.Resumed,
		Reason:    p.outcome.Reason,
		DiskBytes: p.store.DiskUsage(),
	}
}

// Close releases the embedder.
func (p *Pipeline) Close() error {
	return p.embedder.Close()
}
