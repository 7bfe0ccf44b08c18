// Package answer turns retrieved documents into a natural-language answer
// using a chat completion model.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// CompletionRequest is a single exchange: one system prompt and one user
// message.
type CompletionRequest struct {
	System string
	User   string
}

// Completer executes a chat completion. Implementations wrap a concrete API
// client; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

const systemPrompt = `You are a helpful assistant that provides accurate answers based on the given context.
If the context doesn't contain relevant information to answer the question, say "I don't have enough information to answer this question."
Always cite which document(s) you used for your answer.`

// Generator produces answers with a bounded retry loop around the completer.
type Generator struct {
	completer   Completer
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(time.Duration)
	logger      *zap.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithMaxAttempts caps how many times the completer is tried.
func WithMaxAttempts(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the delay before the first retry. The delay doubles
// after each failed attempt.
func WithRetryDelay(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		if d > 0 {
			g.retryDelay = d
		}
	}
}

// WithSleep replaces the function used to wait between attempts.
func WithSleep(fn func(time.Duration)) GeneratorOption {
	return func(g *Generator) {
		if fn != nil {
			g.sleep = fn
		}
	}
}

// WithLogger sets a logger for generation progress and retries.
func WithLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a generator around completer.
func NewGenerator(completer Completer, opts ...GeneratorOption) *Generator {
	g := &Generator{
		completer:   completer,
		maxAttempts: 3,
		retryDelay:  2 * time.Second,
		sleep:       time.Sleep,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers query from the retrieved results. The completer is tried
// up to the attempt cap with doubling delays in between. When every attempt
// fails the error text is returned as the answer, so the query path always
// hands the caller something to show.
func (g *Generator) Generate(ctx context.Context, query string, results []models.SearchResult) string {
	contextText := BuildContext(results)

	g.logger.Info("generating answer",
		zap.Int("documents", len(results)),
		zap.Int("context_chars", len(contextText)))

	req := CompletionRequest{
		System: systemPrompt,
		User:   fmt.Sprintf("Question: %s\n\nContext:\n%s", query, contextText),
	}

	delay := g.retryDelay
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		start := time.Now()
		text, err := g.completer.Complete(ctx, req)
		if err == nil {
			g.logger.Info("generated answer",
				zap.Int("attempt", attempt),
				zap.Duration("took", time.Since(start)))
			g.logger.Debug("answer preview", zap.String("preview", utils.Truncate(text, 100)))
			return text
		}
		lastErr = err
		g.logger.Error("answer generation failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.maxAttempts),
			zap.Error(err))
		if attempt < g.maxAttempts {
			g.logger.Info("retrying answer generation", zap.Duration("delay", delay))
			g.sleep(delay)
			delay *= 2
		}
	}
	return fmt.Sprintf("Error generating answer: %v", lastErr)
}

// BuildContext renders results as numbered context blocks for the prompt.
func BuildContext(results []models.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "\nDocument %d (Similarity: %.2f):\n%s\n", i+1, r.SimilarityScore, r.Text)
	}
	return b.String()
}
