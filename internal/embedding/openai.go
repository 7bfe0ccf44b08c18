package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "text-embedding-ada-002"

	// DefaultDimensions matches DefaultModel's output size.
	DefaultDimensions = 1536

	// maxBatchSize is the API limit on inputs per request.
	maxBatchSize = 2048
)

// OpenAIEmbedder produces embeddings through the OpenAI embeddings API or any
// compatible endpoint selected with WithBaseURL.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// OpenAIOption configures an OpenAIEmbedder.
type OpenAIOption func(*OpenAIEmbedder)

// WithModel selects the embedding model.
func WithModel(model string) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithDimensions sets the expected vector length. Only text-embedding-3
// models accept a requested dimension; for older models the value is used to
// validate responses.
func WithDimensions(d int) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		if d > 0 {
			e.dimensions = d
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		e.baseURL = url
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		e.httpClient = c
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewOpenAIEmbedder creates an embedder authenticated with apiKey.
func NewOpenAIEmbedder(apiKey string, opts ...OpenAIOption) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		model:      DefaultModel,
		dimensions: DefaultDimensions,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if e.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(e.baseURL))
	}
	if e.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(e.httpClient))
	}
	client := openai.NewClient(clientOpts...)
	e.client = &client
	return e
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in order. Newlines are replaced with spaces before
// the request, and inputs beyond the API batch limit are split across calls.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	flattened := make([]string, len(texts))
	for i, t := range texts {
		flattened[i] = strings.ReplaceAll(t, "\n", " ")
	}

	result := make([][]float32, len(texts))
	for start := 0; start < len(flattened); start += maxBatchSize {
		end := min(start+maxBatchSize, len(flattened))
		vecs, err := e.request(ctx, flattened[start:end])
		if err != nil {
			e.logger.Error("embedding request failed",
				zap.String("model", e.model),
				zap.Int("batch_start", start),
				zap.Int("batch_size", end-start),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrService, err)
		}
		copy(result[start:], vecs)
	}
	return result, nil
}

func (e *OpenAIEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model:          e.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	// Only text-embedding-3 models accept a requested dimension.
	if strings.HasPrefix(e.model, "text-embedding-3") {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	// The API may return items out of order; place each by its index.
	vecs := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= int64(len(texts)) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		if len(vec) != e.dimensions {
			return nil, fmt.Errorf("embedding has dimension %d, expected %d", len(vec), e.dimensions)
		}
		vecs[item.Index] = vec
	}
	for i, vec := range vecs {
		if vec == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}
	return vecs, nil
}

// Dimensions returns the vector length this embedder produces.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close releases resources. The HTTP client holds none.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
