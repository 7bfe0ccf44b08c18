package answer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// Chat completion defaults.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.3
)

// ChatCompleter is a Completer backed by the OpenAI chat completions API or
// any compatible endpoint selected with WithBaseURL.
type ChatCompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	baseURL     string
	httpClient  *http.Client
}

// ChatOption configures a ChatCompleter.
type ChatOption func(*ChatCompleter)

// WithModel selects the chat model.
func WithModel(model string) ChatOption {
	return func(c *ChatCompleter) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens caps the completion length in tokens.
func WithMaxTokens(n int) ChatOption {
	return func(c *ChatCompleter) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ChatOption {
	return func(c *ChatCompleter) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) ChatOption {
	return func(c *ChatCompleter) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ChatOption {
	return func(c *ChatCompleter) {
		c.httpClient = hc
	}
}

// NewChatCompleter creates a completer authenticated with apiKey.
func NewChatCompleter(apiKey string, opts ...ChatOption) *ChatCompleter {
	c := &ChatCompleter{
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if c.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(c.baseURL))
	}
	if c.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(c.httpClient))
	}
	client := openai.NewClient(clientOpts...)
	c.client = &client
	return c
}

// Complete sends the exchange and returns the model's reply text.
func (c *ChatCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: param.NewOpt(c.temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
