package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/domain"
	"github.com/kailas-cloud/chunkdex/internal/metrics"
	"github.com/kailas-cloud/chunkdex/internal/transport/sanitize"
)

// Kind tells a chat client from an embedding client in logs and metrics.
type Kind string

// Client kinds.
const (
	KindChat      Kind = "chat"
	KindEmbedding Kind = "embedding"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Completion is the first choice of a chat completion.
type Completion struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Config holds the model client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Kind       Kind
	Dimensions int
	User       string
	// HTTPClient carries the sanitizing transport. Nil uses http.DefaultClient.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// ModelClient talks to an OpenAI-compatible endpoint for a single model.
// Text handed to Chat and Embed is stripped of surrogate code points before
// it is marshaled; the request body is checked again by the transport.
type ModelClient struct {
	client     *openai.Client
	model      string
	baseURL    string
	kind       Kind
	dimensions int
	user       string
	logger     *zap.Logger
}

// NewModelClient creates an OpenAI-compatible model client.
func NewModelClient(cfg *Config) *ModelClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	kind := cfg.Kind
	if kind == "" {
		kind = KindChat
	}

	return &ModelClient{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		kind:       kind,
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		logger:     logger,
	}
}

// Model returns the model identifier the client is bound to.
func (c *ModelClient) Model() string { return c.model }

// BaseURL returns the endpoint base URL.
func (c *ModelClient) BaseURL() string { return c.baseURL }

// Kind returns whether this is a chat or an embedding client.
func (c *ModelClient) Kind() Kind { return c.kind }

// Chat sends a chat completion request and returns the first choice.
func (c *ModelClient) Chat(ctx context.Context, messages []Message) (Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
		User:     c.user,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: sanitize.Text(m.Content),
		})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.recordFailure()
		return Completion{}, parseAPIError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		c.recordFailure()
		return Completion{}, fmt.Errorf("empty chat completion response: %w", domain.ErrModelProvider)
	}

	c.recordSuccess(duration, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)

	choice := resp.Choices[0]
	return Completion{
		Content:          choice.Message.Content,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// Embed returns one vector per input text, in input order.
func (c *ModelClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = sanitize.Text(t)
	}

	req := openai.EmbeddingRequest{
		Input:          input,
		Model:          openai.EmbeddingModel(c.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           c.user,
	}
	if c.dimensions > 0 {
		req.Dimensions = c.dimensions
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		c.recordFailure()
		return nil, parseAPIError(ctx, err)
	}
	if len(resp.Data) != len(texts) {
		c.recordFailure()
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d: %w",
			len(texts), len(resp.Data), domain.ErrModelProvider)
	}

	c.recordSuccess(duration, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *ModelClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(ctx, err))
	}
	return nil
}

func (c *ModelClient) recordFailure() {
	metrics.ModelRequestsTotal.WithLabelValues(string(c.kind), c.model, "error").Inc()
}

func (c *ModelClient) recordSuccess(d time.Duration, prompt, completion, total int) {
	kind := string(c.kind)
	metrics.ModelRequestsTotal.WithLabelValues(kind, c.model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(kind, c.model).Observe(d.Seconds())
	if total > 0 {
		metrics.ModelTokensTotal.WithLabelValues(kind, c.model, "prompt").Add(float64(prompt))
		metrics.ModelTokensTotal.WithLabelValues(kind, c.model, "completion").Add(float64(completion))
		metrics.ModelTokensTotal.WithLabelValues(kind, c.model, "total").Add(float64(total))
	}
	c.logger.Debug("Model request completed",
		zap.String("kind", kind),
		zap.String("model", c.model),
		zap.Duration("duration", d),
		zap.Int("total_tokens", total),
	)
}

// parseAPIError extracts a human-readable error from the API response.
// API failures wrap domain.ErrModelProvider; transport failures wrap
// domain.ErrConnection and keep the underlying error in the chain. Context
// errors are returned as they are.
func parseAPIError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("model request: %w", ctxErr)
	}

	wrap := domain.ErrModelProvider

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("model API error %d: %s: %w",
			reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("model API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return fmt.Errorf("model endpoint unreachable: %w: %w", domain.ErrConnection, err)
	}

	return fmt.Errorf("model request failed: %w: %w", wrap, err)
}

// extractDetail extracts the "detail" field from a JSON error body
// (FastAPI-style providers).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
