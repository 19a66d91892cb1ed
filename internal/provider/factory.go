package provider

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chunkdex/internal/domain"
	"github.com/kailas-cloud/chunkdex/internal/transport/openai"
	"github.com/kailas-cloud/chunkdex/internal/transport/sanitize"
)

// DefaultTimeout bounds a single model request.
const DefaultTimeout = 30 * time.Second

// Settings is the model endpoint configuration a Factory is built from.
type Settings struct {
	Provider            string
	Model               string
	BaseURL             string
	APIKey              string
	EmbeddingModel      string
	EmbeddingDimensions int
	Timeout             time.Duration
}

// ModelInfo describes the configured models without exposing credentials.
type ModelInfo struct {
	LLMProvider    string `json:"llm_provider"`
	LLMModel       string `json:"llm_model"`
	LLMBaseURL     string `json:"llm_base_url"`
	EmbeddingModel string `json:"embedding_model"`
}

// Factory builds model clients that share one sanitizing HTTP transport.
// Clients built from the same settings are equivalent; nothing is cached.
type Factory struct {
	settings Settings
	base     http.RoundTripper
	client   *http.Client
	logger   *zap.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithBaseTransport sets the transport the sanitizer forwards to.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(f *Factory) { f.base = rt }
}

// WithLogger sets the factory logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// NewFactory creates a Factory. Settings are validated when a client is built.
func NewFactory(settings Settings, opts ...Option) *Factory {
	f := &Factory{settings: settings, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	if f.settings.Timeout <= 0 {
		f.settings.Timeout = DefaultTimeout
	}
	f.client = &http.Client{
		Timeout:   f.settings.Timeout,
		Transport: sanitize.NewTransport(f.base, f.logger),
	}
	return f
}

// HTTPClient returns the client every model client of this factory uses.
func (f *Factory) HTTPClient() *http.Client { return f.client }

// LLMModel returns a chat client. A non-empty override replaces the
// configured model identifier.
func (f *Factory) LLMModel(override string) (*openai.ModelClient, error) {
	model := strings.TrimSpace(override)
	if model == "" {
		model = f.settings.Model
	}
	if err := f.check("llm.model", model); err != nil {
		return nil, err
	}
	return openai.NewModelClient(&openai.Config{
		APIKey:     f.settings.APIKey,
		BaseURL:    f.settings.BaseURL,
		Model:      model,
		Kind:       openai.KindChat,
		HTTPClient: f.client,
		Logger:     f.logger,
	}), nil
}

// EmbeddingModel returns an embedding client for the configured embedding model.
func (f *Factory) EmbeddingModel() (*openai.ModelClient, error) {
	if err := f.check("llm.embedding_model", f.settings.EmbeddingModel); err != nil {
		return nil, err
	}
	return openai.NewModelClient(&openai.Config{
		APIKey:     f.settings.APIKey,
		BaseURL:    f.settings.BaseURL,
		Model:      f.settings.EmbeddingModel,
		Kind:       openai.KindEmbedding,
		Dimensions: f.settings.EmbeddingDimensions,
		HTTPClient: f.client,
		Logger:     f.logger,
	}), nil
}

// ModelInfo reports the configured provider and models.
func (f *Factory) ModelInfo() ModelInfo {
	return ModelInfo{
		LLMProvider:    f.settings.Provider,
		LLMModel:       f.settings.Model,
		LLMBaseURL:     f.settings.BaseURL,
		EmbeddingModel: f.settings.EmbeddingModel,
	}
}

// ValidateLLMConfiguration reports whether a chat client can be built from
// the settings. Failures are logged, not returned.
func (f *Factory) ValidateLLMConfiguration() bool {
	if _, err := f.LLMModel(""); err != nil {
		f.logger.Error("LLM configuration validation failed", zap.Error(err))
		return false
	}
	return true
}

func (f *Factory) check(field, model string) error {
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("%s is empty: %w", field, domain.ErrConfiguration)
	}
	if strings.TrimSpace(f.settings.APIKey) == "" {
		return fmt.Errorf("llm.api_key is empty: %w", domain.ErrConfiguration)
	}
	u, err := url.Parse(f.settings.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("llm.base_url %q is not an absolute http(s) URL: %w",
			f.settings.BaseURL, domain.ErrConfiguration)
	}
	return nil
}
