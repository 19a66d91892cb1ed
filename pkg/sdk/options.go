package chunkdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "mongodb", "redis" or "valkey"
	uri      string
	addrs    []string
	password string
	database string

	vectorDimensions int
	similarity       string
	vectorPath       string
	textField        string
	hnswM            int
	hnswEFConstruct  int
	concurrency      int
	pollInterval     time.Duration
	maxWait          time.Duration

	models *ModelSettings

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMongo connects to a MongoDB deployment with Atlas Search.
func WithMongo(uri, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMongo
		c.uri = uri
		c.database = database
	})
}

// WithRedis connects to a Redis 8 instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey connects to a Valkey instance with valkey-search.
// Valkey has no full-text fields, so the text index is not provisioned.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverValkey
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithDatabase sets the database name. For Redis and Valkey it is the
// namespace prefixed to index names and keys.
func WithDatabase(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.database = name
	})
}

// WithVectorDimensions sets the embedding width of the vector index.
// Defaults to 1024.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithSimilarity sets the vector similarity: cosine, dotProduct or euclidean.
func WithSimilarity(similarity string) Option {
	return optionFunc(func(c *clientConfig) {
		c.similarity = similarity
	})
}

// WithPaths sets the document path of the embedding and the text field.
// Defaults: "embedding" and "content".
func WithPaths(vectorPath, textField string) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorPath = vectorPath
		c.textField = textField
	})
}

// WithHNSW configures HNSW parameters for Redis and Valkey vector indexes.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithConcurrency submits up to n index creation requests at once.
// Default: 1.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithPollInterval sets the pause between readiness polls. Default: 10s.
func WithPollInterval(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.pollInterval = d
	})
}

// WithMaxWait bounds AwaitReady. Zero (default) waits until the indexes are
// built or the context is done.
func WithMaxWait(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxWait = d
	})
}

// WithModels configures the OpenAI-compatible model endpoints.
func WithModels(s ModelSettings) Option {
	return optionFunc(func(c *clientConfig) {
		c.models = &s
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
