package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/provider"
)

// Config holds the chunkdex configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Auth     AuthConfig     `yaml:"auth"`
	Index    IndexConfig    `yaml:"index"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds diagnostics API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds diagnostics HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverMongo  = "mongodb"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver          string   `yaml:"driver"` // mongodb, redis, valkey (default: mongodb)
	URI             string   `yaml:"uri"`    // mongodb
	Addrs           []string `yaml:"addrs"`  // redis, valkey
	Password        string   `yaml:"password"`
	Name            string   `yaml:"name"`
	Collection      string   `yaml:"collection"`
	PingTimeoutSec  int      `yaml:"ping_timeout_sec"`
	HNSWM           int      `yaml:"hnsw_m"`
	HNSWEFConstruct int      `yaml:"hnsw_ef_construction"`
}

// LLMConfig holds the OpenAI-compatible model endpoint settings.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	EmbeddingModel string `yaml:"embedding_model"`
	TimeoutSec     int    `yaml:"timeout_sec"`
}

// IndexConfig holds search index provisioning settings.
type IndexConfig struct {
	VectorPath      string `yaml:"vector_path"`
	Dimensions      int    `yaml:"dimensions"`
	Similarity      string `yaml:"similarity"`
	TextField       string `yaml:"text_field"`
	Analyzer        string `yaml:"analyzer"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	MaxWaitSec      int    `yaml:"max_wait_sec"` // 0 = wait indefinitely
	Concurrency     int    `yaml:"concurrency"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8090
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMongo
	}
	if c.Database.Name == "" {
		c.Database.Name = "rag_db"
	}
	if c.Database.Collection == "" {
		c.Database.Collection = "chunks"
	}
	if c.Database.PingTimeoutSec <= 0 {
		c.Database.PingTimeoutSec = 10
	}
	if c.Database.HNSWM <= 0 {
		c.Database.HNSWM = 16
	}
	if c.Database.HNSWEFConstruct <= 0 {
		c.Database.HNSWEFConstruct = 200
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 30
	}
	if c.Index.VectorPath == "" {
		c.Index.VectorPath = "embedding"
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = 1024
	}
	if c.Index.Similarity == "" {
		c.Index.Similarity = "cosine"
	}
	if c.Index.TextField == "" {
		c.Index.TextField = "content"
	}
	if c.Index.Analyzer == "" {
		c.Index.Analyzer = "lucene.standard"
	}
	if c.Index.PollIntervalSec <= 0 {
		c.Index.PollIntervalSec = 10
	}
	if c.Index.Concurrency <= 0 {
		c.Index.Concurrency = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return fmt.Errorf("database.uri is required for driver %q", c.Database.Driver)
		}
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be one of %q, %q, %q, got %q",
			DriverMongo, DriverRedis, DriverValkey, c.Database.Driver)
	}
	if _, err := index.ParseSimilarity(c.Index.Similarity); err != nil {
		return fmt.Errorf("index.similarity: %w", err)
	}
	if c.Index.MaxWaitSec < 0 {
		return fmt.Errorf("index.max_wait_sec must not be negative, got %d", c.Index.MaxWaitSec)
	}
	return nil
}

// ProviderSettings maps the llm section onto provider.Settings.
func (c *Config) ProviderSettings() provider.Settings {
	return provider.Settings{
		Provider:            c.LLM.Provider,
		Model:               c.LLM.Model,
		BaseURL:             c.LLM.BaseURL,
		APIKey:              c.LLM.APIKey,
		EmbeddingModel:      c.LLM.EmbeddingModel,
		EmbeddingDimensions: c.Index.Dimensions,
		Timeout:             time.Duration(c.LLM.TimeoutSec) * time.Second,
	}
}

// IndexSpecifications returns the vector and text index pair built from
// the index section. Valkey has no full-text fields and gets the vector index
// only. Call after Validate.
func (c *Config) IndexSpecifications() []index.Specification {
	sim, _ := index.ParseSimilarity(c.Index.Similarity)
	specs := index.DefaultSpecifications(c.Index.Dimensions, sim,
		c.Index.VectorPath, c.Index.TextField, c.Index.Analyzer)
	if c.Database.Driver == DriverValkey {
		return specs[:1]
	}
	return specs
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
