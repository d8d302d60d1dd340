// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gragdev/grag/domain/fault"
)

// Default configuration values.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8080
	DefaultLogLevel       = "INFO"
	DefaultGraphDatabase  = "neo4j"
	DefaultDefaultLimit   = 5
	DefaultMaxLimit       = 50
	DefaultPerCallTimeout = 10 * time.Second
	DefaultProvider       = ProviderLocal
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Provider identifies the embedding backend.
type Provider string

// Provider values.
const (
	ProviderLocal  Provider = "local"
	ProviderOpenAI Provider = "openai"
)

// AppConfig holds the validated application configuration.
type AppConfig struct {
	graphEndpoint string
	graphUsername string
	graphPassword string
	graphDatabase string

	indexName string
	dimension int

	modelID       string
	provider      Provider
	openAIBaseURL string
	openAIAPIKey  string
	modelDir      string

	defaultLimit   int
	maxLimit       int
	perCallTimeout time.Duration

	logLevel  string
	logFormat LogFormat

	host string
	port int
}

// DefaultModelDir returns the default embedding model cache directory.
func DefaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".grag/models"
	}
	return filepath.Join(home, ".grag", "models")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		graphDatabase:  DefaultGraphDatabase,
		provider:       DefaultProvider,
		modelDir:       DefaultModelDir(),
		defaultLimit:   DefaultDefaultLimit,
		maxLimit:       DefaultMaxLimit,
		perCallTimeout: DefaultPerCallTimeout,
		logLevel:       DefaultLogLevel,
		logFormat:      LogFormatPretty,
		host:           DefaultHost,
		port:           DefaultPort,
	}
}

// GraphEndpoint returns the graph bolt/neo4j endpoint URI.
func (c AppConfig) GraphEndpoint() string { return c.graphEndpoint }

// GraphUsername returns the graph username.
func (c AppConfig) GraphUsername() string { return c.graphUsername }

// GraphPassword returns the graph password.
func (c AppConfig) GraphPassword() string { return c.graphPassword }

// GraphDatabase returns the graph database name.
func (c AppConfig) GraphDatabase() string { return c.graphDatabase }

// IndexName returns the vector index name.
func (c AppConfig) IndexName() string { return c.indexName }

// Dimension returns the expected embedding dimension.
func (c AppConfig) Dimension() int { return c.dimension }

// ModelID returns the embedding model identifier.
func (c AppConfig) ModelID() string { return c.modelID }

// EmbeddingProvider returns the embedding backend selector.
func (c AppConfig) EmbeddingProvider() Provider { return c.provider }

// OpenAIBaseURL returns the OpenAI-compatible endpoint base URL.
func (c AppConfig) OpenAIBaseURL() string { return c.openAIBaseURL }

// OpenAIAPIKey returns the OpenAI-compatible endpoint API key.
func (c AppConfig) OpenAIAPIKey() string { return c.openAIAPIKey }

// ModelDir returns the local model cache directory.
func (c AppConfig) ModelDir() string { return c.modelDir }

// DefaultLimit returns the default result limit.
func (c AppConfig) DefaultLimit() int { return c.defaultLimit }

// MaxLimit returns the hard cap on result limits.
func (c AppConfig) MaxLimit() int { return c.maxLimit }

// PerCallTimeout returns the per-invocation timeout.
func (c AppConfig) PerCallTimeout() time.Duration { return c.perCallTimeout }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// Host returns the HTTP host for serve mode.
func (c AppConfig) Host() string { return c.host }

// Port returns the HTTP port for serve mode.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// Validate checks that every required key is present and well-typed.
// Missing keys fail with 1001; invalid values fail with 1002.
func (c AppConfig) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"graph.endpoint", c.graphEndpoint},
		{"graph.username", c.graphUsername},
		{"graph.password", c.graphPassword},
		{"vector.index_name", c.indexName},
		{"embedding.model_id", c.modelID},
	}
	for _, r := range required {
		if r.value == "" {
			return fault.Newf(fault.CodeConfigMissing, "required config key %s is missing", r.key)
		}
	}
	if c.dimension <= 0 {
		return fault.New(fault.CodeConfigMissing, "required config key vector.dimension is missing")
	}
	if c.provider != ProviderLocal && c.provider != ProviderOpenAI {
		return fault.Newf(fault.CodeConfigInvalid, "embedding.provider %q is not one of local, openai", c.provider)
	}
	if c.provider == ProviderOpenAI && c.openAIAPIKey == "" {
		return fault.New(fault.CodeConfigMissing, "required config key embedding.api_key is missing for provider openai")
	}
	if c.defaultLimit < 1 || c.defaultLimit > c.maxLimit {
		return fault.Newf(fault.CodeConfigInvalid, "retrieval.default_limit %d outside [1, %d]", c.defaultLimit, c.maxLimit)
	}
	if c.perCallTimeout <= 0 {
		return fault.New(fault.CodeConfigInvalid, "timeout.per_call_millis must be positive")
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithGraphEndpoint sets the graph endpoint URI.
func WithGraphEndpoint(uri string) AppConfigOption {
	return func(c *AppConfig) { c.graphEndpoint = uri }
}

// WithGraphCredentials sets the graph username and password.
func WithGraphCredentials(username, password string) AppConfigOption {
	return func(c *AppConfig) {
		c.graphUsername = username
		c.graphPassword = password
	}
}

// WithGraphDatabase sets the graph database name.
func WithGraphDatabase(name string) AppConfigOption {
	return func(c *AppConfig) {
		if name != "" {
			c.graphDatabase = name
		}
	}
}

// WithIndexName sets the vector index name.
func WithIndexName(name string) AppConfigOption {
	return func(c *AppConfig) { c.indexName = name }
}

// WithDimension sets the expected embedding dimension.
func WithDimension(n int) AppConfigOption {
	return func(c *AppConfig) { c.dimension = n }
}

// WithModelID sets the embedding model identifier.
func WithModelID(id string) AppConfigOption {
	return func(c *AppConfig) { c.modelID = id }
}

// WithProvider sets the embedding backend.
func WithProvider(p Provider) AppConfigOption {
	return func(c *AppConfig) {
		if p != "" {
			c.provider = p
		}
	}
}

// WithOpenAI sets the OpenAI-compatible endpoint base URL and API key.
func WithOpenAI(baseURL, apiKey string) AppConfigOption {
	return func(c *AppConfig) {
		c.openAIBaseURL = baseURL
		c.openAIAPIKey = apiKey
	}
}

// WithModelDir sets the local model cache directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		if dir != "" {
			c.modelDir = dir
		}
	}
}

// WithDefaultLimit sets the default result limit.
func WithDefaultLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.defaultLimit = n
		}
	}
}

// WithMaxLimit sets the hard cap on result limits.
func WithMaxLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithPerCallTimeout sets the per-invocation timeout.
func WithPerCallTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.perCallTimeout = d
		}
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) {
		if level != "" {
			c.logLevel = level
		}
	}
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) {
		if format != "" {
			c.logFormat = format
		}
	}
}

// WithHost sets the HTTP host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) {
		if host != "" {
			c.host = host
		}
	}
}

// WithPort sets the HTTP port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) {
		if port != 0 {
			c.port = port
		}
	}
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	return NewAppConfig().Apply(opts...)
}

// LogAttrs returns slog attributes for logging the configuration.
// The graph password is never logged.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("graph_endpoint", c.graphEndpoint),
		slog.String("graph_database", c.graphDatabase),
		slog.String("vector_index", c.indexName),
		slog.Int("vector_dimension", c.dimension),
		slog.String("embedding_model", c.modelID),
		slog.String("embedding_provider", string(c.provider)),
		slog.Int("default_limit", c.defaultLimit),
		slog.Int("max_limit", c.maxLimit),
		slog.Duration("per_call_timeout", c.perCallTimeout),
	}
}
