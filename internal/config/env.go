package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/gragdev/grag/domain/fault"
)

// EnvPrefix is the prefix for every grag environment variable except
// APP_CONFIG_PATH.
const EnvPrefix = "GRAG"

// ConfigPathEnv points at the YAML configuration file.
const ConfigPathEnv = "APP_CONFIG_PATH"

// EnvConfig holds environment-based overrides. Every field is optional;
// the environment is the last configuration source before CLI flags.
type EnvConfig struct {
	// GraphEndpoint overrides graph.endpoint.
	// Env: GRAG_GRAPH_ENDPOINT
	GraphEndpoint string `envconfig:"GRAPH_ENDPOINT"`

	// GraphUsername overrides graph.username.
	// Env: GRAG_GRAPH_USERNAME
	GraphUsername string `envconfig:"GRAPH_USERNAME"`

	// GraphPassword overrides graph.password. This is the supported way
	// to keep the secret out of the config file.
	// Env: GRAG_GRAPH_PASSWORD
	GraphPassword string `envconfig:"GRAPH_PASSWORD"`

	// GraphDatabase overrides graph.database.
	// Env: GRAG_GRAPH_DATABASE
	GraphDatabase string `envconfig:"GRAPH_DATABASE"`

	// VectorIndexName overrides vector.index_name.
	// Env: GRAG_VECTOR_INDEX_NAME
	VectorIndexName string `envconfig:"VECTOR_INDEX_NAME"`

	// VectorDimension overrides vector.dimension.
	// Env: GRAG_VECTOR_DIMENSION
	VectorDimension int `envconfig:"VECTOR_DIMENSION"`

	// EmbeddingModelID overrides embedding.model_id.
	// Env: GRAG_EMBEDDING_MODEL_ID
	EmbeddingModelID string `envconfig:"EMBEDDING_MODEL_ID"`

	// EmbeddingProvider overrides embedding.provider (local or openai).
	// Env: GRAG_EMBEDDING_PROVIDER
	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER"`

	// EmbeddingBaseURL overrides embedding.base_url.
	// Env: GRAG_EMBEDDING_BASE_URL
	EmbeddingBaseURL string `envconfig:"EMBEDDING_BASE_URL"`

	// EmbeddingAPIKey overrides embedding.api_key.
	// Env: GRAG_EMBEDDING_API_KEY
	EmbeddingAPIKey string `envconfig:"EMBEDDING_API_KEY"`

	// ModelDir overrides embedding.model_dir.
	// Env: GRAG_MODEL_DIR
	ModelDir string `envconfig:"MODEL_DIR"`

	// DefaultLimit overrides retrieval.default_limit.
	// Env: GRAG_DEFAULT_LIMIT
	DefaultLimit int `envconfig:"DEFAULT_LIMIT"`

	// MaxLimit overrides retrieval.max_limit.
	// Env: GRAG_MAX_LIMIT
	MaxLimit int `envconfig:"MAX_LIMIT"`

	// TimeoutMillis overrides timeout.per_call_millis.
	// Env: GRAG_TIMEOUT_MILLIS
	TimeoutMillis int `envconfig:"TIMEOUT_MILLIS"`

	// LogLevel overrides log.level.
	// Env: GRAG_LOG_LEVEL
	LogLevel string `envconfig:"LOG_LEVEL"`

	// LogFormat overrides log.format (pretty or json).
	// Env: GRAG_LOG_FORMAT
	LogFormat string `envconfig:"LOG_FORMAT"`

	// Host overrides server.host.
	// Env: GRAG_HOST
	Host string `envconfig:"HOST"`

	// Port overrides server.port.
	// Env: GRAG_PORT
	Port int `envconfig:"PORT"`
}

// LoadFromEnv loads overrides from GRAG_-prefixed environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return EnvConfig{}, fault.New(fault.CodeConfigInvalid, "invalid environment configuration", fault.WithCause(err))
	}
	if !validLogFormat(cfg.LogFormat) {
		return EnvConfig{}, fault.Newf(fault.CodeConfigInvalid, "log format %q is not one of pretty, json", cfg.LogFormat)
	}
	return cfg, nil
}

// Options converts environment overrides into AppConfig options. Unset
// variables produce no option.
func (e EnvConfig) Options() []AppConfigOption {
	var opts []AppConfigOption

	if e.GraphEndpoint != "" {
		opts = append(opts, WithGraphEndpoint(e.GraphEndpoint))
	}
	if e.GraphUsername != "" || e.GraphPassword != "" {
		opts = append(opts, func(c *AppConfig) {
			if e.GraphUsername != "" {
				c.graphUsername = e.GraphUsername
			}
			if e.GraphPassword != "" {
				c.graphPassword = e.GraphPassword
			}
		})
	}
	opts = append(opts, WithGraphDatabase(e.GraphDatabase))

	if e.VectorIndexName != "" {
		opts = append(opts, WithIndexName(e.VectorIndexName))
	}
	if e.VectorDimension != 0 {
		opts = append(opts, WithDimension(e.VectorDimension))
	}

	if e.EmbeddingModelID != "" {
		opts = append(opts, WithModelID(e.EmbeddingModelID))
	}
	opts = append(opts, WithProvider(Provider(e.EmbeddingProvider)))
	if e.EmbeddingBaseURL != "" || e.EmbeddingAPIKey != "" {
		opts = append(opts, func(c *AppConfig) {
			if e.EmbeddingBaseURL != "" {
				c.openAIBaseURL = e.EmbeddingBaseURL
			}
			if e.EmbeddingAPIKey != "" {
				c.openAIAPIKey = e.EmbeddingAPIKey
			}
		})
	}
	opts = append(opts, WithModelDir(e.ModelDir))

	opts = append(opts,
		WithDefaultLimit(e.DefaultLimit),
		WithMaxLimit(e.MaxLimit),
	)
	if e.TimeoutMillis != 0 {
		opts = append(opts, WithPerCallTimeout(time.Duration(e.TimeoutMillis)*time.Millisecond))
	}

	opts = append(opts,
		WithLogLevel(e.LogLevel),
		WithLogFormat(parseLogFormat(e.LogFormat)),
		WithHost(e.Host),
		WithPort(e.Port),
	)

	return opts
}
