package grag

import (
	"time"

	"github.com/gragdev/grag/internal/config"
	"github.com/gragdev/grag/internal/log"
)

// clientOptions collects construction-time options before they are folded
// into an AppConfig.
type clientOptions struct {
	configOpts []config.AppConfigOption
	logger     *log.Logger
}

// Option configures the Client.
type Option func(*clientOptions)

// WithGraph sets the graph endpoint and credentials.
func WithGraph(endpoint, username, password string) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts,
			config.WithGraphEndpoint(endpoint),
			config.WithGraphCredentials(username, password),
		)
	}
}

// WithGraphDatabase selects a non-default database within the graph
// deployment.
func WithGraphDatabase(name string) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts, config.WithGraphDatabase(name))
	}
}

// WithVectorIndex names the vector index and its expected dimension.
func WithVectorIndex(name string, dimension int) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts,
			config.WithIndexName(name),
			config.WithDimension(dimension),
		)
	}
}

// WithLocalModel selects the local embedding backend with the given model.
func WithLocalModel(modelID string) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts,
			config.WithProvider(config.ProviderLocal),
			config.WithModelID(modelID),
		)
	}
}

// WithModelDir overrides the local model cache directory.
func WithModelDir(dir string) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts, config.WithModelDir(dir))
	}
}

// WithOpenAI selects the OpenAI-compatible embedding backend. An empty
// baseURL uses the public API.
func WithOpenAI(modelID, baseURL, apiKey string) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts,
			config.WithProvider(config.ProviderOpenAI),
			config.WithModelID(modelID),
			config.WithOpenAI(baseURL, apiKey),
		)
	}
}

// WithLimits sets the default and maximum result limits.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts,
			config.WithDefaultLimit(defaultLimit),
			config.WithMaxLimit(maxLimit),
		)
	}
}

// WithPerCallTimeout bounds each backend call made during retrieval.
func WithPerCallTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts, config.WithPerCallTimeout(d))
	}
}

// WithLogger supplies a logger; by default the client logs to stderr.
func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

func collect(opts []Option) clientOptions {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func toConfigOptions(opts []Option) []config.AppConfigOption {
	return collect(opts).configOpts
}

func loggerFromOptions(opts []Option) *log.Logger {
	return collect(opts).logger
}
