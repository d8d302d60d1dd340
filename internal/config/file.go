package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gragdev/grag/domain/fault"
)

// FileConfig mirrors the YAML configuration file. All keys are optional at
// this layer; required keys are enforced by AppConfig.Validate.
type FileConfig struct {
	Graph struct {
		Endpoint string `yaml:"endpoint"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"graph"`

	Vector struct {
		IndexName string `yaml:"index_name"`
		Dimension int    `yaml:"dimension"`
	} `yaml:"vector"`

	Embedding struct {
		ModelID  string `yaml:"model_id"`
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		ModelDir string `yaml:"model_dir"`
	} `yaml:"embedding"`

	Retrieval struct {
		DefaultLimit int `yaml:"default_limit"`
		MaxLimit     int `yaml:"max_limit"`
	} `yaml:"retrieval"`

	Timeout struct {
		PerCallMillis int `yaml:"per_call_millis"`
	} `yaml:"timeout"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
}

// ParseFile decodes a YAML configuration document. Unknown keys and type
// mismatches fail with 1002.
func ParseFile(data []byte) (FileConfig, error) {
	var file FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return FileConfig{}, fault.New(fault.CodeConfigInvalid, "config file is not valid YAML", fault.WithCause(err))
	}
	if !validLogFormat(file.Log.Format) {
		return FileConfig{}, fault.Newf(fault.CodeConfigInvalid, "log.format %q is not one of pretty, json", file.Log.Format)
	}
	return file, nil
}

// LoadFile reads and decodes the configuration file at path.
// A missing file fails with 1002; the caller decides whether the file is
// optional before calling.
func LoadFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileConfig{}, fault.Newf(fault.CodeConfigInvalid, "config file %s does not exist", path)
		}
		return FileConfig{}, fault.Newf(fault.CodeConfigInvalid, "cannot read config file %s", path)
	}
	return ParseFile(data)
}

// Options converts the file values into AppConfig options. Zero values are
// skipped so later sources only override what the file actually set.
func (f FileConfig) Options() []AppConfigOption {
	var opts []AppConfigOption

	if f.Graph.Endpoint != "" {
		opts = append(opts, WithGraphEndpoint(f.Graph.Endpoint))
	}
	if f.Graph.Username != "" || f.Graph.Password != "" {
		opts = append(opts, WithGraphCredentials(f.Graph.Username, f.Graph.Password))
	}
	opts = append(opts, WithGraphDatabase(f.Graph.Database))

	if f.Vector.IndexName != "" {
		opts = append(opts, WithIndexName(f.Vector.IndexName))
	}
	if f.Vector.Dimension != 0 {
		opts = append(opts, WithDimension(f.Vector.Dimension))
	}

	if f.Embedding.ModelID != "" {
		opts = append(opts, WithModelID(f.Embedding.ModelID))
	}
	opts = append(opts, WithProvider(Provider(f.Embedding.Provider)))
	if f.Embedding.BaseURL != "" || f.Embedding.APIKey != "" {
		opts = append(opts, WithOpenAI(f.Embedding.BaseURL, f.Embedding.APIKey))
	}
	opts = append(opts, WithModelDir(f.Embedding.ModelDir))

	opts = append(opts,
		WithDefaultLimit(f.Retrieval.DefaultLimit),
		WithMaxLimit(f.Retrieval.MaxLimit),
	)

	if f.Timeout.PerCallMillis != 0 {
		opts = append(opts, WithPerCallTimeout(time.Duration(f.Timeout.PerCallMillis)*time.Millisecond))
	}

	opts = append(opts,
		WithLogLevel(f.Log.Level),
		WithLogFormat(parseLogFormat(f.Log.Format)),
		WithHost(f.Server.Host),
		WithPort(f.Server.Port),
	)

	return opts
}

// validLogFormat reports whether s names a log format. Empty means unset.
func validLogFormat(s string) bool {
	switch s {
	case "", "pretty", "json", "JSON":
		return true
	default:
		return false
	}
}

// parseLogFormat parses an already-validated log format string; empty maps
// to empty so the option is a no-op and the default stands.
func parseLogFormat(s string) LogFormat {
	switch s {
	case "json", "JSON":
		return LogFormatJSON
	case "pretty":
		return LogFormatPretty
	default:
		return ""
	}
}
