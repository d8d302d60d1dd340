package config

import (
	"os"

	"github.com/joho/godotenv"
)

// DefaultConfigFile is the config file looked up in the working directory
// when neither --config nor APP_CONFIG_PATH is set.
const DefaultConfigFile = "grag.yaml"

// LoadDotEnv loads environment variables from a .env file in the working
// directory. A missing file is not an error.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(".env")
}

// Load assembles the AppConfig from all sources, later overriding earlier:
// defaults, YAML config file, .env file, environment variables. The file
// path is resolved from the explicit argument, then APP_CONFIG_PATH, then
// DefaultConfigFile (optional in that last case only). The result is
// validated.
func Load(configPath string) (AppConfig, error) {
	if err := LoadDotEnv(); err != nil {
		return AppConfig{}, err
	}

	cfg := NewAppConfig()

	path := configPath
	explicit := path != ""
	if !explicit {
		if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
			path = envPath
			explicit = true
		} else {
			path = DefaultConfigFile
		}
	}

	if _, err := os.Stat(path); err == nil || explicit {
		file, err := LoadFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		cfg = cfg.Apply(file.Options()...)
	}

	env, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, err
	}
	cfg = cfg.Apply(env.Options()...)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
