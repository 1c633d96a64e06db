// Package config handles loading and parsing application configuration.
// The file path comes from (in priority order):
//  1. The --config flag of the command being run
//  2. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//
// Every field maps to a key in the YAML file AND can be overridden by the
// corresponding environment variable (env:"...").
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure shared by the console and
// the sandbox API.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// StoragePath is the SQLite file holding the action journal and the
	// last-known-good request list.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`

	API     `yaml:"api"`
	Sandbox `yaml:"sandbox"`
}

// API configures the console's connection to the backend.
type API struct {
	// BaseURL is the prefix in front of /medication-requests,
	// e.g. "http://localhost:8082/api".
	BaseURL string `yaml:"base_url" env:"API_BASE_URL" env-required:"true"`

	// Token is the bearer token. When empty, TokenFile is read instead.
	Token string `yaml:"token" env:"API_TOKEN"`

	// TokenFile is where the login flow writes the session token.
	TokenFile string `yaml:"token_file" env:"API_TOKEN_FILE"`

	// Timeout bounds each HTTP call. Zero means the transport default.
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"15s"`
}

// Sandbox configures cmd/sandbox-api.
type Sandbox struct {
	// Addr is the TCP address the sandbox listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"SANDBOX_ADDR" env-default:"localhost:8082"`

	// Token, when set, is the only bearer token the sandbox accepts.
	Token string `yaml:"token" env:"SANDBOX_TOKEN"`

	// SkipSeed starts the sandbox empty instead of loading sample
	// requests and inventory.
	SkipSeed bool `yaml:"skip_seed" env:"SANDBOX_SKIP_SEED"`
}

// Load resolves the config path (flag value first, then CONFIG_PATH),
// reads the YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return nil, errors.New("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if cfg.API.Token == "" && cfg.API.TokenFile == "" {
		return nil, errors.New("cannot read config: api.token or api.token_file must be set")
	}
	return &cfg, nil
}

// MustLoad is Load that exits the process on failure.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
