// Package config handles loading and parsing application configuration.
// It supports these sources (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. Environment variables alone, when neither of the above is given
//
// A .env file in the working directory, if present, is loaded into the
// environment first.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure shared by both binaries.
// Every field maps to a key in the YAML file AND can be overridden by the
// corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// HTTPServer is where the portal listens.
	HTTPServer `yaml:"http_server"`

	// Portal configures the portal's connection to the backend.
	Portal Portal `yaml:"portal"`

	// Backend configures the development backend.
	Backend Backend `yaml:"backend"`
}

// HTTPServer holds settings specific to the portal's HTTP server.
type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
}

// Portal holds the portal's client-side settings.
type Portal struct {
	// APIBaseURL is the backend root; the client appends /students.
	APIBaseURL string `yaml:"api_base_url" env:"API_BASE_URL" env-default:"http://localhost:5000"`

	// SuccessDelay is how long a success message stays up before the
	// form completes (closes the modal or switches tabs).
	SuccessDelay time.Duration `yaml:"success_delay" env:"SUCCESS_DELAY" env-default:"1500ms"`

	// RequestTimeout bounds each backend call. Zero means no timeout.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"0s"`
}

// Backend holds the development backend's settings.
type Backend struct {
	Addr string `yaml:"address" env:"BACKEND_ADDR" env-default:"localhost:5000"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"storage/students.db"`
}

// Load reads the config from path, or from the environment alone when path
// is empty.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config: file does not exist: %s", path)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return &cfg, nil
}

// MustLoad reads, validates, and returns the application config.
// It exits the process if the config cannot be loaded.
func MustLoad() *Config {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err.Error())
	}
	return cfg
}
