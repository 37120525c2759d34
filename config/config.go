/*
Package config loads server settings from the environment.

PURPOSE:
  Reads an optional .env file into the process environment, then decodes
  HOTEL_* variables into Config. Values already set in the environment win
  over the .env file.

VARIABLES (prefix HOTEL_):
  PORT                    HTTP port (8080)
  LOG_LEVEL               debug | info | warn | error (info)
  LOG_FORMAT              json | console (json)
  STORE_BACKEND           files | sqlite | memory (files)
  DATA_DIR                Table directory for the files backend (data)
  SQLITE_PATH             Database path for the sqlite backend (hotel.db)
  ADMIN_DEFAULT_PASSWORD  Admin password written on first run (admin123)
  TOKEN_SECRET            HMAC key for session tokens (random per process if empty)
  TOKEN_TTL               Session token lifetime (2h)
  CORS_ORIGINS            Comma-separated allowed origins
  SHUTDOWN_GRACE          Graceful shutdown timeout (30s)
  STATUS_REFRESH_INTERVAL Room status refresh period, 0 disables (1h)
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const Prefix = "HOTEL"

// Store backends.
const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Port      int    `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"files"`
	DataDir      string `envconfig:"DATA_DIR" default:"data"`
	SQLitePath   string `envconfig:"SQLITE_PATH" default:"hotel.db"`

	AdminDefaultPassword string `envconfig:"ADMIN_DEFAULT_PASSWORD" default:"admin123"`

	TokenSecret string        `envconfig:"TOKEN_SECRET"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"2h"`

	CORSOrigins   []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
	ShutdownGrace time.Duration `envconfig:"SHUTDOWN_GRACE" default:"30s"`

	StatusRefreshInterval time.Duration `envconfig:"STATUS_REFRESH_INTERVAL" default:"1h"`
}

// Load reads envFile (skipped when missing) and the HOTEL_* environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFiles, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("HOTEL_STORE_BACKEND: unknown backend %q", c.StoreBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("HOTEL_PORT: out of range: %d", c.Port)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("HOTEL_TOKEN_TTL: must be positive")
	}
	return nil
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
