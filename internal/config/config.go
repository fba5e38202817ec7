// Package config loads service configuration from the environment,
// with an optional .env file for local runs.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"Shopfront/internal/storage"
)

type Config struct {
	Addr       string `envconfig:"ADDR" default:":8080"`
	CatalogURL string `envconfig:"CATALOG_URL" default:"https://dummyjson.com"`

	// Storage selects the persistence medium behind the state stores.
	Storage    string `envconfig:"STORAGE" default:"file"`
	StateDir   string `envconfig:"STATE_DIR" default:"./state"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./state/shopfront.db"`

	Debug bool `envconfig:"DEBUG" default:"false"`

	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricsToken   string `envconfig:"METRICS_TOKEN"`

	ReviewRateLimit  int `envconfig:"REVIEW_RATE_LIMIT" default:"5"`
	ReviewRateWindow int `envconfig:"REVIEW_RATE_WINDOW_SECONDS" default:"60"`
}

func Load() (Config, error) {
	// Missing .env is the normal case outside local runs.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}

// OpenStorage builds the adapter named by cfg.Storage.
func (c Config) OpenStorage() (storage.Adapter, error) {
	switch c.Storage {
	case "memory":
		return storage.NewMem(), nil
	case "file":
		return storage.NewFile(c.StateDir)
	case "sqlite":
		return storage.OpenSQLite(c.SQLitePath)
	}
	return nil, fmt.Errorf("unknown STORAGE backend %q", c.Storage)
}
