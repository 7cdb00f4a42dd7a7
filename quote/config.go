// Package quote fetches latest asset prices from a configurable JSON HTTP
// endpoint and serves them as a price source for portfolio finalization.
//
// The endpoint is not hardcoded: the URL template and the JSONPath of the
// price inside the response come from the environment, so any provider that
// answers JSON over GET can back it.
package quote

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the price endpoint settings, read from the environment.
type Config struct {
	// URL is the GET endpoint template; every "{code}" is replaced by the
	// asset code being priced. Empty disables fetching.
	URL string `env:"QUOTE_API_URL" envDefault:""`
	// PricePath is the JSONPath of the price inside the response body.
	PricePath string `env:"QUOTE_PRICE_PATH" envDefault:"$.price"`
	// DatePath is the JSONPath of the quote date, empty when the provider
	// does not report one.
	DatePath string        `env:"QUOTE_DATE_PATH" envDefault:""`
	Timeout  time.Duration `env:"QUOTE_API_TIMEOUT" envDefault:"10s"`
	TTL      time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"15m"`
	Debug    bool          `env:"QUOTE_API_DEBUG" envDefault:"false"`
}

// Load reads the configuration from a .env file when present, then from the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	opts := env.Options{RequiredIfNoDef: true}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is Load for main functions: it exits on a broken environment.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("parse quote config error: %s", err)
	}
	return cfg
}
