// Package config loads service configuration from the environment. A .env
// file in the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrParsing = errors.New("config: parse environment")

// Load reads the given .env files (default ".env"), then parses the
// environment into a T. Missing files are ignored.
func Load[T any](files ...string) (T, error) {
	var cfg T
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsing, err)
	}
	return cfg, nil
}

// Neo4j holds graph database connection settings.
type Neo4j struct {
	URL  string `env:"URL" envDefault:"neo4j://localhost:7687"`
	User string `env:"USER" envDefault:"neo4j"`
	Pass string `env:"PASS" envDefault:"password"`
}

// NATS holds messaging settings.
type NATS struct {
	URL   string `env:"URL" envDefault:"nats://localhost:4222"`
	Queue string `env:"QUEUE" envDefault:"vin-workers"`
}

// Redis holds cache settings. An empty URL disables caching.
type Redis struct {
	URL string        `env:"URL"`
	TTL time.Duration `env:"TTL" envDefault:"24h"`
}

// VPIC holds settings for the NHTSA decode client.
type VPIC struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://vpic.nhtsa.dot.gov/api/vehicles"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
	Rate    float64       `env:"RATE" envDefault:"5"`
	Burst   int           `env:"BURST" envDefault:"5"`
}

// RateLimit holds per-client request limits.
type RateLimit struct {
	Rate    float64       `env:"RATE" envDefault:"20"`
	Burst   int           `env:"BURST" envDefault:"40"`
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"10m"`
}
