package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173,http://localhost:5174" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"production"`
	StorageDriver  string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	MongoURI       string        `env:"MONGO_URI"`
	MongoDB        string        `env:"MONGO_DB" envDefault:"polls"`
	RedisURL       string        `env:"REDIS_URL"`
	JWTSecret      string        `env:"JWT_SECRET"`
	StatsCacheTTL  time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`
	VoteLockTTL    time.Duration `env:"VOTE_LOCK_TTL" envDefault:"5s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
}

// Load loads configuration from a .env file, if present, and the environment
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()
	return Parse(env.Options{})
}

// Parse reads the configuration with the given env options. Tests pass
// Options.Environment to avoid touching the process environment.
func Parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.AllowedOrigins = trimOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks driver-specific requirements
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo storage driver")
		}
		if c.MongoDB == "" {
			return fmt.Errorf("MONGO_DB is required for the mongo storage driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.StatsCacheTTL < 0 || c.VoteLockTTL < 0 {
		return fmt.Errorf("cache TTLs must not be negative")
	}
	return nil
}

// trimOrigins drops blanks and surrounding spaces from the origin list
func trimOrigins(origins []string) []string {
	result := make([]string, 0, len(origins))
	for _, part := range origins {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
