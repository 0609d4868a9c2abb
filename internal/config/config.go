package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; `required` fields make Load fail when unset.
type Config struct {
	Env            string `envconfig:"APP_ENV" default:"dev"`               // application environment (e.g. "dev", "prod")
	Port           string `envconfig:"APP_PORT" default:"8080"`             // HTTP port to listen on
	DBUser         string `envconfig:"DB_USER" required:"true"`             // database username
	DBPass         string `envconfig:"DB_PASS"`                             // database password (optional)
	DBHost         string `envconfig:"DB_HOST" default:"127.0.0.1"`         // database host address
	DBPort         string `envconfig:"DB_PORT" default:"3306"`              // database port number
	DBName         string `envconfig:"DB_NAME" required:"true"`             // database name
	JWTSecret      string `envconfig:"JWT_SECRET" required:"true"`          // secret used to sign JWTs
	AccessTTLMin   int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"1440"` // access token time‑to‑live in minutes
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"10"`            // bcrypt cost for password hashing
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`            // zap level name
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"false"`    // apply schema.sql before serving

	// Sub-configs are processed separately so their keys stay unprefixed.
	Redis     RedisConfig     `ignored:"true"`
	RateLimit RateLimitConfig `ignored:"true"`
	Cache     CacheConfig     `ignored:"true"`
	Events    EventsConfig    `ignored:"true"`
}

// AccessTTL returns the configured token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// Load reads an optional .env file and then the process environment into a
// Config.  Variables already present in the environment win over .env.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is normal outside local development
	var c Config
	for _, target := range []interface{}{&c, &c.Redis, &c.RateLimit, &c.Cache, &c.Events} {
		if err := envconfig.Process("", target); err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
	}
	if c.JWTSecret == "" {
		return Config{}, errors.New("load config: JWT_SECRET must not be empty")
	}
	c.RateLimit.normalize()
	return c, nil
}
