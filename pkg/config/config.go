package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the application configuration. It is loaded once at
// startup and passed by value into constructors; no other component
// reads the environment.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort  int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// Token signing. The secret has no default on purpose: a process
	// without one must refuse to start.
	SecretKey         string `env:"SECRET_KEY,required"`
	JWTAlgorithm      string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	AccessTokenExpiry int    `env:"ACCESS_TOKEN_EXPIRY" envDefault:"3600"` // seconds

	// Static administrator credentials gating tenant/user/role mutations.
	AdminUsername string `env:"ADMIN_USERNAME,required"`
	AdminPassword string `env:"ADMIN_PASSWORD,required"`

	// Login rate limiting (per tenant+username, fixed window).
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173,http://localhost:3000"`
}

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// Load reads configuration from environment variables. A .env file is
// honored if present, mainly for local development.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces the fail-closed startup rules that envconfig tags
// cannot express.
func (c *Config) validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}
	if strings.TrimSpace(c.AdminUsername) == "" || strings.TrimSpace(c.AdminPassword) == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must not be empty")
	}
	if !supportedAlgorithms[c.JWTAlgorithm] {
		return fmt.Errorf("unsupported JWT_ALGORITHM %q (want HS256, HS384 or HS512)", c.JWTAlgorithm)
	}
	if c.AccessTokenExpiry <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRY must be positive, got %d", c.AccessTokenExpiry)
	}
	return nil
}

// TokenLifetime returns the configured token expiry as a duration.
func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.AccessTokenExpiry) * time.Second
}
