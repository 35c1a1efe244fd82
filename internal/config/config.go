package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:""`
	Port string `env:"SERVER_PORT" envDefault:"8080"`
}

// MongoConfig holds the store connection settings.
type MongoConfig struct {
	URI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/horizon"`
	Database string `env:"MONGO_DB" envDefault:"horizon"`
}

// AuthConfig holds secrets and credential parameters. All values are read
// once at startup and never mutated.
type AuthConfig struct {
	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"5h"`
	BCryptCost    int           `env:"BCRYPT_COST" envDefault:"12"`
	SetupTokenTTL time.Duration `env:"SETUP_TOKEN_TTL" envDefault:"168h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
}

// FrontendConfig holds the base URL used to build setup and reset links.
type FrontendConfig struct {
	BaseURL string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`
}

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Auth     AuthConfig
	Frontend FrontendConfig
	Debug    bool `env:"DEBUG" envDefault:"false"`
}

// Setup/reset token lifetime ceilings. Configured values above these are
// clamped down at load.
const (
	MaxSetupTokenTTL = 7 * 24 * time.Hour
	MaxResetTokenTTL = time.Hour
)

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Auth.SetupTokenTTL <= 0 || cfg.Auth.SetupTokenTTL > MaxSetupTokenTTL {
		cfg.Auth.SetupTokenTTL = MaxSetupTokenTTL
	}
	if cfg.Auth.ResetTokenTTL <= 0 || cfg.Auth.ResetTokenTTL > MaxResetTokenTTL {
		cfg.Auth.ResetTokenTTL = MaxResetTokenTTL
	}
	return cfg, nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}
