package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string        `envconfig:"PORT" default:"8080"`
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	AuthSecret    string        `envconfig:"AUTH_SECRET"`
	TokenTTL      time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"8h"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`

	BootstrapAdminUsername string `envconfig:"BOOTSTRAP_ADMIN_USERNAME" default:"superadmin"`
	BootstrapAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD"`

	AnalyticsCacheTTL time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"30s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("CAFEPOS", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate enforces the minimum security posture before the server starts.
func (c Config) Validate() error {
	if len(c.AuthSecret) < 32 {
		return fmt.Errorf("CAFEPOS_AUTH_SECRET must be set and at least 32 characters")
	}
	if c.BootstrapAdminPassword != "" && len(c.BootstrapAdminPassword) < 8 {
		return fmt.Errorf("CAFEPOS_BOOTSTRAP_ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
