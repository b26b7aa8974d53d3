package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/ukmik/membership-service/pkg/database"
)

const defaultSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the membership service, loaded once at
// startup and immutable thereafter.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"membership"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"membership_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"membership_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`

	// Tokens: distinct secrets per kind.
	AccessTokenSecret  string        `env:"AT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	RefreshTokenSecret string        `env:"RT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"24h"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Password reset
	ResetTokenTTL    time.Duration `env:"RESET_TOKEN_TTL" envDefault:"5m"`
	ResetLinkBaseURL string        `env:"RESET_LINK_BASE_URL" envDefault:"http://localhost:3000/reset-password"`

	// SMTP
	MailHost        string        `env:"MAIL_HOST" envDefault:"localhost"`
	MailPort        int           `env:"MAIL_PORT" envDefault:"587"`
	MailUser        string        `env:"MAIL_USER"`
	MailPass        string        `env:"MAIL_PASS"`
	MailFrom        string        `env:"MAIL_FROM" envDefault:"ukmik@utdi.ac.id"`
	MailSendTimeout time.Duration `env:"MAIL_SEND_TIMEOUT" envDefault:"10s"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// In non-development environments, require explicitly set, strong secrets.
	if cfg.Environment != "development" {
		secrets := []struct {
			name  string
			value string
		}{
			{"AT_SECRET", cfg.AccessTokenSecret},
			{"RT_SECRET", cfg.RefreshTokenSecret},
		}
		for _, s := range secrets {
			if s.value == defaultSecret {
				return nil, fmt.Errorf("%s must be explicitly set via environment variable in %q mode", s.name, cfg.Environment)
			}
			if len(s.value) < 32 {
				return nil, fmt.Errorf("%s must be at least 32 characters long, got %d", s.name, len(s.value))
			}
		}
	}

	if cfg.ResetTokenTTL <= 0 {
		return nil, fmt.Errorf("reset token TTL must be positive, got %s", cfg.ResetTokenTTL)
	}

	return cfg, nil
}

// Postgres returns the connection pool configuration derived from the
// POSTGRES_* and DB_* environment variables.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}
