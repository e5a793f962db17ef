package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                    int    `env:"PORT" envDefault:"8080"`
	AppEnv                  string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL             string `env:"DATABASE_URL,required"`
	RedisURL                string `env:"REDIS_URL,required"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
	AuthTokenTTLHours       int    `env:"AUTH_TOKEN_TTL_HOURS" envDefault:"24"`
	ResetTokenTTLMinutes    int    `env:"RESET_TOKEN_TTL_MINUTES" envDefault:"10"`
	ResetTokenSecret        string `env:"RESET_TOKEN_SECRET" envDefault:"dev-secret-change-me"`
	ClientURL               string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	GoogleClientID          string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret      string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL       string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/api/calendar/callback"`
	EncryptionKey           string `env:"ENCRYPTION_KEY"`
	SMTPHost                string `env:"SMTP_HOST"`
	SMTPPort                int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername            string `env:"SMTP_USERNAME"`
	SMTPPassword            string `env:"SMTP_PASSWORD"`
	MailFrom                string `env:"MAIL_FROM" envDefault:"no-reply@mentormatch.local"`
	FeaturedCacheTTLSeconds int    `env:"FEATURED_CACHE_TTL_SECONDS" envDefault:"300"`
}

func (c *Config) AuthTokenTTL() time.Duration {
	return time.Duration(c.AuthTokenTTLHours) * time.Hour
}

func (c *Config) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLMinutes) * time.Minute
}

func (c *Config) FeaturedCacheTTL() time.Duration {
	return time.Duration(c.FeaturedCacheTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) Validate(isProduction bool) error {
	if c.EncryptionKey != "" && len(c.EncryptionKey) != 64 {
		return fmt.Errorf("ENCRYPTION_KEY must be 64 hex characters (generate with: openssl rand -hex 32)")
	}

	if isProduction {
		if err := validateSecret("RESET_TOKEN_SECRET", c.ResetTokenSecret); err != nil {
			return err
		}

		if c.GoogleClientID == "" {
			log.Warn().Msg("GOOGLE_CLIENT_ID is empty in production: Google sign-in and calendar links disabled")
		}
		if c.SMTPHost == "" {
			log.Warn().Msg("SMTP_HOST is empty in production: password reset mails are only logged")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: calendar refresh tokens will not be stored")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
