// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	CORSOrigins string `env:"CORS_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:3000"`
	FrontendURL string `env:"FRONTEND_URL" default:"http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
	LogFile   string `env:"LOG_FILE"`

	HoldTTL       time.Duration `env:"HOLD_TTL" default:"15m"`
	SessionTTL    time.Duration `env:"SESSION_TTL" default:"168h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" default:"30s"`
	MailInterval  time.Duration `env:"MAIL_INTERVAL" default:"15s"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" default:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" default:"no-reply@localhost"`

	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
	PlatformFeeBPS       int    `env:"PLATFORM_FEE_BPS" default:"250"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" default:"1"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" default:"5"`

	// TrustedProxies lists the addresses or CIDRs allowed to set
	// X-Forwarded-For. Empty means the peer address is always used.
	TrustedProxies string `env:"TRUSTED_PROXIES"`
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Production() && c.PaymentWebhookSecret == "" {
		return errors.New("PAYMENT_WEBHOOK_SECRET is required in production")
	}
	if c.PlatformFeeBPS < 0 || c.PlatformFeeBPS > 10000 {
		return fmt.Errorf("PLATFORM_FEE_BPS must be between 0 and 10000, got %d", c.PlatformFeeBPS)
	}
	if c.HoldTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("HOLD_TTL and SESSION_TTL must be positive")
	}
	if c.SweepInterval <= 0 || c.MailInterval <= 0 {
		return errors.New("SWEEP_INTERVAL and MAIL_INTERVAL must be positive")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive")
	}
	if _, err := c.Proxies(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// MailEnabled reports whether outbound email is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// Origins splits CORSOrigins into a list, dropping blanks.
func (c *Config) Origins() []string {
	return ParseCSV(c.CORSOrigins)
}

// Proxies parses TrustedProxies. A bare address is taken as a single-host
// prefix.
func (c *Config) Proxies() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range ParseCSV(c.TrustedProxies) {
		if !strings.Contains(entry, "/") {
			addr, err := netip.ParseAddr(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		out = append(out, prefix.Masked())
	}
	return out, nil
}

func ParseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
