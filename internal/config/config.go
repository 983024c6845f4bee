package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	AppURL       string
	Port         string
	SupportEmail string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Sessions
	JWTSecret string
	JWTExpiry time.Duration

	// Magic link
	MagicLinkEnabled       bool
	MagicLinkMaxAttempts   int           // issuance attempts per IP inside the window
	MagicLinkAttemptWindow time.Duration // rolling rate-limit window
	MagicLinkValidity      time.Duration // default token validity
	MagicLinkEligibleRoles []string      // empty = every role is eligible
	DefaultLoginRedirect   string        // where to land after sign-in when the token carries no target

	// Email
	EmailFrom    string
	MailProvider string // "resend", "ses" or "log"
	ResendAPIKey string
	SESRegion    string

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "Lumen"),
		AppEnv:       envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:       envRequired("APP_URL"), // Required: base URL for magic-link URLs
		Port:         envString("PORT", "8090"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@example.com"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/lumen.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Sessions
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Magic link
		MagicLinkEnabled:       envBool("MAGIC_LINK_ENABLED", true),
		MagicLinkMaxAttempts:   envInt("MAGIC_LINK_MAX_ATTEMPTS", 5),
		MagicLinkAttemptWindow: envDuration("MAGIC_LINK_ATTEMPT_WINDOW", 30*time.Minute),
		MagicLinkValidity:      envDuration("MAGIC_LINK_VALIDITY", 10*time.Minute),
		MagicLinkEligibleRoles: envStringSlice("MAGIC_LINK_ELIGIBLE_ROLES", nil),
		DefaultLoginRedirect:   envString("DEFAULT_LOGIN_REDIRECT", "/app/dashboard"),

		// Email (provider optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		MailProvider: envString("MAIL_PROVIDER", ""),
		ResendAPIKey: envString("RESEND_API_KEY", ""),
		SESRegion:    envString("SES_REGION", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for
// production deployments. Development falls back to log-mode email for
// easier local testing.
func validateProduction(cfg *Config) {
	if cfg.MailProvider == "" {
		slog.Error("production deployment requires MAIL_PROVIDER",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envStringSlice(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	parts := strings.Split(v, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			values = append(values, p)
		}
	}
	return values
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// Secrets and credentials are excluded, so it is safe to place on the
// request context.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		AppURL:       c.AppURL,
		Port:         c.Port,
		SupportEmail: c.SupportEmail,

		MagicLinkEnabled:     c.MagicLinkEnabled,
		DefaultLoginRedirect: c.DefaultLoginRedirect,

		EmailFrom: c.EmailFrom,
	}
}
