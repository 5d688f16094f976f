package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string // debug, info, warn, error

	// Server
	ServerAddr string
	BaseURL    string
	SiteTitle  string // env: SITE_TITLE, default: "CareMatch"

	// Database
	DatabaseURL string

	// Session storage; empty keeps sessions in process memory
	RedisURL string

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// OIDC single sign-on onto existing accounts; disabled when issuer is empty
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Session
	SessionSecret string        // Used for encrypting cookies (32 bytes, base64)
	SessionIdle   time.Duration // env: SESSION_IDLE_TIMEOUT, default 30m

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Security
	BcryptCost   int // env: BCRYPT_COST, default 10
	RateLimitMax int // env: RATE_LIMIT_MAX, login attempts per minute per IP

	// Seed data file
	ConfigFile string

	// Email notifications; disabled when SMTPHost is empty
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "starttls" or "tls"
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ServerAddr:       getEnv("SERVER_ADDR", ":3000"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL:      getEnv("DATABASE_URL", "postgres://localhost:5432/carematch?sslmode=disable"),
		RedisURL:         getEnv("REDIS_URL", ""),
		TLSEnabled:       getEnv("TLS_ENABLED", "") != "",
		TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/oidc/callback"),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SessionIdle:      getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		CORSOrigins:      getEnv("CORS_ORIGINS", ""),
		BcryptCost:       getInt("BCRYPT_COST", 10),
		RateLimitMax:     getInt("RATE_LIMIT_MAX", 10),
		ConfigFile:       getEnv("CONFIG_FILE", "config.yaml"),
		SiteTitle:        getEnv("SITE_TITLE", "CareMatch"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:         getEnv("SMTP_FROM", ""),
		SMTPFromName:     getEnv("SMTP_FROM_NAME", "CareMatch"),
		SMTPTLS:          getEnv("SMTP_TLS", "starttls"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// OIDCEnabled returns true if single sign-on is configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

// AllowedOrigins splits CORSOrigins into a list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsEmailEnabled returns true if an SMTP relay and sender are configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsSecure reports whether cookies should carry the Secure flag.
func (c *Config) IsSecure() bool {
	return c.TLSEnabled || strings.HasPrefix(c.BaseURL, "https://")
}
