// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL embedded in email links.
	BaseURL string

	// FrontendOrigin is the React app's origin, allowed by CORS.
	FrontendOrigin string

	// Database holds MySQL connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds authentication-related settings.
	Auth AuthConfig

	// SMTP holds outbound mail settings. Empty host means the dev mailer
	// (log only) is used.
	SMTP SMTPConfig
}

// DatabaseConfig holds MySQL connection parameters. Individual fields are
// read from separate env vars so container orchestrators can manage each
// independently. If DATABASE_URL is set, it takes precedence.
type DatabaseConfig struct {
	// Host is the MySQL address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MySQL username (default: "ouisite").
	User string

	// Password is the MySQL password (default: "ouisite").
	Password string

	// Name is the database name (default: "ouisite").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// fields using the driver's Config.FormatDSN() to safely handle special
// characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SessionTTL is how long sessions last before expiring.
	SessionTTL time.Duration

	// VerificationTokenTTL is the validity window of email-verification
	// tokens.
	VerificationTokenTTL time.Duration

	// ResetTokenTTL is the validity window of password-reset tokens.
	// Deliberately short: a reset link grants account takeover.
	ResetTokenTTL time.Duration
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromAddress string

	// Encryption is "starttls" (default), "ssl", or "none".
	Encryption string
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing in production.
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "ouisite"),
			Password:        getEnv("DB_PASSWORD", "ouisite"),
			Name:            getEnv("DB_NAME", "ouisite"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SessionTTL:           getEnvDuration("SESSION_TTL", 168*time.Hour), // 7 days
			VerificationTokenTTL: getEnvDuration("VERIFICATION_TOKEN_TTL", 24*time.Hour),
			ResetTokenTTL:        getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		},

		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromName:    getEnv("SMTP_FROM_NAME", "OuiSite"),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", "no-reply@ouisite.app"),
			Encryption:  getEnv("SMTP_ENCRYPTION", "starttls"),
		},
	}

	// Production refuses to start without a real mail path: verification
	// and reset links would silently go nowhere.
	if cfg.IsProduction() {
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("SMTP_HOST is required in production")
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "168h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
