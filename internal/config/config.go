package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	BaseURL     string // public URL of this service, used for the OAuth redirect
	FrontendURL string // dashboard URL we redirect back to after auth

	SlackClientID     string
	SlackClientSecret string
	JWTSecret         string

	DatabaseURL string // PostgreSQL; takes precedence over SQLitePath
	SQLitePath  string // SQLite fallback; empty means in-memory store
	RedisURL    string // enables rate limiting when set

	SyncInterval time.Duration // cadence of the full resync job
	DigestHour   int           // local hour of the daily digest broadcast

	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	port := getEnv("PORT", "3001")
	cfg := &Config{
		Port:              port,
		Env:               getEnv("ENV", "development"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:"+port),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		SlackClientID:     os.Getenv("SLACK_CLIENT_ID"),
		SlackClientSecret: os.Getenv("SLACK_CLIENT_SECRET"),
		JWTSecret:         getEnv("JWT_SECRET", "slack-dm-tracker-secret-key-2024"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        os.Getenv("SQLITE_PATH"),
		RedisURL:          os.Getenv("REDIS_URL"),
		SyncInterval:      getDuration("SYNC_INTERVAL", 10*time.Minute),
		DigestHour:        getInt("DIGEST_HOUR", 19),
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	if cfg.DigestHour < 0 || cfg.DigestHour > 23 {
		cfg.DigestHour = 19
	}

	// In production, require the Slack app credentials and a real secret
	if cfg.Env == "production" {
		if cfg.SlackClientID == "" || cfg.SlackClientSecret == "" {
			panic("SLACK_CLIENT_ID and SLACK_CLIENT_SECRET are required in production")
		}
		if os.Getenv("JWT_SECRET") == "" {
			panic("JWT_SECRET is required in production")
		}
	}

	return cfg
}

// RedirectURL returns the OAuth callback URL registered with the provider.
func (c *Config) RedirectURL() string {
	return c.BaseURL + "/auth/callback"
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
