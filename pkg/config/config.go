package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Environment         string
	ServerPort          int
	MongoURI            string
	MongoDatabase       string
	RedisURL            string
	DataDir             string
	JWTSecret           string
	TokenTTLHours       int
	LogLevel            string
	CORSAllowedOrigins  []string
	OTPTTLMinutes       int
	SyncIntervalMinutes int
	RateLimitPerMinute  int
	SMTPHost            string
	SMTPPort            string
	SMTPUsername        string
	SMTPPassword        string
	SMTPFrom            string
}

// RemoteConfigured reports whether a remote document store was configured.
// An empty URI means the service runs on the local mirror alone.
func (c *Config) RemoteConfigured() bool {
	return c.MongoURI != ""
}

// RedisConfigured reports whether a relay broker was configured.
func (c *Config) RedisConfigured() bool {
	return c.RedisURL != ""
}

// SMTPConfigured reports whether outbound mail credentials were provided.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUsername != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	tokenTTL, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %w", err)
	}

	otpTTL, err := strconv.Atoi(getEnv("OTP_TTL_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid OTP_TTL_MINUTES: %w", err)
	}

	syncInterval, err := strconv.Atoi(getEnv("SYNC_INTERVAL_MINUTES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL_MINUTES: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		ServerPort:          port,
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "campusbus"),
		RedisURL:            os.Getenv("REDIS_URL"),
		DataDir:             getEnv("DATA_DIR", "data"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TokenTTLHours:       tokenTTL,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		OTPTTLMinutes:       otpTTL,
		SyncIntervalMinutes: syncInterval,
		RateLimitPerMinute:  rateLimit,
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getEnv("SMTP_PORT", "587"),
		SMTPUsername:        os.Getenv("SMTP_USERNAME"),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:            os.Getenv("SMTP_FROM"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
