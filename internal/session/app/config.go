package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AccessSecret  string // HS256 secret for access tokens; generated in dev when unset
	RefreshSecret string // HS256 secret for refresh and reset tokens; generated in dev when unset

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime, also bounds reset links (default: 7d)

	DatabaseFile string // Path to SQLite database file (default: ./session.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	SMTPAddr     string // host:port of the mail relay; empty selects the log mailer
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	ResetURL     string // Base link placed in reset mails

	AllowedOrigins []string // Extra origins allowed on the push channel handshake
	SecureCookies  bool     // Secure flag on the access cookie (default: true outside dev)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		AccessSecret:  os.Getenv("SESSION_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("SESSION_REFRESH_SECRET"),

		AccessTTL:  getEnvDurationOrDefault("SESSION_ACCESS_TTL", 15*time.Minute),
		RefreshTTL: getEnvDurationOrDefault("SESSION_REFRESH_TTL", 7*24*time.Hour),

		DatabaseFile: getEnvOrDefault("SESSION_DATABASE_FILE", "session.db"),
		PepperFile:   getEnvOrDefault("SESSION_PEPPER_FILE", "pepper"),

		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@localhost"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		ResetURL:     getEnvOrDefault("RESET_URL", "http://localhost:8080/reset"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if origins := os.Getenv("WS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	cfg.SecureCookies = cfg.Env != "dev"
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		cfg.SecureCookies = v == "true" || v == "1"
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
