package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	Environment    string
	LogLevel       string
	DatabasePath   string
	BaseURL        string
	AllowedOrigins []string

	JWTSecret       string
	TokenTTL        time.Duration
	MaxActiveTokens int
	PruneSchedule   string // cron expression for expired-token pruning

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	AvatarDir          string
	AvatarSize         int
	AvatarMaxDimension int // largest accepted source width or height
	MaxUploadBytes     int64
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether enough SMTP settings are present to send mail.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:    strings.ToLower(getEnv("APP_ENV", "development")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabasePath:   getEnv("DATABASE_PATH", "./contacts.db"),
		BaseURL:        strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		PruneSchedule:  getEnv("TOKEN_PRUNE_SCHEDULE", "*/15 * * * *"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		MailFrom:       os.Getenv("MAIL_FROM"),
		AvatarDir:      getEnv("AVATAR_DIR", "./public/avatars"),
	}

	var err error
	if cfg.ServerPort, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.MaxActiveTokens, err = getInt("MAX_ACTIVE_TOKENS", 10); err != nil {
		return nil, err
	}
	if cfg.AvatarSize, err = getInt("AVATAR_SIZE", 250); err != nil {
		return nil, err
	}
	if cfg.AvatarMaxDimension, err = getInt("AVATAR_MAX_DIMENSION", 4096); err != nil {
		return nil, err
	}
	maxUpload, err := getInt("MAX_UPLOAD_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.MaxActiveTokens < 1 {
		return errors.New("MAX_ACTIVE_TOKENS must be at least 1")
	}
	if c.AvatarSize < 1 {
		return errors.New("AVATAR_SIZE must be at least 1")
	}
	if c.AvatarMaxDimension < c.AvatarSize {
		return errors.New("AVATAR_MAX_DIMENSION must not be below AVATAR_SIZE")
	}
	if _, err := cron.ParseStandard(c.PruneSchedule); err != nil {
		return fmt.Errorf("invalid TOKEN_PRUNE_SCHEDULE: %w", err)
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
