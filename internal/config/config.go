package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string
	LogLevel       string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	RedisURL string

	JWTSecret            string
	SessionTTL           time.Duration
	SessionMaxAge        time.Duration
	SessionSweepSchedule string

	PasswordResetTTL      time.Duration
	PasswordResetCooldown time.Duration
	ExposeResetToken      bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryUploadFolder string

	GeminiAPIKey string
	GeminiModel  string
	AICooldown   time.Duration

	SeedAdminPassword string
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASS"),
		DBName:      getEnv("DB_NAME", "akademika"),
		DBPort:      getEnv("DB_PORT", "5432"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret:            os.Getenv("JWT_SECRET"),
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@akademika.local"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		CloudinaryURL:          cloudinaryURL(),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "akademika"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
	}

	var err error
	if cfg.SessionTTL, err = parseDuration(getEnv("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.SessionMaxAge, err = parseDuration(getEnv("SESSION_MAX_AGE", "168h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE: %w", err)
	}
	if cfg.PasswordResetTTL, err = parseDuration(getEnv("PASSWORD_RESET_TTL", "1h")); err != nil {
		return nil, fmt.Errorf("invalid PASSWORD_RESET_TTL: %w", err)
	}
	if cfg.PasswordResetCooldown, err = parseDuration(getEnv("PASSWORD_RESET_COOLDOWN", "1m")); err != nil {
		return nil, fmt.Errorf("invalid PASSWORD_RESET_COOLDOWN: %w", err)
	}
	if cfg.AICooldown, err = parseDuration(getEnv("AI_COOLDOWN", "30s")); err != nil {
		return nil, fmt.Errorf("invalid AI_COOLDOWN: %w", err)
	}

	if cfg.DBConnMaxLifetime, err = parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m")); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	if cfg.DBMaxOpenConns, err = strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.DBMaxIdleConns, err = strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "10")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	if cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	// The reset token is echoed back only as a development convenience.
	if cfg.ExposeResetToken, err = strconv.ParseBool(getEnv("EXPOSE_RESET_TOKEN", strconv.FormatBool(cfg.IsDevelopment()))); err != nil {
		return nil, fmt.Errorf("invalid EXPOSE_RESET_TOKEN: %w", err)
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
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

// cloudinaryURL prefers CLOUDINARY_URL and otherwise assembles one from the split keys.
func cloudinaryURL() string {
	if u := os.Getenv("CLOUDINARY_URL"); u != "" {
		return u
	}
	name, key, secret := os.Getenv("CLOUDINARY_CLOUD_NAME"), os.Getenv("CLOUDINARY_API_KEY"), os.Getenv("CLOUDINARY_API_SECRET")
	if name == "" || key == "" || secret == "" {
		return ""
	}
	return fmt.Sprintf("cloudinary://%s:%s@%s", key, secret, name)
}
