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
	EnvFile     bool // configs/.env was found and loaded
	Port        string
	GinMode     string
	DB          DBConfig
	JWTSecret   string
	JWTRoles    []string // Roles allowed to mutate the matrix and trigger syncs
	SyncToken   string   // bcrypt hash of the service-to-service token
	Upstream    UpstreamConfig
	MaxDepth    int
	RedisURL    string
	CacheTTL    time.Duration
	CORSOrigins []string
}

type DBConfig struct {
	Driver   string // "postgres" or "sqlite"
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	DSN      string // Overrides the individual fields when set
}

type UpstreamConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Load reads configs/.env when present and then the process environment.
func Load() (*Config, error) {
	envLoaded := godotenv.Load("configs/.env") == nil

	cfg := &Config{
		EnvFile: envLoaded,
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),
		DB: DBConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			DSN:      getEnv("DB_DSN", ""),
		},
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTRoles:  splitList(getEnv("JWT_ADMIN_ROLES", "admin,manager")),
		SyncToken: getEnv("SYNC_TOKEN_HASH", ""),
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(getEnv("UPSTREAM_BASE_URL", ""), "/"),
			APIKey:  getEnv("UPSTREAM_API_KEY", ""),
			Timeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		MaxDepth:    getEnvInt("HIERARCHY_MAX_DEPTH", 10),
		RedisURL:    getEnv("REDIS_URL", ""),
		CacheTTL:    time.Duration(getEnvInt("MATRIX_CACHE_TTL_SECONDS", 300)) * time.Second,
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
	}

	if cfg.JWTSecret == "" {
		if cfg.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in release mode")
		}
		cfg.JWTSecret = "default_super_secret_key" // Development fallback only
	}
	if cfg.MaxDepth < 1 {
		return nil, fmt.Errorf("HIERARCHY_MAX_DEPTH must be at least 1, got %d", cfg.MaxDepth)
	}
	return cfg, nil
}

// PostgresDSN builds the connection URL from the individual DB fields unless DSN is set.
func (c DBConfig) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=" + c.SSLMode
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
