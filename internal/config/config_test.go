package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"admin", "manager"}, cfg.JWTRoles)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadRequiresSecretInRelease(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GIN_MODE", "release")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HIERARCHY_MAX_DEPTH", "4")
	t.Setenv("UPSTREAM_BASE_URL", "https://hub.example.com/api/")
	t.Setenv("CORS_ORIGINS", " https://a.example.com , ,https://b.example.com")
	t.Setenv("MATRIX_CACHE_TTL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxDepth)
	assert.Equal(t, "https://hub.example.com/api", cfg.Upstream.BaseURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
}

func TestLoadRejectsZeroDepth(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HIERARCHY_MAX_DEPTH", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	c := DBConfig{User: "u", Password: "p", Host: "db", Port: "5432", Name: "catalog", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/catalog?sslmode=disable", c.PostgresDSN())

	c.DSN = "postgres://override"
	assert.Equal(t, "postgres://override", c.PostgresDSN())
}
