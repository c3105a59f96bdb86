package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "DATABASE_URL", "TOKEN_TTL", "TIMEZONE", "ADMIN_BASE_NAME", "CORS_ORIGINS", "OTEL_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.True(t, cfg.LiteMode())
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "America/Sao_Paulo", cfg.Timezone)
	assert.Equal(t, "ADMINISTRATIVO", cfg.AdminBaseName)
	assert.Empty(t, cfg.CORSOrigins)
	assert.False(t, cfg.OTelEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://medmais:5432/db")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.LiteMode())
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 20.0, cfg.RateLimitRPS)
}

func TestLoadCatalog(t *testing.T) {
	cat, err := config.LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, cat.MonthlyRequiredKinds(), 9)

	_, err = config.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "releases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- version: 1.2.0
  date: "2025-03-01"
  title: Aderência
  items: [Painel de aderência mensal]
`), 0o600))

	notes, err := config.LoadReleases(path)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "1.2.0", notes[0].Version)

	_, err = config.ParseReleases([]byte("- title: sem versão\n"))
	require.Error(t, err)
}
