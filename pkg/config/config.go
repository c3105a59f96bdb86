// Package config loads server configuration from the environment and the
// optional YAML overrides for the indicator catalog and release notes.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server configuration.
type Config struct {
	Port       string
	HealthPort string
	LogLevel   string
	LogFormat  string

	// DatabaseURL selects Postgres. Empty means SQLite lite mode under DataDir.
	DatabaseURL string
	DataDir     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	TokenTTL   time.Duration
	RefreshTTL time.Duration

	Timezone      string
	AdminBaseName string

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	OTelEnabled  bool
	OTelEndpoint string

	ExportStorageType string
	ExportDir         string
	ExportBucket      string
	ExportRegion      string
	ExportEndpoint    string

	CatalogPath  string
	ReleasesPath string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:       env("PORT", "8080"),
		HealthPort: env("HEALTH_PORT", "8081"),
		LogLevel:   env("LOG_LEVEL", "INFO"),
		LogFormat:  env("LOG_FORMAT", "text"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     env("DATA_DIR", "data"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		TokenTTL:   envDuration("TOKEN_TTL", 8*time.Hour),
		RefreshTTL: envDuration("REFRESH_TTL", 7*24*time.Hour),

		Timezone:      env("TIMEZONE", "America/Sao_Paulo"),
		AdminBaseName: env("ADMIN_BASE_NAME", "ADMINISTRATIVO"),

		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 40),
		CORSOrigins:    envList("CORS_ORIGINS"),

		OTelEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTelEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		ExportStorageType: env("EXPORT_STORAGE_TYPE", "fs"),
		ExportDir:         env("EXPORT_DIR", "data/exports"),
		ExportBucket:      os.Getenv("EXPORT_BUCKET"),
		ExportRegion:      env("EXPORT_REGION", "us-east-1"),
		ExportEndpoint:    os.Getenv("EXPORT_ENDPOINT"),

		CatalogPath:  os.Getenv("CATALOG_PATH"),
		ReleasesPath: os.Getenv("RELEASES_PATH"),
	}
}

// LiteMode reports whether the server runs on embedded SQLite.
func (c *Config) LiteMode() bool {
	return c.DatabaseURL == ""
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
