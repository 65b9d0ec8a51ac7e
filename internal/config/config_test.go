package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		Port:                     "8080",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBDriver:                 "postgres",
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		DBSchemaMode:             "hybrid",
		DBConnMaxLifetimeMinutes: 1,
		CacheListTTLSeconds:      30,
		CachePostTTLSeconds:      60,
		HitWindowMinutes:         30,
		RedisURL:                 "redis://localhost:6379",
		TracingSamplerRatio:      1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"missing port", func(c *Config) { c.Port = "" }, "PORT is required"},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET is required"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"unknown schema mode", func(c *Config) { c.DBSchemaMode = "magic" }, "DB_SCHEMA_MODE"},
		{"zero list cache ttl", func(c *Config) { c.CacheListTTLSeconds = 0 }, "CACHE_LIST_TTL_SECONDS"},
		{"negative post cache ttl", func(c *Config) { c.CachePostTTLSeconds = -5 }, "CACHE_POST_TTL_SECONDS"},
		{"zero hit window", func(c *Config) { c.HitWindowMinutes = 0 }, "HIT_WINDOW_MINUTES"},
		{"sampler out of range", func(c *Config) { c.TracingSamplerRatio = 2 }, "TRACING_SAMPLER_RATIO"},
		{"sqlite in production", func(c *Config) { c.Env = "production"; c.DBDriver = "sqlite" }, "postgres in production"},
		{"default secret in production", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, "changed from the default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadConfig_EnvNormalization(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("CACHE_LIST_TTL_SECONDS", "12")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 12*time.Second, c.ListCacheTTL())
	assert.Equal(t, 30*time.Minute, c.HitWindow())
}

func TestLoadConfig_RejectsZeroHitWindow(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("HIT_WINDOW_MINUTES", "0")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HIT_WINDOW_MINUTES")
}
