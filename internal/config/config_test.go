package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("ENV_FILE", t.TempDir()+"/missing.env")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("PORT", "8080")
	t.Setenv("STORE", "memory")
	t.Setenv("S3_BUCKET", "avatars")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxAvatarBytes)
	assert.Equal(t, 10*time.Second, cfg.StorageTimeout)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:    "production",
			Store:          StorePostgres,
			JWTSecret:      "0123456789abcdef0123456789abcdef",
			PasswordCost:   10,
			StorageTimeout: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid"},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.JWTSecret = "" },
			wantErr: "JWT_SECRET environment variable is required",
		},
		{
			name:    "short secret in production",
			mutate:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: "at least 32 bytes",
		},
		{
			name: "short secret in development",
			mutate: func(c *Config) {
				c.Environment = "development"
				c.JWTSecret = "short"
			},
		},
		{
			name:    "cost out of range",
			mutate:  func(c *Config) { c.PasswordCost = 99 },
			wantErr: "PASSWORD_COST",
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Store = "mongo" },
			wantErr: "STORE must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
