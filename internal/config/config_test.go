package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 55*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(100*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, time.Hour, cfg.Cache.ResultTTL)
	assert.Contains(t, cfg.Upload.AllowedExtensions, ".csv")
	assert.Contains(t, cfg.Upload.AllowedExtensions, ".xlsx")
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout",
		},
		{
			name:    "request timeout above write timeout",
			mutate:  func(c *Config) { c.Server.RequestTimeout = c.Server.WriteTimeout + time.Second },
			wantErr: "request timeout",
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.Upload.MaxFileSize = 0 },
			wantErr: "max file size",
		},
		{
			name:    "no extensions",
			mutate:  func(c *Config) { c.Upload.AllowedExtensions = nil },
			wantErr: "allowed upload extension",
		},
		{
			name:    "extension without dot",
			mutate:  func(c *Config) { c.Upload.AllowedExtensions = []string{"csv"} },
			wantErr: "must start with a dot",
		},
		{
			name:    "zero cache TTL",
			mutate:  func(c *Config) { c.Cache.ResultTTL = 0 },
			wantErr: "TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateForcesJSONFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLegacyEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://legacy:5432/app")
	t.Setenv("REDIS_URL", "redis://legacy:6379/0")
	t.Setenv("UPLOAD_PATH", "/srv/uploads")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := Default()
	applyLegacyEnv(cfg)

	assert.Equal(t, "postgres://legacy:5432/app", cfg.Database.URL)
	assert.Equal(t, "redis://legacy:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, "/srv/uploads", cfg.Upload.Dir)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestAuthEnabled(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.AuthEnabled())

	cfg.Security.SecretKey = "test-secret"
	assert.True(t, cfg.AuthEnabled())
}

func TestEnsureDirectories(t *testing.T) {
	tempDir := t.TempDir()
	cfg := Default()
	cfg.Upload.Dir = tempDir + "/uploads"
	cfg.Logging.FilePath = tempDir + "/logs/app.log"

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Upload.Dir)
	assert.DirExists(t, tempDir+"/logs")
}
