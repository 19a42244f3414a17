package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseWith(vars map[string]string) (*Config, error) {
	return Parse(env.Options{Environment: vars})
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := parseWith(map[string]string{
		"DATABASE_URL": "postgres://localhost/polls",
		"JWT_SECRET":   "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "polls", cfg.MongoDB)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.VoteLockTTL)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := parseWith(map[string]string{
		"PORT":            "9090",
		"STORAGE_DRIVER":  " Memory ",
		"ALLOWED_ORIGINS": "https://a.example.com, ,https://b.example.com ",
		"JWT_SECRET":      "secret",
		"STATS_CACHE_TTL": "1m",
		"REQUEST_TIMEOUT": "15s",
	})
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.StatsCacheTTL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{
			name:    "postgres without url",
			vars:    map[string]string{"JWT_SECRET": "s"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "mongo without uri",
			vars:    map[string]string{"STORAGE_DRIVER": "mongo", "JWT_SECRET": "s"},
			wantErr: "MONGO_URI is required",
		},
		{
			name:    "unknown driver",
			vars:    map[string]string{"STORAGE_DRIVER": "sqlite", "JWT_SECRET": "s"},
			wantErr: "unknown STORAGE_DRIVER",
		},
		{
			name:    "missing secret",
			vars:    map[string]string{"STORAGE_DRIVER": "memory"},
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "negative ttl",
			vars:    map[string]string{"STORAGE_DRIVER": "memory", "JWT_SECRET": "s", "VOTE_LOCK_TTL": "-1s"},
			wantErr: "must not be negative",
		},
		{
			name:    "malformed duration",
			vars:    map[string]string{"STORAGE_DRIVER": "memory", "JWT_SECRET": "s", "STATS_CACHE_TTL": "soon"},
			wantErr: "failed to parse environment variables",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseWith(tt.vars)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
