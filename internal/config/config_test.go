package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "supplement_key", cfg.Dataset.Columns.KeyCol)
	assert.Len(t, cfg.Dataset.Columns.FlagCols, 5)
	assert.Equal(t, "gpt-4o-mini", cfg.Coach.Model)
	assert.Equal(t, 60, cfg.Coach.MinTextLength)
	assert.Equal(t, 8*time.Second, cfg.Coach.Timeout)
	assert.Equal(t, "0.0.0.0:8090", cfg.Addr())
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9100
dataset:
  path: data/custom.csv
  columns:
    key_col: id
    flag_cols: [focus_flag]
search:
  mechanism_match: false
  default_limit: 25
cache:
  driver: memory
  ttl: 1h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "id", cfg.Dataset.Columns.KeyCol)
	assert.Equal(t, []string{"focus_flag"}, cfg.Dataset.Columns.FlagCols)
	assert.False(t, cfg.Search.MechanismMatch)
	assert.Equal(t, 25, cfg.Search.DefaultLimit)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	// Untouched sections keep their defaults.
	assert.Equal(t, "supplement_name", cfg.Dataset.Columns.NameCol)
	// Relative dataset paths resolve against the config file.
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data/custom.csv"), cfg.Dataset.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9200")
	t.Setenv("DATASET_PATH", "/srv/master.csv")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COACH_MODEL", "gpt-4o")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATASET_WATCH", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, "/srv/master.csv", cfg.Dataset.Path)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "sk-test", cfg.Coach.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Coach.Model)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.True(t, cfg.Dataset.Watch)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [unterminated"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config file")
	})

	t.Run("invalid after merge", func(t *testing.T) {
		_, err := Load(writeConfig(t, "cache:\n  driver: memcached\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validate config")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"empty key column", func(c *Config) { c.Dataset.Columns.KeyCol = " " }, "key_col"},
		{"bad driver", func(c *Config) { c.Cache.Driver = "disk" }, "invalid cache driver"},
		{"watch without debounce", func(c *Config) {
			c.Dataset.Watch = true
			c.Dataset.WatchDebounce = 0
		}, "watch_debounce"},
		{"negative limit", func(c *Config) { c.Search.DefaultLimit = -1 }, "default_limit"},
		{"model not allowed", func(c *Config) { c.Coach.Model = "gpt-3.5-turbo" }, "allowed_models"},
		{"disabled coach ignores model", func(c *Config) {
			c.Coach.Enabled = false
			c.Coach.Model = "anything"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
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

func TestCoachConfig_ModelAllowed(t *testing.T) {
	c := CoachConfig{AllowedModels: []string{"gpt-4o-mini"}}
	assert.True(t, c.ModelAllowed("gpt-4o-mini"))
	assert.False(t, c.ModelAllowed("gpt-4o"))

	assert.True(t, CoachConfig{}.ModelAllowed("anything"))
}

func TestResolveRelativePath(t *testing.T) {
	assert.Equal(t, "/etc/app/data.csv", ResolveRelativePath("/etc/app/config.yaml", "data.csv"))
	assert.Equal(t, "/abs/data.csv", ResolveRelativePath("/etc/app/config.yaml", "/abs/data.csv"))
}
