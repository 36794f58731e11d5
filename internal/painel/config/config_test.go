package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "painel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	d := Default()

	assert.Equal(t, 60*time.Second, d.Timings.PollInterval)
	assert.Equal(t, 12*time.Second, d.Timings.PageInterval)
	assert.Equal(t, 500*time.Millisecond, d.Timings.FadeDelay)
	assert.Equal(t, 15*time.Second, d.Timings.ItemDuration)
	assert.Equal(t, 5*time.Second, d.Timings.MediaGrace)
	assert.Equal(t, 5*time.Second, d.Timings.ErrorDwell)
	assert.Equal(t, 18, d.Layout.HorizontalCapacity)
	assert.Equal(t, 15, d.Layout.VerticalCapacity)
	assert.Equal(t, 22, d.Layout.MarqueeHorizontal)
	assert.Equal(t, 28, d.Layout.MarqueeVertical)
	assert.Equal(t, CacheBolt, d.Cache.Backend)
	assert.NoError(t, d.validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server: https://painel.example.com
state_dir: /var/lib/painel
timings:
  page_interval: 8s
  fade_delay: 250ms
layout:
  marquee_horizontal: 23
cache:
  backend: redis
  redis_addr: cache:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://painel.example.com", cfg.Server)
	assert.Equal(t, "/var/lib/painel", cfg.StateDir)
	assert.Equal(t, 8*time.Second, cfg.Timings.PageInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Timings.FadeDelay)
	// untouched keys keep their defaults
	assert.Equal(t, 60*time.Second, cfg.Timings.PollInterval)
	assert.Equal(t, 23, cfg.Layout.MarqueeHorizontal)
	assert.Equal(t, 28, cfg.Layout.MarqueeVertical)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server: http://file.example.com\n")

	t.Setenv("PAINEL_SERVER", "http://env.example.com")
	t.Setenv("PAINEL_TIMINGS_POLL_INTERVAL", "30s")
	t.Setenv("PAINEL_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example.com", cfg.Server)
	assert.Equal(t, 30*time.Second, cfg.Timings.PollInterval)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"server without scheme", func(c *Config) { c.Server = "localhost:8000" }},
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"fast poll", func(c *Config) { c.Timings.PollInterval = 10 * time.Millisecond }},
		{"fade longer than page", func(c *Config) { c.Timings.FadeDelay = 20 * time.Second }},
		{"zero item duration", func(c *Config) { c.Timings.ItemDuration = 0 }},
		{"negative grace", func(c *Config) { c.Timings.MediaGrace = -time.Second }},
		{"zero error dwell", func(c *Config) { c.Timings.ErrorDwell = 0 }},
		{"zero capacity", func(c *Config) { c.Layout.VerticalCapacity = 0 }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis without address", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.RedisAddr = "" }},
		{"playlog without dsn", func(c *Config) { c.Playlog.Enabled = true }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestYAMLMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Playlog.DSN = "postgres://user:secret@db/painel"
	cfg.Cache.RedisPassword = "hunter2"

	data, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "hunter2")

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	timings := doc["timings"].(map[string]interface{})
	assert.Equal(t, "12s", timings["page_interval"])
	assert.Equal(t, "500ms", timings["fade_delay"])
}
