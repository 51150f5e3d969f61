package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smilabus.dev/schedule/config"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "smilabus.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "", cfg.Feed)
	assert.Equal(t, config.StorageSQLite, cfg.Storage)
	assert.Equal(t, "Europe/Kyiv", cfg.Timezone)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL())
	assert.Equal(t, "smilabus.favorites", cfg.NATSPrefix)
	assert.False(t, cfg.SimulatedDepartures)
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, `
addr = "127.0.0.1:9000"
feed = "https://example.com/smila.zip"
feed_cache_ttl = "30m"
storage = "postgres"
dsn = "postgres://localhost/smilabus"
timezone = "UTC"
nats_url = "nats://localhost:4222"
simulated_departures = true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "https://example.com/smila.zip", cfg.Feed)
	assert.True(t, cfg.FeedIsURL())
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL())
	assert.Equal(t, config.StoragePostgres, cfg.Storage)
	assert.Equal(t, "postgres://localhost/smilabus", cfg.DSN)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "smilabus.favorites", cfg.NATSPrefix)
	assert.True(t, cfg.SimulatedDepartures)
}

func TestLoadEnvOverridesTOML(t *testing.T) {
	path := writeConfig(t, `
addr = ":9000"
storage = "memory"
`)

	dir := t.TempDir()
	t.Setenv("SMILABUS_ADDR", ":7000")
	t.Setenv("SMILABUS_STORAGE", "filesystem")
	t.Setenv("SMILABUS_DATA_DIR", dir)
	t.Setenv("SMILABUS_FEED", "./feed.zip")
	t.Setenv("SMILABUS_FEED_CACHE_TTL", "1h")
	t.Setenv("SMILABUS_SIMULATED_DEPARTURES", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, config.StorageFilesystem, cfg.Storage)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "./feed.zip", cfg.Feed)
	assert.False(t, cfg.FeedIsURL())
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.True(t, cfg.SimulatedDepartures)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, `addr = `))
	assert.Error(t, err)

	_, err = config.Load(writeConfig(t, `feed_cache_ttl = "soon"`))
	assert.Error(t, err)

	t.Setenv("SMILABUS_FEED_CACHE_TTL", "whenever")
	_, err = config.Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(*config.Config)
		ok     bool
	}{
		{"defaults", func(c *config.Config) {}, true},
		{"memory", func(c *config.Config) { c.Storage = config.StorageMemory }, true},
		{"unknown_storage", func(c *config.Config) { c.Storage = "redis" }, false},
		{"postgres_without_dsn", func(c *config.Config) { c.Storage = config.StoragePostgres }, false},
		{"filesystem_without_dir", func(c *config.Config) { c.Storage = config.StorageFilesystem }, false},
		{"filesystem", func(c *config.Config) {
			c.Storage = config.StorageFilesystem
			c.DataDir = "/var/lib/smilabus"
		}, true},
		{"empty_addr", func(c *config.Config) { c.Addr = "" }, false},
		{"bad_timezone", func(c *config.Config) { c.Timezone = "Europe/Smila" }, false},
		{"negative_ttl", func(c *config.Config) { c.FeedCacheTTL.Duration = -time.Second }, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
