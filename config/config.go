package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"smilabus.dev/schedule/storage"
)

const (
	StorageMemory     = storage.BackendMemory
	StorageSQLite     = storage.BackendSQLite
	StoragePostgres   = storage.BackendPostgres
	StorageFilesystem = storage.BackendFilesystem
)

type Config struct {
	// Listen address of the HTTP server.
	Addr string `toml:"addr"`

	// Where the timetable comes from: empty for the built in Smila
	// feed, a path to a zip or directory of CSV files, or an http(s)
	// URL of a zip.
	Feed string `toml:"feed"`

	// How long a downloaded feed is reused before fetching it again.
	FeedCacheTTL Duration `toml:"feed_cache_ttl"`

	// Favorites storage backend, one of memory, sqlite, postgres or
	// filesystem.
	Storage string `toml:"storage"`
	DSN     string `toml:"dsn"`
	DataDir string `toml:"data_dir"`

	Timezone string `toml:"timezone"`

	// Favorite change events are published here when set.
	NATSURL    string `toml:"nats_url"`
	NATSPrefix string `toml:"nats_prefix"`

	// Show made up upcoming departures for favorites instead of
	// timetable ones.
	SimulatedDepartures bool `toml:"simulated_departures"`
}

// time.Duration that decodes from TOML strings like "12h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func Default() *Config {
	return &Config{
		Addr:         ":8080",
		FeedCacheTTL: Duration{12 * time.Hour},
		Storage:      StorageSQLite,
		DataDir:      "",
		Timezone:     "Europe/Kyiv",
		NATSPrefix:   "smilabus.favorites",
	}
}

// Loads configuration: defaults, then the TOML file at path (if
// path is non-empty), then SMILABUS_* environment variables. A .env
// file in the working directory is read into the environment first.
func Load(path string) (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	err := cfg.applyEnv()
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	for name, field := range map[string]*string{
		"SMILABUS_ADDR":        &cfg.Addr,
		"SMILABUS_FEED":        &cfg.Feed,
		"SMILABUS_STORAGE":     &cfg.Storage,
		"SMILABUS_DSN":         &cfg.DSN,
		"SMILABUS_DATA_DIR":    &cfg.DataDir,
		"SMILABUS_TZ":          &cfg.Timezone,
		"SMILABUS_NATS_URL":    &cfg.NATSURL,
		"SMILABUS_NATS_PREFIX": &cfg.NATSPrefix,
	} {
		if v, ok := os.LookupEnv(name); ok {
			*field = strings.TrimSpace(v)
		}
	}

	if v := os.Getenv("SMILABUS_FEED_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SMILABUS_FEED_CACHE_TTL: %w", err)
		}
		cfg.FeedCacheTTL = Duration{d}
	}

	if v := os.Getenv("SMILABUS_SIMULATED_DEPARTURES"); v != "" {
		cfg.SimulatedDepartures = v == "1" || strings.EqualFold(v, "true")
	}

	return nil
}

func (cfg *Config) Validate() error {
	if cfg.Addr == "" {
		return fmt.Errorf("addr must be set")
	}

	switch cfg.Storage {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if cfg.DSN == "" {
			return fmt.Errorf("postgres storage requires dsn")
		}
	case StorageFilesystem:
		if cfg.DataDir == "" {
			return fmt.Errorf("filesystem storage requires data_dir")
		}
	default:
		return fmt.Errorf("unknown storage %q (want memory, sqlite, postgres or filesystem)", cfg.Storage)
	}

	if cfg.FeedCacheTTL.Duration < 0 {
		return fmt.Errorf("feed_cache_ttl must not be negative")
	}

	_, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	return nil
}

// Whether Feed names something to download rather than a local path.
func (cfg *Config) FeedIsURL() bool {
	return strings.HasPrefix(cfg.Feed, "http://") || strings.HasPrefix(cfg.Feed, "https://")
}

func (cfg *Config) CacheTTL() time.Duration {
	return cfg.FeedCacheTTL.Duration
}
