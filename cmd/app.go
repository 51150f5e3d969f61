package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"smilabus.dev/schedule"
	"smilabus.dev/schedule/config"
	"smilabus.dev/schedule/downloader"
	"smilabus.dev/schedule/metrics"
	"smilabus.dev/schedule/notify"
	"smilabus.dev/schedule/storage"
)

// Everything a command needs, wired from configuration.
type app struct {
	cfg      *config.Config
	manager  *schedule.Manager
	metrics  *metrics.Collector
	clock    *schedule.Clock
	notifier *notify.NATS

	// Storage could not be opened and favorites live in memory.
	storageFailed bool
}

// Loads the config file and environment, then applies whichever
// persistent flags were given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("feed") {
		cfg.Feed = feedSource
	}
	if flags.Changed("storage") {
		cfg.Storage = storageName
	}
	if flags.Changed("dsn") {
		cfg.DSN = dsn
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaders(feedHeaders)
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	clock, err := schedule.NewClock(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()

	// Without storage the schedule still works, favorites just don't
	// outlive the process.
	s, err := storage.Open(cfg.Storage, cfg.DSN, cfg.DataDir)
	storageFailed := err != nil
	if storageFailed {
		log.Printf("opening %s storage: %v", cfg.Storage, err)
		collector.StorageError("open")
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: favorites are not persisted, %s storage is unavailable: %v\n", cfg.Storage, err)
	}

	manager := schedule.NewManager(s)
	manager.Metrics = collector
	manager.FeedHeaders = headers
	if cfg.CacheTTL() > 0 {
		manager.FeedRefreshInterval = cfg.CacheTTL()
	}
	if cfg.FeedIsURL() && persistentStorage(cfg) && !storageFailed {
		manager.Downloader = downloader.NewStorageDownloader(s)
	}

	favorites := manager.Favorites()
	favorites.Metrics = collector
	collector.FavoritesCount(len(favorites.List()))

	a := &app{
		cfg:           cfg,
		manager:       manager,
		metrics:       collector,
		clock:         clock,
		storageFailed: storageFailed,
	}

	if cfg.NATSURL != "" {
		n, err := notify.Connect(cfg.NATSURL, cfg.NATSPrefix, collector)
		if err != nil {
			// Favorites work without notifications.
			log.Printf("notifications disabled: %v", err)
		} else {
			a.notifier = n
			favorites.Notifier = n
		}
	}

	_, err = manager.Load(ctx, cfg.Feed)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading timetable: %w", err)
	}

	return a, nil
}

// Where favorites come from when listing them. Nil means the
// timetable.
func (a *app) provider() schedule.DepartureProvider {
	if a.cfg.SimulatedDepartures {
		return schedule.NewSimulatedProvider(a.clock, time.Now().UnixNano())
	}
	return nil
}

func (a *app) timetable() (*schedule.Timetable, error) {
	return a.manager.Timetable()
}

func (a *app) Close() {
	if a.notifier != nil {
		a.notifier.Close()
	}
	err := a.manager.Close()
	if err != nil {
		log.Printf("closing storage: %v", err)
	}
}

func persistentStorage(cfg *config.Config) bool {
	switch cfg.Storage {
	case config.StoragePostgres:
		return true
	case config.StorageSQLite, config.StorageFilesystem:
		return cfg.DataDir != ""
	}
	return false
}
