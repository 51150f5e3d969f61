package schedule

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"smilabus.dev/schedule/data"
	"smilabus.dev/schedule/downloader"
	"smilabus.dev/schedule/model"
	"smilabus.dev/schedule/parse"
	"smilabus.dev/schedule/storage"
)

const (
	DefaultFeedRefreshInterval = 12 * time.Hour
	DefaultFeedTimeout         = 60 * time.Second
	DefaultFeedMaxSize         = 50 << 20 // 50 MB
)

var ErrNoTimetable = errors.New("no timetable loaded")

type ManagerMetrics interface {
	FeedLoaded(routes int, stops int)
}

// Manager owns the process wide state: the favorites shared by every
// consumer, and the currently loaded timetable.
type Manager struct {
	FeedTimeout         time.Duration
	FeedMaxSize         int
	FeedRefreshInterval time.Duration
	FeedHeaders         map[string]string
	Downloader          downloader.Downloader
	Metrics             ManagerMetrics

	storage   storage.Storage
	favorites *Favorites

	mutex      sync.RWMutex
	timetable  *Timetable
	source     string
	hash       string
	loadedAt   time.Time
	refreshing bool
}

// Creates a new Manager on top of the given storage, which holds the
// favorites.
//
// By default, downloaded feeds are cached in memory. Point
// Downloader at a downloader.StorageDownloader to have them survive
// restarts.
func NewManager(s storage.Storage) *Manager {
	return &Manager{
		FeedTimeout:         DefaultFeedTimeout,
		FeedMaxSize:         DefaultFeedMaxSize,
		FeedRefreshInterval: DefaultFeedRefreshInterval,

		Downloader: downloader.NewMemoryDownloader(),

		storage:   s,
		favorites: NewFavorites(s),
	}
}

// The single Favorites instance of the process.
func (m *Manager) Favorites() *Favorites {
	return m.favorites
}

// The current timetable, or ErrNoTimetable if nothing has been loaded.
func (m *Manager) Timetable() (*Timetable, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.timetable == nil {
		return nil, ErrNoTimetable
	}
	return m.timetable, nil
}

// Where the current timetable came from, and when it was loaded.
func (m *Manager) Source() (string, time.Time) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.source, m.loadedAt
}

// Loads a timetable and makes it current.
//
// source is empty for the built in feed, an http(s) URL of a zipped
// feed, or a local path to a zip file or directory of CSV files.
func (m *Manager) Load(ctx context.Context, source string) (*Timetable, error) {
	var feed *model.Feed
	var hash string
	var err error

	switch {
	case source == "":
		feed, err = parse.ParseFeed(data.FS)
		if err != nil {
			return nil, fmt.Errorf("parsing built in feed: %w", err)
		}

	case isURL(source):
		body, err := m.download(ctx, source, false)
		if err != nil {
			return nil, err
		}
		hash = fmt.Sprintf("%x", sha256.Sum256(body))
		feed, err = parse.ParseZip(body)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", source, err)
		}

	default:
		feed, hash, err = loadLocal(source)
		if err != nil {
			return nil, err
		}
	}

	timetable, err := NewTimetable(feed)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", describeSource(source), err)
	}

	m.install(timetable, source, hash)

	return timetable, nil
}

// Re-downloads a URL feed, replacing the current timetable if the
// data changed. The download skips the cache but updates it, so a
// restart picks up the refreshed feed. Local and built in feeds are
// left alone. On failure the current timetable stays in place.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mutex.Lock()
	source, hash := m.source, m.hash
	if !isURL(source) || m.refreshing {
		m.mutex.Unlock()
		return nil
	}
	m.refreshing = true
	m.mutex.Unlock()

	defer func() {
		m.mutex.Lock()
		m.refreshing = false
		m.mutex.Unlock()
	}()

	body, err := m.download(ctx, source, true)
	if err != nil {
		return err
	}

	newHash := fmt.Sprintf("%x", sha256.Sum256(body))
	if newHash == hash {
		m.mutex.Lock()
		m.loadedAt = time.Now()
		m.mutex.Unlock()
		return nil
	}

	feed, err := parse.ParseZip(body)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", source, err)
	}

	timetable, err := NewTimetable(feed)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", source, err)
	}

	m.install(timetable, source, newHash)
	log.Printf("manager: refreshed timetable from %s", source)

	return nil
}

// Calls Refresh every FeedRefreshInterval until ctx is done.
func (m *Manager) RefreshLoop(ctx context.Context) {
	if m.FeedRefreshInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.FeedRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := m.Refresh(ctx)
			if err != nil {
				log.Printf("manager: refreshing feed: %v", err)
			}
		}
	}
}

func (m *Manager) Close() error {
	if m.storage == nil {
		return nil
	}
	return m.storage.Close()
}

func (m *Manager) install(timetable *Timetable, source string, hash string) {
	m.mutex.Lock()
	m.timetable = timetable
	m.source = source
	m.hash = hash
	m.loadedAt = time.Now()
	m.mutex.Unlock()

	if m.Metrics != nil {
		m.Metrics.FeedLoaded(len(timetable.Routes()), len(timetable.Stops()))
	}
	log.Printf("manager: loaded %d routes and %d stops from %s", len(timetable.Routes()), len(timetable.Stops()), describeSource(source))
}

// With refresh set the cached copy is skipped, and replaced by what
// was downloaded.
func (m *Manager) download(ctx context.Context, url string, refresh bool) ([]byte, error) {
	body, err := m.Downloader.Get(
		ctx,
		url,
		m.FeedHeaders,
		downloader.GetOptions{
			Cache:    true,
			Refresh:  refresh,
			CacheTTL: m.FeedRefreshInterval,
			Timeout:  m.FeedTimeout,
			MaxSize:  m.FeedMaxSize,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("downloading feed at %s: %w", url, err)
	}
	return body, nil
}

func loadLocal(path string) (*model.Feed, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening feed: %w", err)
	}

	if info.IsDir() {
		feed, err := parse.ParseFeed(os.DirFS(path))
		if err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", path, err)
		}
		return feed, "", nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading feed: %w", err)
	}

	feed, err := parse.ParseZip(buf)
	if err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", path, err)
	}

	return feed, fmt.Sprintf("%x", sha256.Sum256(buf)), nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func describeSource(source string) string {
	if source == "" {
		return "built in feed"
	}
	return source
}
