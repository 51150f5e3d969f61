package downloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluele/gcache"
)

const DefaultMemoryCacheSize = 64

// Caches downloaded files in memory, evicting the least recently used
// URL once full.
type MemoryDownloader struct {
	cache gcache.Cache
}

func NewMemoryDownloader() *MemoryDownloader {
	return NewMemoryDownloaderWithClock(DefaultMemoryCacheSize, gcache.NewRealClock())
}

// Mostly for tests, which pass a gcache.FakeClock.
func NewMemoryDownloaderWithClock(size int, clock gcache.Clock) *MemoryDownloader {
	return &MemoryDownloader{
		cache: gcache.New(size).LRU().Clock(clock).Build(),
	}
}

func (d *MemoryDownloader) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {
	if options.readCache() {
		cached, err := d.cache.Get(url)
		if err == nil {
			return cached.([]byte), nil
		}
		if !errors.Is(err, gcache.KeyNotFoundError) {
			return nil, fmt.Errorf("reading cache: %w", err)
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, err
	}

	if options.Cache {
		err = d.cache.SetWithExpire(url, body, options.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("caching: %w", err)
		}
	}

	return body, nil
}
