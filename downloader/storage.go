package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"smilabus.dev/schedule/storage"
)

// Key prefix of cached downloads.
const cacheKeyPrefix = "download:"

// Caches downloaded files in a Storage, so that a feed fetched once
// survives restarts when the storage is durable.
type StorageDownloader struct {
	TimeNow func() time.Time

	mutex   sync.Mutex
	storage storage.Storage
}

type cacheRecord struct {
	Body        []byte `json:"body"`
	RetrievedAt string `json:"retrieved_at"`
}

func NewStorageDownloader(s storage.Storage) *StorageDownloader {
	return &StorageDownloader{
		TimeNow: time.Now,
		storage: s,
	}
}

func (d *StorageDownloader) Get(
	ctx context.Context,
	url string,
	headers map[string]string,
	options GetOptions,
) ([]byte, error) {

	d.mutex.Lock()
	defer d.mutex.Unlock()

	key := cacheKeyPrefix + url

	if options.readCache() {
		body, found := d.lookup(key, options.CacheTTL)
		if found {
			return body, nil
		}
	}

	body, err := HTTPGet(ctx, url, headers, options)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}

	if options.Cache {
		buf, err := json.Marshal(cacheRecord{
			Body:        body,
			RetrievedAt: d.TimeNow().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, fmt.Errorf("marshalling: %w", err)
		}

		// A failing cache shouldn't fail the download.
		err = d.storage.Set(key, buf)
		if err != nil {
			log.Printf("downloader: caching %s: %v", url, err)
		}
	}

	return body, nil
}

// Must hold mutex.
func (d *StorageDownloader) lookup(key string, ttl time.Duration) ([]byte, bool) {
	buf, found, err := d.storage.Get(key)
	if err != nil {
		log.Printf("downloader: reading cache: %v", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	record := cacheRecord{}
	err = json.Unmarshal(buf, &record)
	if err != nil {
		log.Printf("downloader: discarding unreadable cache entry %s: %v", key, err)
		return nil, false
	}

	retrievedAt, err := time.Parse(time.RFC3339, record.RetrievedAt)
	if err != nil {
		log.Printf("downloader: discarding cache entry %s: %v", key, err)
		return nil, false
	}

	if !retrievedAt.Add(ttl).After(d.TimeNow()) {
		return nil, false
	}

	return record.Body, true
}
