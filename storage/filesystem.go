package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Storage kept in a single JSON file. The whole file is rewritten on
// every mutation.
type FilesystemStorage struct {
	Path string

	mutex   sync.Mutex
	records map[string]fsRecord
	closed  bool
}

type fsRecord struct {
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}

func NewFilesystemStorage(path string) (*FilesystemStorage, error) {
	fs := &FilesystemStorage{
		Path:    path,
		records: map[string]fsRecord{},
	}

	err := fs.load()
	if err != nil {
		return nil, err
	}

	return fs, nil
}

func (f *FilesystemStorage) Get(key string) ([]byte, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return nil, false, fmt.Errorf("reading %s: %w", key, ErrUnavailable)
	}

	record, found := f.records[key]
	if !found {
		return nil, false, nil
	}

	value, err := base64.StdEncoding.DecodeString(record.Value)
	if err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", key, err)
	}

	return value, true, nil
}

func (f *FilesystemStorage) Set(key string, value []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return fmt.Errorf("writing %s: %w", key, ErrUnavailable)
	}

	prev, existed := f.records[key]
	f.records[key] = fsRecord{
		Value:     base64.StdEncoding.EncodeToString(value),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	err := f.save()
	if err != nil {
		if existed {
			f.records[key] = prev
		} else {
			delete(f.records, key)
		}
		return fmt.Errorf("writing %s: %w: %w", key, ErrUnavailable, err)
	}

	return nil
}

func (f *FilesystemStorage) Delete(key string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return fmt.Errorf("deleting %s: %w", key, ErrUnavailable)
	}

	prev, existed := f.records[key]
	if !existed {
		return nil
	}
	delete(f.records, key)

	err := f.save()
	if err != nil {
		f.records[key] = prev
		return fmt.Errorf("deleting %s: %w: %w", key, ErrUnavailable, err)
	}

	return nil
}

func (f *FilesystemStorage) Keys() ([]string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return nil, fmt.Errorf("listing keys: %w", ErrUnavailable)
	}

	keys := make([]string, 0, len(f.records))
	for k := range f.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FilesystemStorage) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closed = true
	return nil
}

func (f *FilesystemStorage) load() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	_, err := os.Stat(f.Path)
	if os.IsNotExist(err) {
		return nil
	}

	buf, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("reading: %w: %w", ErrUnavailable, err)
	}

	if len(buf) == 0 {
		return nil
	}

	err = json.Unmarshal(buf, &f.records)
	if err != nil {
		return fmt.Errorf("unmarshalling %s: %w: %w", f.Path, ErrUnavailable, err)
	}

	return nil
}

func (f *FilesystemStorage) save() error {
	buf, err := json.Marshal(f.records)
	if err != nil {
		return fmt.Errorf("marshalling: %w", err)
	}

	err = os.WriteFile(f.Path, buf, 0644)
	if err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	return nil
}
