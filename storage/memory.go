package storage

import (
	"fmt"
	"sort"
	"sync"
)

// In memory implementation of Storage. Nothing survives the process.
type MemoryStorage struct {
	mutex  sync.RWMutex
	values map[string][]byte
	closed bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: map[string][]byte{},
	}
}

func (s *MemoryStorage) Get(key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil, false, fmt.Errorf("reading %s: %w", key, ErrUnavailable)
	}

	value, found := s.values[key]
	if !found {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemoryStorage) Set(key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return fmt.Errorf("writing %s: %w", key, ErrUnavailable)
	}

	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return fmt.Errorf("deleting %s: %w", key, ErrUnavailable)
	}

	delete(s.values, key)
	return nil
}

func (s *MemoryStorage) Keys() ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("listing keys: %w", ErrUnavailable)
	}

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStorage) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	return nil
}
