package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	BackendMemory     = "memory"
	BackendSQLite     = "sqlite"
	BackendPostgres   = "postgres"
	BackendFilesystem = "filesystem"
)

// Opens a storage backend by name.
//
// sqlite keeps its database in dataDir if set, in memory otherwise.
// filesystem requires dataDir. postgres requires dsn.
func Open(backend string, dsn string, dataDir string) (Storage, error) {
	if dataDir != "" && backend != BackendMemory && backend != BackendPostgres {
		err := os.MkdirAll(dataDir, 0755)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w: %w", dataDir, ErrUnavailable, err)
		}
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStorage(), nil

	case BackendSQLite:
		s, err := NewSQLiteStorage(SQLiteConfig{
			OnDisk:    dataDir != "",
			Directory: dataDir,
		})
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres storage requires a dsn")
		}
		s, err := NewPSQLStorage(dsn, false)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendFilesystem:
		if dataDir == "" {
			return nil, fmt.Errorf("filesystem storage requires a data directory")
		}
		s, err := NewFilesystemStorage(filepath.Join(dataDir, "smilabus.json"))
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", backend)
}
