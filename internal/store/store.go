// Package store provides the durable key-value slot kcal persists its daily log into.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotKey is the single well-known key the daily log is written under.
const SnapshotKey = "daily_log"

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("store: key not found")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("store: corrupt value")
	// ErrLocked is returned when another process holds the database open.
	ErrLocked = errors.New("store: database is locked by another process")
)

// KV is an opaque durable key-value store.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Close() error
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if dir := os.Getenv("KCAL_DATA_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "kcal")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "kcal")
}

// PathFor returns the database file used by backend inside dir.
func PathFor(backend, dir string) string {
	switch backend {
	case BackendBolt:
		return filepath.Join(dir, "kcal.bolt")
	default:
		return filepath.Join(dir, "kcal.db")
	}
}

// Open opens the named backend rooted in dir.
func Open(backend, dir string) (KV, error) {
	switch backend {
	case "", BackendSQLite:
		return OpenSQLite(PathFor(BackendSQLite, dir))
	case BackendBolt:
		return OpenBolt(PathFor(BackendBolt, dir))
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want sqlite, bolt or memory)", backend)
	}
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	return nil
}
