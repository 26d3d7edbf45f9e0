// Package store provides the key-value persistence of notes, diaries and settings.
//
// Values are stored as JSON blobs. Two backends are available: a directory
// with one file per key, and a SQLite database.
package store

import (
	"fmt"
	"path/filepath"
)

// KV is a JSON key-value store.
type KV interface {
	Get(key string, v any) (bool, error)
	Put(key string, v any) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindDir    = "dir"
	KindSQLite = "sqlite"
)

// Open opens the store of this kind in dataDir.
func Open(kind, dataDir string) (KV, error) {
	switch kind {
	case KindDir, "":
		return NewDir(filepath.Join(dataDir, "store"))
	case KindSQLite:
		return NewSQLite(filepath.Join(dataDir, "tradebook.db"))
	default:
		return nil, fmt.Errorf("unknown store kind %q, want %q or %q", kind, KindDir, KindSQLite)
	}
}
