// Package cache persists the session snapshot between runs.
//
// Two backends share one blob format (see Encode): a JSON file written
// atomically, and a single-row SQLite table. Open picks one by name.
package cache

import (
	"fmt"
	"io"
	"strings"

	"github.com/five82/lectern/internal/state"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a state.Cache that may hold resources until closed.
type Store interface {
	state.Cache
	io.Closer
}

type fileCloser struct{ *FileStore }

func (fileCloser) Close() error { return nil }

// Open returns the store for backend at path. An empty backend means file.
func Open(backend, path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("open cache: path is empty")
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return fileCloser{NewFileStore(path)}, nil
	case BackendSQLite:
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("open cache: unknown backend %q", backend)
	}
}
