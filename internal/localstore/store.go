// Package localstore persists the user's watchlist, recent searches and
// ticker category selection as keyed JSON records under a state directory,
// mirroring the browser local-storage records of the original client.
// Reads degrade to usable defaults but report the failure; writes are
// atomic (tmp file + rename) and report failures instead of swallowing them.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

const (
	watchlistFile  = "watchlist.json"
	recentFile     = "recent-searches.json"
	categoriesFile = "ticker-categories.json"
)

type Store struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

// Open prepares the state directory.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// read decodes one record file into v. A missing file is not an error;
// a corrupt file is reported but leaves v untouched so the caller's
// default survives.
func (s *Store) read(name string, v any) error {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// write replaces one record file atomically.
func (s *Store) write(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
