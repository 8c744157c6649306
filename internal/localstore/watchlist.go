package localstore

import (
	"strings"

	"github.com/bulknepal/bulknepal/internal/market"
)

// maxWatchlist caps the stored watchlist at the 50 most recent entries.
const maxWatchlist = 50

// WatchlistEntry is one starred security.
type WatchlistEntry struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	SecurityName string `json:"securityName,omitempty"`
	Sector       string `json:"sector,omitempty"`
}

// Watchlist returns the stored entries, newest first. On a read failure the
// returned slice is empty and the error describes what went wrong.
func (s *Store) Watchlist() ([]WatchlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchlistLocked()
}

func (s *Store) watchlistLocked() ([]WatchlistEntry, error) {
	entries := []WatchlistEntry{}
	err := s.read(watchlistFile, &entries)
	return entries, err
}

// ToggleWatch adds the entry if its symbol is absent and removes it if
// present. Toggling twice restores the prior stored state. Returns whether
// the symbol is now watched.
func (s *Store) ToggleWatch(entry WatchlistEntry) (bool, error) {
	sym := strings.ToUpper(strings.TrimSpace(entry.Symbol))
	if sym == "" {
		sym = market.DeriveSymbol(entry.Name)
	}
	if sym == "" {
		return false, nil
	}
	entry.Symbol = sym

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, readErr := s.watchlistLocked()

	exists := false
	kept := make([]WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		if strings.ToUpper(e.Symbol) == sym {
			exists = true
			continue
		}
		kept = append(kept, e)
	}

	var next []WatchlistEntry
	if exists {
		next = kept
	} else {
		next = append([]WatchlistEntry{entry}, kept...)
		if len(next) > maxWatchlist {
			next = next[:maxWatchlist]
		}
	}

	if err := s.write(watchlistFile, next); err != nil {
		return exists, err
	}
	return !exists, readErr
}

// Watched reports whether a symbol is currently on the watchlist.
func (s *Store) Watched(symbol string) bool {
	entries, _ := s.Watchlist()
	sym := strings.ToUpper(symbol)
	for _, e := range entries {
		if strings.ToUpper(e.Symbol) == sym {
			return true
		}
	}
	return false
}
