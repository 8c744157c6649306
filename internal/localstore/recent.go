package localstore

import (
	"strings"

	"github.com/bulknepal/bulknepal/internal/market"
)

// maxRecentSearches caps the recent-search list at the 8 most recent.
const maxRecentSearches = 8

// RecentSearch is one remembered search result with the quote seen at the
// time of the search.
type RecentSearch struct {
	Name          string  `json:"name"`
	SecurityName  string  `json:"securityName,omitempty"`
	LTP           float64 `json:"ltp,omitempty"`
	Change        float64 `json:"change,omitempty"`
	ChangePercent float64 `json:"changePercent,omitempty"`
	Sector        string  `json:"sector,omitempty"`
}

// RecentSearches returns the stored list, most recent first.
func (s *Store) RecentSearches() ([]RecentSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := []RecentSearch{}
	err := s.read(recentFile, &items)
	return items, err
}

// AddRecentSearch prepends the item, dropping any earlier entry with the
// same derived symbol. Entries whose name yields no symbol are ignored.
func (s *Store) AddRecentSearch(item RecentSearch) error {
	sym := market.DeriveSymbol(item.Name)
	if sym == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := []RecentSearch{}
	readErr := s.read(recentFile, &items)

	next := make([]RecentSearch, 0, len(items)+1)
	next = append(next, item)
	for _, it := range items {
		if market.DeriveSymbol(it.Name) == sym {
			continue
		}
		next = append(next, it)
	}
	if len(next) > maxRecentSearches {
		next = next[:maxRecentSearches]
	}

	if err := s.write(recentFile, next); err != nil {
		return err
	}
	return readErr
}

// ClearRecentSearches removes the stored list.
func (s *Store) ClearRecentSearches() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(recentFile, []RecentSearch{})
}

// MatchRecent filters stored searches by a case-insensitive substring of
// name, security name or sector. An empty query matches everything.
func MatchRecent(items []RecentSearch, query string) []RecentSearch {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]RecentSearch, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.SecurityName), q) ||
			strings.Contains(strings.ToLower(it.Sector), q) {
			out = append(out, it)
		}
	}
	return out
}
