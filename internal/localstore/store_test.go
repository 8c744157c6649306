package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	store, err := Open(t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestWatchlistToggleIsInvolution(t *testing.T) {
	s := newTestStore(t)

	// Seed two entries.
	if _, err := s.ToggleWatch(WatchlistEntry{Symbol: "NABIL", Name: "Nabil Bank"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleWatch(WatchlistEntry{Symbol: "NIFRA", Name: "NIFRA"}); err != nil {
		t.Fatal(err)
	}

	before, err := s.Watchlist()
	if err != nil {
		t.Fatal(err)
	}

	added, err := s.ToggleWatch(WatchlistEntry{Symbol: "HBL", Name: "Himalayan Bank"})
	if err != nil || !added {
		t.Fatalf("first toggle should add: added=%v err=%v", added, err)
	}
	added, err = s.ToggleWatch(WatchlistEntry{Symbol: "HBL", Name: "Himalayan Bank"})
	if err != nil || added {
		t.Fatalf("second toggle should remove: added=%v err=%v", added, err)
	}

	after, err := s.Watchlist()
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("double toggle changed list length: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Symbol != after[i].Symbol {
			t.Errorf("entry %d order changed: %s -> %s", i, before[i].Symbol, after[i].Symbol)
		}
	}
}

func TestWatchlistCap(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < maxWatchlist+5; i++ {
		entry := WatchlistEntry{Symbol: string(rune('A'+i%26)) + string(rune('A'+i/26)), Name: "Company"}
		if _, err := s.ToggleWatch(entry); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Watchlist()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != maxWatchlist {
		t.Errorf("expected cap %d, got %d", maxWatchlist, len(entries))
	}
}

func TestWatchlistDerivesSymbolFromName(t *testing.T) {
	s := newTestStore(t)

	added, err := s.ToggleWatch(WatchlistEntry{Name: "nabil Bank Limited"})
	if err != nil || !added {
		t.Fatalf("toggle: added=%v err=%v", added, err)
	}
	if !s.Watched("NABIL") {
		t.Error("symbol should be derived from the first name token, upper-cased")
	}
}

func TestRecentSearchDedupeAndCap(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < maxRecentSearches+3; i++ {
		item := RecentSearch{Name: string(rune('A'+i)) + " Company", LTP: float64(i)}
		if err := s.AddRecentSearch(item); err != nil {
			t.Fatal(err)
		}
	}

	items, err := s.RecentSearches()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != maxRecentSearches {
		t.Errorf("expected cap %d, got %d", maxRecentSearches, len(items))
	}

	// Re-adding an existing symbol moves it to the front without growing.
	if err := s.AddRecentSearch(RecentSearch{Name: items[3].Name, LTP: 99}); err != nil {
		t.Fatal(err)
	}
	items2, err := s.RecentSearches()
	if err != nil {
		t.Fatal(err)
	}
	if len(items2) != maxRecentSearches {
		t.Errorf("dedupe grew the list to %d", len(items2))
	}
	if items2[0].LTP != 99 {
		t.Errorf("re-added search should be first with fresh quote, got %+v", items2[0])
	}
}

func TestCorruptFileDegradesToDefault(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	dir := t.TempDir()
	s, err := Open(dir, logger)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, watchlistFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Watchlist()
	if err == nil {
		t.Error("corrupt file must be reported")
	}
	if len(entries) != 0 {
		t.Errorf("corrupt file must degrade to empty list, got %+v", entries)
	}
}

func TestCategoriesDefaultAndToggle(t *testing.T) {
	s := newTestStore(t)

	keys, err := s.VisibleCategories()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "index" || keys[1] != "subIndex" {
		t.Errorf("unexpected default selection: %v", keys)
	}

	keys, err = s.ToggleCategory("topGainer")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 {
		t.Errorf("expected 3 categories, got %v", keys)
	}

	// Unknown keys are ignored.
	keys, err = s.ToggleCategory("bogus")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 3 {
		t.Errorf("unknown key changed selection: %v", keys)
	}
}

func TestRemovingLastCategoryIsNoop(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.ToggleCategory("index"); err != nil { // leaves only subIndex
		t.Fatal(err)
	}
	keys, err := s.ToggleCategory("subIndex")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "subIndex" {
		t.Errorf("removing the last category must be a no-op, got %v", keys)
	}
}

func TestMatchRecent(t *testing.T) {
	items := []RecentSearch{
		{Name: "NABIL Bank", Sector: "Commercial Banks"},
		{Name: "NIFRA", SecurityName: "Nepal Infrastructure Bank"},
	}

	if got := MatchRecent(items, ""); len(got) != 2 {
		t.Errorf("empty query must match all, got %d", len(got))
	}
	if got := MatchRecent(items, "infra"); len(got) != 1 || got[0].Name != "NIFRA" {
		t.Errorf("substring match failed: %+v", got)
	}
}
