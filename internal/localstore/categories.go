package localstore

// CategoryKeys lists the ticker-tape categories in display order; each key
// names one list of the market snapshot.
var CategoryKeys = []string{
	"index", "subIndex", "listedCompany", "topGainer",
	"topLoser", "topTraded", "topTransaction", "topTurnover",
}

// CategoryLabels maps category keys to display labels.
var CategoryLabels = map[string]string{
	"index":          "Index",
	"subIndex":       "Sub Index",
	"listedCompany":  "Listed Company",
	"topGainer":      "Top Gainer",
	"topLoser":       "Top Loser",
	"topTraded":      "Top Trade",
	"topTransaction": "Top Transaction",
	"topTurnover":    "Top Turnover",
}

func defaultCategories() []string {
	return []string{"index", "subIndex"}
}

func validCategory(key string) bool {
	for _, k := range CategoryKeys {
		if k == key {
			return true
		}
	}
	return false
}

// VisibleCategories returns the selected ticker categories. Missing,
// corrupt or empty stored state degrades to the default selection.
func (s *Store) VisibleCategories() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleCategoriesLocked()
}

func (s *Store) visibleCategoriesLocked() ([]string, error) {
	var keys []string
	err := s.read(categoriesFile, &keys)
	if len(keys) == 0 {
		return defaultCategories(), err
	}
	return keys, err
}

// ToggleCategory adds or removes a category from the visible set. At least
// one category must stay selected: removing the last one is a no-op.
// Unknown keys are ignored.
func (s *Store) ToggleCategory(key string) ([]string, error) {
	if !validCategory(key) {
		return s.VisibleCategories()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, readErr := s.visibleCategoriesLocked()

	selected := false
	for _, k := range keys {
		if k == key {
			selected = true
			break
		}
	}

	var next []string
	if selected {
		if len(keys) <= 1 {
			return keys, readErr
		}
		next = make([]string, 0, len(keys)-1)
		for _, k := range keys {
			if k != key {
				next = append(next, k)
			}
		}
	} else {
		next = append(append([]string{}, keys...), key)
	}

	if err := s.write(categoriesFile, next); err != nil {
		return keys, err
	}
	return next, readErr
}
