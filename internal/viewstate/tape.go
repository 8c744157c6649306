package viewstate

import "github.com/bulknepal/bulknepal/internal/market"

// TapeEntry is one cell of the scrolling ticker tape.
type TapeEntry struct {
	Name          string
	Value         float64
	Change        float64
	ChangePercent float64
}

// BuildTape assembles the ticker tape across the visible categories, in the
// user's selection order. Unknown category keys contribute nothing.
func BuildTape(snap *market.Snapshot, visible []string) []TapeEntry {
	if snap == nil {
		return nil
	}
	var out []TapeEntry
	for _, key := range visible {
		for _, item := range snap.List(key) {
			name := item.Name
			if name == "" {
				name = item.Symbol
			}
			out = append(out, TapeEntry{
				Name:          name,
				Value:         item.LTP,
				Change:        item.Change,
				ChangePercent: item.ChangePercent,
			})
		}
	}
	return out
}
