package viewstate

import (
	"sort"
	"strings"

	"github.com/bulknepal/bulknepal/internal/localstore"
	"github.com/bulknepal/bulknepal/internal/market"
)

// Watchlist sort keys.
const (
	WatchSortName          = "name"
	WatchSortLTP           = "ltp"
	WatchSortChangePercent = "changePercent"
)

// WatchRow is one watchlist line: the stored entry joined with its live
// quote. Entries with no live row show zero values.
type WatchRow struct {
	Symbol        string
	Name          string
	Sector        string
	LTP           float64
	Change        float64
	ChangePercent float64
}

// BuildWatchlist joins stored entries with live company rows by derived
// symbol, preserving the stored (newest-first) order.
func BuildWatchlist(entries []localstore.WatchlistEntry, companies []market.TickerItem) []WatchRow {
	bySymbol := make(map[string]market.TickerItem, len(companies))
	for _, c := range companies {
		sym := c.Symbol
		if sym == "" {
			sym = market.DeriveSymbol(c.Name)
		}
		if sym != "" {
			bySymbol[sym] = c
		}
	}

	rows := make([]WatchRow, 0, len(entries))
	for _, e := range entries {
		sym := strings.ToUpper(e.Symbol)
		row := WatchRow{Symbol: sym, Name: e.SecurityName, Sector: e.Sector}
		if row.Name == "" {
			row.Name = e.Name
		}
		if live, ok := bySymbol[sym]; ok {
			row.LTP = live.LTP
			row.Change = live.Change
			row.ChangePercent = live.ChangePercent
		}
		rows = append(rows, row)
	}
	return rows
}

// SortWatchlist orders watch rows; default is name ascending. Stable, so
// ties keep their stored order.
func SortWatchlist(rows []WatchRow, key string, dir Direction) []WatchRow {
	out := make([]WatchRow, len(rows))
	copy(out, rows)

	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch key {
		case WatchSortLTP:
			less = out[i].LTP < out[j].LTP
		case WatchSortChangePercent:
			less = out[i].ChangePercent < out[j].ChangePercent
		default:
			less = out[i].Symbol < out[j].Symbol
		}
		if dir == Desc {
			return !less && !watchEqual(out[i], out[j], key)
		}
		return less
	})
	return out
}

func watchEqual(a, b WatchRow, key string) bool {
	switch key {
	case WatchSortLTP:
		return a.LTP == b.LTP
	case WatchSortChangePercent:
		return a.ChangePercent == b.ChangePercent
	default:
		return a.Symbol == b.Symbol
	}
}
