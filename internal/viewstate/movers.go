package viewstate

import "github.com/bulknepal/bulknepal/internal/market"

// Market-movers tabs.
const (
	MoversGainers = "gainers"
	MoversLosers  = "losers"
	MoversVolume  = "volume"
)

// MoversTabs fixes the tab order for display.
var MoversTabs = []string{MoversGainers, MoversLosers, MoversVolume}

// MoverRows selects the ranking list behind the active movers tab.
func MoverRows(snap *market.Snapshot, tab string) []market.TickerItem {
	if snap == nil {
		return nil
	}
	switch tab {
	case MoversLosers:
		return snap.TopLosers
	case MoversVolume:
		return snap.TopTraded
	default:
		return snap.TopGainers
	}
}
