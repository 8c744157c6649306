package viewstate

import "github.com/bulknepal/bulknepal/internal/market"

const offeringsPageSize = 5

// NewOfferingTable returns the default IPO view state: general-public tab,
// page 1 of 5 rows.
func NewOfferingTable() Table {
	return Table{Filter: "general", Page: 1, PageSize: offeringsPageSize}
}

// OpenOfferings keeps rows that are open for application and carry enough
// identity to display.
func OpenOfferings(items []market.Offering) []market.Offering {
	out := make([]market.Offering, 0, len(items))
	for _, o := range items {
		if o.Open() {
			out = append(out, o)
		}
	}
	return out
}

// OfferingRows applies the open filter and page window for the IPO table.
// The category tab drives which segment was fetched, not a local filter.
func OfferingRows(t *Table, items []market.Offering) []market.Offering {
	return Window(t, OpenOfferings(items))
}
