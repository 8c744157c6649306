package viewstate

import (
	"sort"
	"strings"

	"github.com/bulknepal/bulknepal/internal/market"
)

// Sort keys for the listed-companies table.
const (
	SortLTP           = "ltp"
	SortChange        = "change"
	SortChangePercent = "changePercent"
	SortVolume        = "volume"
	SortTurnover      = "turnover"
)

const companiesPageSize = 10

// sectorOther buckets rows whose upstream sector is blank.
const sectorOther = "Other"

// NewCompanyTable returns the default listed-companies view state: no sort,
// "All" sectors, page 1 of 10 rows.
func NewCompanyTable() Table {
	return Table{Dir: Desc, Filter: "All", Page: 1, PageSize: companiesPageSize}
}

// Sectors derives the sector tab list from the company rows: unique trimmed
// sectors (blank mapped to "Other"), sorted, with "All" first.
func Sectors(items []market.TickerItem) []string {
	seen := map[string]bool{}
	for _, item := range items {
		sector := strings.TrimSpace(item.Sector)
		if sector == "" {
			sector = sectorOther
		}
		seen[sector] = true
	}

	values := make([]string, 0, len(seen))
	for s := range seen {
		values = append(values, s)
	}
	sort.Strings(values)
	return append([]string{"All"}, values...)
}

// FilterBySector keeps rows matching the active sector tab; "All" keeps
// everything. Blank sectors match the "Other" tab.
func FilterBySector(items []market.TickerItem, sector string) []market.TickerItem {
	if sector == "All" || sector == "" {
		return items
	}
	out := make([]market.TickerItem, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(item.Sector)
		if s == "" {
			s = sectorOther
		}
		if s == sector {
			out = append(out, item)
		}
	}
	return out
}

func companySortValue(item market.TickerItem, key string) float64 {
	switch key {
	case SortLTP:
		return item.LTP
	case SortChange:
		return item.Change
	case SortChangePercent:
		return item.ChangePercent
	case SortVolume:
		return item.Quantity
	case SortTurnover:
		return item.Turnover
	}
	return 0
}

// SortCompanies orders rows by the given key. The sort is stable so equal
// keys preserve their relative order from the previous pass; an empty key
// returns the input order untouched.
func SortCompanies(items []market.TickerItem, key string, dir Direction) []market.TickerItem {
	if key == "" {
		return items
	}
	rows := make([]market.TickerItem, len(items))
	copy(rows, items)

	sort.SliceStable(rows, func(i, j int) bool {
		a := companySortValue(rows[i], key)
		b := companySortValue(rows[j], key)
		if dir == Asc {
			return a < b
		}
		return a > b
	})
	return rows
}

// CompanyRows applies the full pipeline for the listed-companies table:
// sector filter, stable sort, page clamp, page window.
func CompanyRows(t *Table, items []market.TickerItem) []market.TickerItem {
	filtered := FilterBySector(items, t.Filter)
	sorted := SortCompanies(filtered, t.SortKey, t.Dir)
	return Window(t, sorted)
}
