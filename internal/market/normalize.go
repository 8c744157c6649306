package market

import (
	"math"
	"strconv"
	"strings"
)

// Upstream feeds disagree on field names between the index, company and
// top-N lists. Each canonical field resolves through an ordered candidate
// chain; the first key present wins. The chains live here and nowhere else.
var (
	nameKeys          = []string{"securityName", "name", "symbol"}
	sectorKeys        = []string{"sector", "sectorName"}
	priceKeys         = []string{"lastTradedPrice", "ltp", "currentValue", "price"}
	changeKeys        = []string{"change", "pointChange"}
	changePercentKeys = []string{"percentageChange", "changePercent", "perChange"}
	openKeys          = []string{"openPrice", "open"}
	highKeys          = []string{"highPrice", "high"}
	lowKeys           = []string{"lowPrice", "low"}
	quantityKeys      = []string{"totalTradeQuantity", "sharesTraded", "quantity", "totalTrades"}
	turnoverKeys      = []string{"totalTradeValue", "turnover", "amount"}
	prevCloseKeys     = []string{"previousClose", "previousDayClosePrice"}
)

// Finite coerces an arbitrary decoded JSON value to a finite float64.
// Strings are parsed; anything missing, non-numeric, NaN or infinite
// becomes 0 so downstream math and sorting never see NaN.
func Finite(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// DeriveSymbol derives a ticker symbol from a display name: the first
// whitespace-separated token, upper-cased. Used when upstream omits the
// symbol and when keying watchlist/recent-search entries.
func DeriveSymbol(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func firstString(item map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := item[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(item map[string]any, keys []string) float64 {
	for _, k := range keys {
		if v, ok := item[k]; ok && v != nil {
			return Finite(v)
		}
	}
	return 0
}

// NormalizeItem maps one raw upstream entry into the canonical TickerItem.
func NormalizeItem(item map[string]any) TickerItem {
	name := firstString(item, nameKeys)

	symbol, _ := item["symbol"].(string)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = DeriveSymbol(name)
	}
	if name == "" {
		name = symbol
	}

	return TickerItem{
		Symbol:        symbol,
		Name:          name,
		Sector:        strings.TrimSpace(firstString(item, sectorKeys)),
		LTP:           firstNumber(item, priceKeys),
		Change:        firstNumber(item, changeKeys),
		ChangePercent: firstNumber(item, changePercentKeys),
		Open:          firstNumber(item, openKeys),
		High:          firstNumber(item, highKeys),
		Low:           firstNumber(item, lowKeys),
		Quantity:      firstNumber(item, quantityKeys),
		Turnover:      firstNumber(item, turnoverKeys),
		PreviousClose: firstNumber(item, prevCloseKeys),
	}
}

// NormalizeList maps a raw upstream list; non-list or non-object entries
// are skipped rather than failing the whole snapshot.
func NormalizeList(v any) []TickerItem {
	raw, ok := v.([]any)
	if !ok {
		return []TickerItem{}
	}
	out := make([]TickerItem, 0, len(raw))
	for _, entry := range raw {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, NormalizeItem(item))
	}
	return out
}

// firstList resolves a snapshot-level list through fallback keys; the
// upstream home-page payload renamed several lists across API revisions.
func firstList(payload map[string]any, keys ...string) []TickerItem {
	for _, k := range keys {
		if v, ok := payload[k]; ok && v != nil {
			return NormalizeList(v)
		}
	}
	return []TickerItem{}
}

// NormalizeSnapshot builds the canonical snapshot from the raw home-page
// payload.
func NormalizeSnapshot(payload map[string]any) *Snapshot {
	snap := &Snapshot{
		Indices:         firstList(payload, "indices"),
		SubIndices:      firstList(payload, "subIndices"),
		ListedCompanies: firstList(payload, "liveCompanyData", "listedCompanies"),
		TopGainers:      firstList(payload, "topGainers"),
		TopLosers:       firstList(payload, "topLosers"),
		TopTraded:       firstList(payload, "topTradedShares", "topTraded"),
		TopTransactions: firstList(payload, "topTransactions", "topTransaction"),
		TopTurnover:     firstList(payload, "topTurnover"),
	}

	if raw, ok := payload["marketSummary"].([]any); ok {
		for _, entry := range raw {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name, _ := item["name"].(string)
			if name == "" {
				name, _ = item["detail"].(string)
			}
			snap.MarketSummary = append(snap.MarketSummary, SummaryItem{
				Name:  name,
				Value: firstNumber(item, []string{"value", "amount"}),
			})
		}
	}

	if raw, ok := payload["stockSummary"].(map[string]any); ok {
		snap.StockSummary = StockSummary{
			Advanced:        int(Finite(raw["advanced"])),
			Declined:        int(Finite(raw["declined"])),
			Unchanged:       int(Finite(raw["unchanged"])),
			PositiveCircuit: int(Finite(raw["positiveCircuit"])),
			NegativeCircuit: int(Finite(raw["negativeCircuit"])),
		}
	}

	return snap
}

// NormalizeStatus maps the raw market-status payload. Upstream reports
// isOpen either as the string "OPEN" or as a boolean depending on revision.
func NormalizeStatus(payload map[string]any) Status {
	var open bool
	switch v := payload["isOpen"].(type) {
	case string:
		open = v == "OPEN"
	case bool:
		open = v
	}

	updatedAt, _ := payload["asOf"].(string)
	if updatedAt == "" {
		updatedAt, _ = payload["updatedAt"].(string)
	}

	return Status{IsOpen: open, UpdatedAt: updatedAt}
}

// NormalizeOffering maps one raw public-offering row.
func NormalizeOffering(item map[string]any) Offering {
	symbol, _ := item["symbol"].(string)
	name := firstString(item, []string{"name", "companyName", "securityName"})
	status, _ := item["status"].(string)
	manager, _ := item["issueManager"].(string)

	return Offering{
		ID:           int(Finite(item["id"])),
		Symbol:       strings.ToUpper(strings.TrimSpace(symbol)),
		Name:         name,
		Sector:       strings.TrimSpace(firstString(item, sectorKeys)),
		Units:        Finite(item["units"]),
		Price:        Finite(item["price"]),
		OpeningDate:  firstString(item, []string{"openingDate", "openingDateAD"}),
		ClosingDate:  firstString(item, []string{"closingDate", "closingDateAD"}),
		Status:       status,
		IssueManager: manager,
	}
}

// NormalizeOfferings maps the raw offering content list.
func NormalizeOfferings(v any) []Offering {
	raw, ok := v.([]any)
	if !ok {
		return []Offering{}
	}
	out := make([]Offering, 0, len(raw))
	for _, entry := range raw {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, NormalizeOffering(item))
	}
	return out
}
