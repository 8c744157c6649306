package market

import "time"

// Status reports whether the exchange is accepting orders.
// Upstream sends isOpen as the string "OPEN"/"CLOSE" and the timestamp as "asOf".
type Status struct {
	IsOpen    bool   `json:"isOpen"`
	UpdatedAt string `json:"updatedAt"`
}

// TickerItem is the canonical shape every upstream list entry is normalized
// into. Numeric fields are always finite; missing or non-numeric upstream
// values become 0.
type TickerItem struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Sector        string  `json:"sector,omitempty"`
	LTP           float64 `json:"ltp"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Open          float64 `json:"open,omitempty"`
	High          float64 `json:"high,omitempty"`
	Low           float64 `json:"low,omitempty"`
	Quantity      float64 `json:"quantity,omitempty"`
	Turnover      float64 `json:"turnover,omitempty"`
	PreviousClose float64 `json:"previousClose,omitempty"`
}

// SummaryItem is one row of the exchange-wide market summary block.
type SummaryItem struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type StockSummary struct {
	Advanced        int `json:"advanced"`
	Declined        int `json:"declined"`
	Unchanged       int `json:"unchanged"`
	PositiveCircuit int `json:"positiveCircuit"`
	NegativeCircuit int `json:"negativeCircuit"`
}

// Snapshot is the complete normalized market payload held after a successful
// poll. It is replaced wholesale on every poll, never merged.
type Snapshot struct {
	Indices         []TickerItem  `json:"indices"`
	SubIndices      []TickerItem  `json:"subIndices"`
	ListedCompanies []TickerItem  `json:"listedCompanies"`
	TopGainers      []TickerItem  `json:"topGainers"`
	TopLosers       []TickerItem  `json:"topLosers"`
	TopTraded       []TickerItem  `json:"topTraded"`
	TopTransactions []TickerItem  `json:"topTransaction"`
	TopTurnover     []TickerItem  `json:"topTurnover"`
	MarketSummary   []SummaryItem `json:"marketSummary"`
	StockSummary    StockSummary  `json:"stockSummary"`
	FetchedAt       time.Time     `json:"fetchedAt"`
}

// PrimaryIndex is the headline NEPSE index extracted from a snapshot.
type PrimaryIndex struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Primary returns the NEPSE index row, or nil if the snapshot has none.
func (s *Snapshot) Primary() *PrimaryIndex {
	for _, idx := range s.Indices {
		if idx.Name == "NEPSE" || idx.Symbol == "NEPSE" {
			return &PrimaryIndex{
				Name:          "NEPSE",
				Value:         idx.LTP,
				Change:        idx.Change,
				ChangePercent: idx.ChangePercent,
			}
		}
	}
	return nil
}

// List returns the named ticker list of the snapshot. Unknown keys return nil.
// Keys match the ticker-category keys persisted by the local store.
func (s *Snapshot) List(key string) []TickerItem {
	switch key {
	case "index":
		return s.Indices
	case "subIndex":
		return s.SubIndices
	case "listedCompany":
		return s.ListedCompanies
	case "topGainer":
		return s.TopGainers
	case "topLoser":
		return s.TopLosers
	case "topTraded":
		return s.TopTraded
	case "topTransaction":
		return s.TopTransactions
	case "topTurnover":
		return s.TopTurnover
	}
	return nil
}

// Offering is a single public-offering (IPO/FPO/right share/...) row.
type Offering struct {
	ID           int     `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Sector       string  `json:"sector,omitempty"`
	Units        float64 `json:"units"`
	Price        float64 `json:"price"`
	OpeningDate  string  `json:"openingDate,omitempty"`
	ClosingDate  string  `json:"closingDate,omitempty"`
	Status       string  `json:"status"`
	IssueManager string  `json:"issueManager,omitempty"`
}

// Open reports whether the offering is currently open for application and
// carries enough identity to be worth displaying.
func (o Offering) Open() bool {
	hasAny := o.ID != 0 || o.Symbol != "" || o.Name != "" ||
		o.OpeningDate != "" || o.ClosingDate != "" || o.Units != 0 || o.Price != 0
	return hasAny && o.Status == "Open"
}
