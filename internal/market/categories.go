package market

// OfferingQuery carries the upstream query tuple distinguishing offering
// segments: page size, offering type code and audience code.
type OfferingQuery struct {
	PageSize int `json:"pageSize"`
	Type     int `json:"type"`
	ForValue int `json:"forValue"`
}

// OfferingCategories maps each offering segment to its fixed query tuple.
var OfferingCategories = map[string]OfferingQuery{
	"general":          {PageSize: 500, Type: 0, ForValue: 2},
	"local":            {PageSize: 500, Type: 0, ForValue: 0},
	"foreignEmployees": {PageSize: 500, Type: 0, ForValue: 1},
	"rightShare":       {PageSize: 500, Type: 2, ForValue: 2},
	"fpo":              {PageSize: 500, Type: 1, ForValue: 2},
	"mutualFunds":      {PageSize: 500, Type: 3, ForValue: 2},
	"debentures":       {PageSize: 500, Type: 4, ForValue: 2},
}

// OfferingCategoryOrder fixes the tab order for display.
var OfferingCategoryOrder = []string{
	"general", "local", "foreignEmployees", "rightShare", "fpo", "mutualFunds", "debentures",
}

// OfferingCategoryLabels maps category keys to display labels.
var OfferingCategoryLabels = map[string]string{
	"general":          "General",
	"local":            "Local",
	"foreignEmployees": "Foreign Employees",
	"rightShare":       "Right Share",
	"fpo":              "FPO",
	"mutualFunds":      "Mutual Funds",
	"debentures":       "Debentures",
}

// CategoryQuery returns the query tuple for a category, falling back to the
// general-public segment for unknown keys.
func CategoryQuery(category string) OfferingQuery {
	if q, ok := OfferingCategories[category]; ok {
		return q
	}
	return OfferingCategories["general"]
}
