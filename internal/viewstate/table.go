// Package viewstate derives what each screen renders from the normalized
// market snapshot: filtering, stable sorting, pagination and tab selection.
// Everything here is transient; nothing is persisted across restarts.
package viewstate

// Direction is a binary sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Table holds the transient view state of one sortable, filterable,
// paginated list. A nil sort key means natural (insertion) order.
type Table struct {
	SortKey  string
	Dir      Direction
	Filter   string
	Page     int
	PageSize int
}

// ToggleSort applies the sort-control click semantics: clicking the active
// key flips direction; clicking a different key switches to it and resets
// direction to the table's default. Either way the view returns to page 1.
func (t *Table) ToggleSort(key string, defaultDir Direction) {
	t.Page = 1
	if t.SortKey == key {
		t.Dir = t.Dir.Flip()
		return
	}
	t.SortKey = key
	t.Dir = defaultDir
}

// SetFilter switches the active filter value and returns to page 1.
func (t *Table) SetFilter(filter string) {
	t.Filter = filter
	t.Page = 1
}

// TotalPages is always at least 1, even for an empty filtered set.
func TotalPages(count, pageSize int) int {
	if pageSize < 1 {
		return 1
	}
	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage clamps the current page into [1, totalPages] for the given
// filtered count. Call after any filter or data change.
func (t *Table) ClampPage(count int) {
	total := TotalPages(count, t.PageSize)
	if t.Page < 1 {
		t.Page = 1
	}
	if t.Page > total {
		t.Page = total
	}
}

// Window returns the slice of items visible on the current page. The page
// is clamped first, so a stale page index can never slice out of range.
func Window[T any](t *Table, items []T) []T {
	t.ClampPage(len(items))
	start := (t.Page - 1) * t.PageSize
	if start >= len(items) {
		return nil
	}
	end := start + t.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
