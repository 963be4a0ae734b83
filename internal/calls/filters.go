package calls

import (
	"net/url"
	"strconv"
	"strings"
)

// Sort orders accepted by the call list.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Default filter tuple for the call list.
const (
	DefaultPage      = 1
	DefaultPageSize  = 10
	DefaultSortBy    = "date"
	DefaultSortOrder = SortDesc

	maxPageSize = 100
)

// SortFields lists the columns the call list can be ordered by.
var SortFields = []string{"date", "duration", "agent", "score", "sentiment"}

func validSortField(name string) bool {
	for _, f := range SortFields {
		if f == name {
			return true
		}
	}
	return false
}

// Filters are the active call-list parameters. One set exists per list
// view; a partial update merges into it, a reset restores the defaults.
type Filters struct {
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
	Search    string `json:"search,omitempty"`
}

// DefaultFilters returns exactly {page:1, pageSize:10, sortBy:date,
// sortOrder:desc} with no search text.
func DefaultFilters() Filters {
	return Filters{
		Page:      DefaultPage,
		PageSize:  DefaultPageSize,
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
	}
}

// Update is a partial filter change; nil fields keep their prior value.
type Update struct {
	Page      *int
	PageSize  *int
	SortBy    *string
	SortOrder *string
	Search    *string
}

// Merge shallow-merges an update into the current set and returns the
// result. Keys absent from the update retain their prior value.
func (f Filters) Merge(u Update) Filters {
	if u.Page != nil {
		f.Page = *u.Page
	}
	if u.PageSize != nil {
		f.PageSize = *u.PageSize
	}
	if u.SortBy != nil {
		f.SortBy = *u.SortBy
	}
	if u.SortOrder != nil {
		f.SortOrder = *u.SortOrder
	}
	if u.Search != nil {
		f.Search = *u.Search
	}
	return f
}

// Reset discards every active value, search text included, and returns the
// exact default tuple.
func (f Filters) Reset() Filters {
	return DefaultFilters()
}

// Normalize guards server-side use of caller-supplied filters: positive
// page, bounded page size, known sort field and order. Unknown values fall
// back to the defaults rather than erroring.
func (f Filters) Normalize() Filters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 || f.PageSize > maxPageSize {
		f.PageSize = DefaultPageSize
	}
	f.SortBy = strings.ToLower(strings.TrimSpace(f.SortBy))
	if !validSortField(f.SortBy) {
		f.SortBy = DefaultSortBy
	}
	f.SortOrder = strings.ToLower(strings.TrimSpace(f.SortOrder))
	if f.SortOrder != SortAsc && f.SortOrder != SortDesc {
		f.SortOrder = DefaultSortOrder
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// ParseFilters reads the list parameters from a query string, falling back
// to defaults for missing or unparsable values.
func ParseFilters(q url.Values) Filters {
	f := DefaultFilters()
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil {
		f.PageSize = v
	}
	if v := q.Get("sort_by"); v != "" {
		f.SortBy = v
	}
	if v := q.Get("sort_order"); v != "" {
		f.SortOrder = v
	}
	f.Search = q.Get("search")
	return f.Normalize()
}

// Query encodes the filter set for a list request URL. Defaults are encoded
// too so the server round-trips the exact view state.
func (f Filters) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("page_size", strconv.Itoa(f.PageSize))
	q.Set("sort_by", f.SortBy)
	q.Set("sort_order", f.SortOrder)
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}
