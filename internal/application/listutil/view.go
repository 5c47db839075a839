package listutil

import (
	"maps"
	"strings"
)

// AllValues are the sentinels that disable a categorical filter.
var AllValues = []string{"All", "Todos", "Todas"}

// IsAll reports whether a filter value means "no filter".
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	for _, a := range AllValues {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

// Matcher describes how items of type T are searched and filtered.
// Search lists the string fields the free-text query looks at; Filters maps a filter key
// to the field it matches exactly (case-insensitive).
type Matcher[T any] struct {
	Search  []func(T) string
	Filters map[string]func(T) string
}

// Matches reports whether item passes the search and every active filter.
func (s Matcher[T]) Matches(item T, fp FilterParams) bool {
	if q := strings.ToLower(strings.TrimSpace(fp.Search)); q != "" {
		found := false
		for _, field := range s.Search {
			if strings.Contains(strings.ToLower(field(item)), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for key, want := range fp.Filters {
		if IsAll(want) {
			continue
		}
		field, ok := s.Filters[key]
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(field(item)), strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}

// Filter returns the items that match fp, in their original order.
// POST: items is not modified
func Filter[T any](items []T, m Matcher[T], fp FilterParams) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if m.Matches(it, fp) {
			out = append(out, it)
		}
	}
	return out
}

// Paginate returns the rows of the requested page and the clamped page info.
// PRE: page >= 1, perPage > 0
// POST: rows is a subslice of items with len <= perPage
func Paginate[T any](items []T, page, perPage int) ([]T, PageInfo) {
	info := NewPageInfo(page, perPage, len(items))
	return items[info.Offset():info.EndRow()], info
}

// View is the remembered search/filter/page state of one list screen.
// INVARIANT: changing the search or a filter puts the view back on page 1
type View struct {
	Search  string            `json:"search"`
	Filters map[string]string `json:"filters"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// NewView returns a view on page 1 with the default page size.
func NewView() *View {
	return &View{Filters: map[string]string{}, Page: 1, PerPage: DefaultPerPage}
}

// SetSearch changes the query.
// POST: Page is 1 if the query changed
func (v *View) SetSearch(q string) {
	q = strings.TrimSpace(q)
	if q != v.Search {
		v.Search = q
		v.Page = 1
	}
}

// SetFilter changes one filter; "All" clears it.
// POST: Page is 1 if the effective filter changed
func (v *View) SetFilter(key, value string) {
	if v.Filters == nil {
		v.Filters = map[string]string{}
	}
	value = strings.TrimSpace(value)
	if IsAll(value) {
		value = ""
	}
	if v.Filters[key] == value {
		return
	}
	if value == "" {
		delete(v.Filters, key)
	} else {
		v.Filters[key] = value
	}
	v.Page = 1
}

// SetPage moves to page n (values below 1 mean page 1).
func (v *View) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	v.Page = n
}

// Apply folds request parameters into the view. Parameters the request left out keep their
// remembered value. An explicit page is honoured only when the search and filters did not
// change in the same request.
func (v *View) Apply(p ListParams, filterKeys []string) {
	changed := false
	if p.HasSearch && p.Search != v.Search {
		v.SetSearch(p.Search)
		changed = true
	}
	for _, key := range filterKeys {
		if !p.HasFilter[key] {
			continue
		}
		old := v.Filters[key]
		v.SetFilter(key, p.Filters[key])
		if v.Filters[key] != old {
			changed = true
		}
	}
	if p.HasPerPage && p.PerPage != v.PerPage {
		v.PerPage = p.PerPage
		changed = true
	}
	if changed {
		v.Page = 1
	} else if p.HasPage {
		v.SetPage(p.Page)
	}
}

// Params returns the view as FilterParams.
func (v *View) Params() FilterParams {
	return FilterParams{Search: v.Search, Filters: maps.Clone(v.Filters)}
}

// Result is one rendered page of a list.
type Result[T any] struct {
	Items []T      `json:"items"`
	Page  PageInfo `json:"page"`
	View  View     `json:"view"`
}

// Run filters and paginates items under the view.
// POST: v.Page is clamped to the last page of the filtered list
func Run[T any](items []T, m Matcher[T], v *View) Result[T] {
	matched := Filter(items, m, v.Params())
	perPage := v.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	rows, info := Paginate(matched, v.Page, perPage)
	v.Page = info.Page
	return Result[T]{Items: rows, Page: info, View: *v}
}
