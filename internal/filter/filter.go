package filter

import (
	"strings"

	"github.com/amishk599/talentmesh/internal/model"
)

// LocationFilter keeps pool members whose location contains any include
// term and none of the exclude terms. Matching is case-insensitive.
// An empty include list passes every location.
type LocationFilter struct {
	include []string
	exclude []string
}

// NewLocationFilter returns a filter over the given include and exclude terms.
func NewLocationFilter(include, exclude []string) *LocationFilter {
	return &LocationFilter{
		include: lowerAll(include),
		exclude: lowerAll(exclude),
	}
}

// FromSearchFilters builds the filter recorded on a search.
func FromSearchFilters(f model.SearchFilters) *LocationFilter {
	return NewLocationFilter(f.Locations, f.ExcludeLocations)
}

// Active reports whether the filter rejects anything at all.
func (f *LocationFilter) Active() bool {
	return len(f.include) > 0 || len(f.exclude) > 0
}

// Match reports whether m passes the filter. Members without a location fail
// a non-empty include list and pass any exclude list.
func (f *LocationFilter) Match(m model.PoolMember) bool {
	var location string
	if m.Attrs != nil {
		location = strings.ToLower(m.Attrs.Location)
	}

	if len(f.include) > 0 {
		if location == "" || !containsAny(location, f.include) {
			return false
		}
	}

	if location != "" && containsAny(location, f.exclude) {
		return false
	}

	return true
}

// Apply returns the members that pass, preserving order.
func (f *LocationFilter) Apply(pool []model.PoolMember) []model.PoolMember {
	if !f.Active() {
		return pool
	}
	out := make([]model.PoolMember, 0, len(pool))
	for _, m := range pool {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
