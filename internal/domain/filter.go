package domain

import "fmt"

// FilterBy names the dimension a listing is narrowed by
type FilterBy int

const (
	FilterNone FilterBy = iota
	FilterGenre
	FilterCatalog
	FilterProvider
	FilterQuery
)

func (b FilterBy) String() string {
	switch b {
	case FilterGenre:
		return "genre"
	case FilterCatalog:
		return "catalog"
	case FilterProvider:
		return "provider"
	case FilterQuery:
		return "query"
	default:
		return "none"
	}
}

// Filter narrows a listing. The zero value is the unfiltered (hero) listing.
// Filters are comparable and used as cache keys.
type Filter struct {
	By    FilterBy
	Value string
}

func ByGenre(id string) Filter    { return Filter{By: FilterGenre, Value: id} }
func ByCatalog(id string) Filter  { return Filter{By: FilterCatalog, Value: id} }
func ByProvider(id string) Filter { return Filter{By: FilterProvider, Value: id} }
func ByQuery(q string) Filter     { return Filter{By: FilterQuery, Value: q} }

func (f Filter) String() string {
	if f.By == FilterNone {
		return "all"
	}
	return fmt.Sprintf("%s=%s", f.By, f.Value)
}
