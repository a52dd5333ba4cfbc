package router

import (
	"net/url"

	"github.com/mesh-intelligence/statekit/pkg/types"
)

// Query parameter names for the route-synced fields.
const (
	ParamFilter   = "filter"
	ParamCategory = "category"
	ParamSearch   = "q"
)

// SyncedFields are the store fields carried by the location and attached
// to navigation entries.
var SyncedFields = []string{
	types.FieldRoute,
	types.FieldFilter,
	types.FieldCategory,
	types.FieldSearch,
}

// EncodeLocation renders the route-synced fields of s as a URL. Default
// values are left out of the query so the plain path stays canonical.
func EncodeLocation(s types.Snapshot) string {
	path, query := encode(s)
	if query == "" {
		return path
	}
	return path + "?" + query
}

func encode(s types.Snapshot) (path, query string) {
	path = s.Route()
	if path == "" {
		path = types.RouteHome
	}
	v := url.Values{}
	if f := s.Filter(); f != "" && f != types.FilterAll {
		v.Set(ParamFilter, f)
	}
	if c := s.Category(); c != "" && c != types.CategoryAll {
		v.Set(ParamCategory, c)
	}
	if q := s.Search(); q != "" {
		v.Set(ParamSearch, q)
	}
	return path, v.Encode()
}

// DecodeLocation parses a URL into the route-synced fields. Missing
// parameters take their default values; an unparseable URL decodes to the
// home route.
func DecodeLocation(loc string) types.Partial {
	out := types.Partial{
		types.FieldRoute:    types.RouteHome,
		types.FieldFilter:   types.FilterAll,
		types.FieldCategory: types.CategoryAll,
		types.FieldSearch:   "",
	}
	u, err := url.Parse(loc)
	if err != nil {
		return out
	}
	if u.Path != "" {
		out[types.FieldRoute] = u.Path
	}
	q := u.Query()
	if f := q.Get(ParamFilter); f != "" {
		out[types.FieldFilter] = f
	}
	if c := q.Get(ParamCategory); c != "" {
		out[types.FieldCategory] = c
	}
	out[types.FieldSearch] = q.Get(ParamSearch)
	return out
}

// splitTarget separates a navigation target into path and raw query.
func splitTarget(target string) (path string, query string, hasQuery bool) {
	u, err := url.Parse(target)
	if err != nil {
		return target, "", false
	}
	path = u.Path
	if path == "" {
		path = types.RouteHome
	}
	return path, u.RawQuery, u.RawQuery != "" || u.ForceQuery
}
