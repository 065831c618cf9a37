package chi

import (
	"fmt"
	"net/url"
	"strconv"

	searchuc "github.com/kailas-cloud/docset/internal/usecase/search"
)

// paramsFromQuery reads search parameters from the URL query:
//
//	q=text filter=field:value exclude=field:value range=field:lo..hi
//	order=-field facet=field global_facets=bool suggest=field
//	offset=n limit=n
//
// filter, exclude, range, order, facet and suggest repeat; order, facet and
// suggest also accept comma-separated lists.
func paramsFromQuery(v url.Values) (searchuc.Params, error) {
	p := searchuc.Params{
		Query:   v.Get("q"),
		Order:   searchuc.SplitList(v["order"]),
		Facets:  searchuc.SplitList(v["facet"]),
		Suggest: searchuc.SplitList(v["suggest"]),
	}

	var err error
	if p.Filters, err = matches("filter", v["filter"]); err != nil {
		return p, err
	}
	if p.Excludes, err = matches("exclude", v["exclude"]); err != nil {
		return p, err
	}
	for _, raw := range v["range"] {
		r, err := searchuc.ParseRange(raw)
		if err != nil {
			return p, fmt.Errorf("range: %w", err)
		}
		p.Ranges = append(p.Ranges, r)
	}

	if s := v.Get("global_facets"); s != "" {
		global, err := strconv.ParseBool(s)
		if err != nil {
			return p, fmt.Errorf("global_facets: %q is not a boolean", s)
		}
		p.LocalFacets = !global
	}
	if p.Offset, err = intParam(v, "offset"); err != nil {
		return p, err
	}
	if p.Limit, err = intParam(v, "limit"); err != nil {
		return p, err
	}
	return p, nil
}

func matches(name string, raw []string) ([]searchuc.Match, error) {
	out := make([]searchuc.Match, 0, len(raw))
	for _, s := range raw {
		m, err := searchuc.ParseMatch(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func intParam(v url.Values, name string) (int, error) {
	s := v.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, s)
	}
	return n, nil
}
