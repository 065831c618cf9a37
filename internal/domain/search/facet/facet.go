package facet

import (
	"cmp"
	"slices"
	"strings"

	"github.com/kailas-cloud/docset/internal/domain/search/response"
)

// TypeTerms is the only facet type.
const TypeTerms = "terms"

// Term is one facet value and how many documents carry it.
type Term struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Facet is the shaped term distribution of one field.
type Facet struct {
	Type    string `json:"_type"`
	Missing int    `json:"missing"`
	Other   int    `json:"other"`
	Total   int    `json:"total"`
	Terms   []Term `json:"terms"`
}

// Shape lower-cases and merges bucket terms, orders them by descending
// count (ties by term) and sets Total to the sum of counts plus Other.
func Shape(raw response.RawFacet) Facet {
	merged := make(map[string]int, len(raw.Buckets))
	order := make([]string, 0, len(raw.Buckets))
	for _, b := range raw.Buckets {
		t := strings.ToLower(b.Term)
		if _, ok := merged[t]; !ok {
			order = append(order, t)
		}
		merged[t] += b.Count
	}

	f := Facet{Type: TypeTerms, Missing: raw.Missing, Other: raw.Other, Terms: make([]Term, 0, len(order))}
	for _, t := range order {
		f.Terms = append(f.Terms, Term{Term: t, Count: merged[t]})
		f.Total += merged[t]
	}
	f.Total += raw.Other
	slices.SortFunc(f.Terms, func(a, b Term) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Term, b.Term)
	})
	return f
}

// ShapeAll shapes every requested field. Fields the backend returned
// nothing for get an empty facet.
func ShapeAll(fields []string, raw map[string]response.RawFacet) map[string]Facet {
	out := make(map[string]Facet, len(fields))
	for _, f := range fields {
		out[f] = Shape(raw[f])
	}
	return out
}
