package body

import (
	"slices"

	"github.com/kailas-cloud/docset/internal/domain/search/filter"
)

// DefaultFacetSize is the number of terms returned per facet.
const DefaultFacetSize = 10

// Scope selects the document set a facet is computed over.
type Scope string

// Facet scopes.
const (
	// ScopeGlobal computes facets over the whole index, ignoring filters and query.
	ScopeGlobal Scope = "global"
	// ScopeQuery computes facets over the filtered result set.
	ScopeQuery Scope = "query"
)

// Term is an exact, lower-cased field match.
type Term struct {
	Field string
	Value string
}

// Range is a numeric range clause.
type Range struct {
	Field  string
	Bounds filter.Range
}

// Text is a free-text clause. An empty Field means all text fields.
type Text struct {
	Field string
	Value string
}

// Query is the boolean part of a body: Must, Ranges and Text are ANDed,
// MustNot are excluded.
type Query struct {
	Must    []Term
	MustNot []Term
	Ranges  []Range
	Text    *Text
}

// MatchAll reports whether the query has no clauses at all.
func (q Query) MatchAll() bool {
	return len(q.Must) == 0 && len(q.MustNot) == 0 && len(q.Ranges) == 0 && q.Text == nil
}

// HasPositive reports whether the query has at least one clause that selects documents.
func (q Query) HasPositive() bool {
	return len(q.Must) > 0 || len(q.Ranges) > 0 || q.Text != nil
}

// SortField is one ordering clause.
type SortField struct {
	Field string
	Desc  bool
}

// Agg is a terms aggregation.
type Agg struct {
	Field string
	Scope Scope
	Size  int
}

// Suggest asks for term suggestions of Text against each field.
type Suggest struct {
	Text   string
	Fields []string
}

// Body is the backend-neutral request a search client executes.
type Body struct {
	Index   string
	Prefix  string
	Kind    string
	Query   Query
	Sort    []SortField
	Aggs    []Agg
	Suggest *Suggest
	From    int
	// Size nil means the backend default page size.
	Size *int
}

// Unpaged returns a copy of b reduced to what a count request needs:
// no window, no ordering, no facets and no suggestions.
func (b *Body) Unpaged() *Body {
	return &Body{
		Index:  b.Index,
		Prefix: b.Prefix,
		Kind:   b.Kind,
		Query:  b.Query,
	}
}

// Limit returns the page size, falling back to def when unset.
func (b *Body) Limit(def int) int {
	if b.Size == nil {
		return def
	}
	return *b.Size
}

// AggsIn returns the aggregations with the given scope.
func (b *Body) AggsIn(s Scope) []Agg {
	var out []Agg
	for _, a := range b.Aggs {
		if a.Scope == s {
			out = append(out, a)
		}
	}
	return out
}

// FacetFields returns the aggregated fields in request order.
func (b *Body) FacetFields() []string {
	out := make([]string, 0, len(b.Aggs))
	for _, a := range b.Aggs {
		out = append(out, a.Field)
	}
	return slices.Clip(out)
}
