// Package queryset provides QuerySet, a lazy and cacheable view over the
// documents of one record kind in a search backend.
//
// Chain methods (Filter, Exclude, OrderBy, Query, Facet, Suggest, Slice)
// never touch the backend. They return a new QuerySet with its own empty
// cache. Reads (List, All, At, Contains, Count, Facets, Suggestions, Render)
// execute the specification at most once per QuerySet and then serve every
// later read from the cached response.
//
// A QuerySet is meant for one logical caller and is not safe for
// concurrent use. Derived sets share no mutable state.
package queryset

import (
	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/filter"
	"github.com/kailas-cloud/docset/internal/domain/search/order"
	"github.com/kailas-cloud/docset/internal/domain/search/request"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
)

// QuerySet is a lazy query over the documents of one kind.
type QuerySet[R record.Record] struct {
	req      request.Request
	fp       uint64
	searcher Searcher
	records  Resolver[R]
	opts     options

	// execution cache, keyed by fingerprint
	resp    *response.Response
	respKey uint64
	page    []R
	paged   bool

	count   int
	counted bool
}

// New creates a QuerySet over every document of kind.
func New[R record.Record](
	kind record.Kind, searcher Searcher, records Resolver[R], opts ...Option,
) *QuerySet[R] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newSet(request.New(kind), searcher, records, o)
}

func newSet[R record.Record](
	req request.Request, searcher Searcher, records Resolver[R], o options,
) *QuerySet[R] {
	return &QuerySet[R]{
		req:      req,
		fp:       req.Fingerprint(),
		searcher: searcher,
		records:  records,
		opts:     o,
	}
}

func (q *QuerySet[R]) derive(req request.Request) *QuerySet[R] {
	return newSet(req, q.searcher, q.records, q.opts)
}

// Kind returns the record kind the set queries.
func (q *QuerySet[R]) Kind() record.Kind { return q.req.Kind() }

// Spec returns the immutable specification behind the set.
func (q *QuerySet[R]) Spec() request.Request { return q.req }

// Fingerprint identifies the specification. Sets with equal fingerprints
// send identical requests.
func (q *QuerySet[R]) Fingerprint() uint64 { return q.fp }

// Err returns the first error recorded by a chain call. Reads return it too.
func (q *QuerySet[R]) Err() error { return q.req.Err() }

// Clone returns a set with the same specification and an empty cache.
func (q *QuerySet[R]) Clone() *QuerySet[R] { return q.derive(q.req) }

// Filter keeps documents whose field equals value (case-insensitive).
func (q *QuerySet[R]) Filter(field, value string) *QuerySet[R] {
	return q.derive(q.req.WithMatch(field, value))
}

// Exclude drops documents whose field equals value (case-insensitive).
func (q *QuerySet[R]) Exclude(field, value string) *QuerySet[R] {
	return q.derive(q.req.WithoutMatch(field, value))
}

// FilterRange keeps documents whose numeric field falls inside rng.
func (q *QuerySet[R]) FilterRange(field string, rng filter.Range) *QuerySet[R] {
	return q.derive(q.req.WithRange(field, rng))
}

// Query sets the free-text query matched against the kind's default field.
func (q *QuerySet[R]) Query(text string) *QuerySet[R] {
	return q.derive(q.req.WithQuery(text))
}

// OrderBy replaces the ordering. Each key is "field" or "-field".
// No keys means relevance order.
func (q *QuerySet[R]) OrderBy(keys ...string) *QuerySet[R] {
	parsed := make([]order.Key, 0, len(keys))
	for _, s := range keys {
		k, err := order.Parse(s)
		if err != nil {
			return q.derive(q.req.WithError(domain.NewBuildError(s, "%v", err)))
		}
		parsed = append(parsed, k)
	}
	return q.derive(q.req.WithOrdering(parsed...))
}

// Facet requests term facets for fields. Global facets are computed over the
// whole index; otherwise over the filtered result set.
func (q *QuerySet[R]) Facet(fields []string, global bool) *QuerySet[R] {
	return q.derive(q.req.WithFacets(fields, global))
}

// Suggest requests term suggestions for the query text against fields.
func (q *QuerySet[R]) Suggest(fields ...string) *QuerySet[R] {
	return q.derive(q.req.WithSuggest(fields...))
}

// Slice narrows the set to [start, stop) relative to its current window.
func (q *QuerySet[R]) Slice(start, stop int) *QuerySet[R] {
	return q.derive(q.req.WithSlice(start, stop, true))
}

// From narrows the set to everything from start on.
func (q *QuerySet[R]) From(start int) *QuerySet[R] {
	return q.derive(q.req.WithSlice(start, 0, false))
}
