package request

import (
	"slices"

	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/filter"
	"github.com/kailas-cloud/docset/internal/domain/search/order"
)

// MaxQueryLength is the maximum allowed free-text query length.
const MaxQueryLength = 4096

// Request is an immutable query specification. Every With* method returns a
// modified copy and leaves the receiver untouched.
type Request struct {
	kind        record.Kind
	filters     filter.Expression
	query       string
	ordering    []order.Key
	facets      []string
	localFacets bool
	suggest     []string
	bounds      Bounds
	err         error
}

// New creates an empty specification for kind. It matches every document.
func New(kind record.Kind) Request {
	return Request{kind: kind}
}

// Kind returns the target record kind.
func (r Request) Kind() record.Kind { return r.kind }

// Filters returns the filter expression.
func (r Request) Filters() filter.Expression { return r.filters }

// Query returns the free-text query.
func (r Request) Query() string { return r.query }

// Ordering returns the ordering keys in chain order. Empty means relevance.
func (r Request) Ordering() []order.Key { return r.ordering }

// Facets returns the fields to compute term facets for.
func (r Request) Facets() []string { return r.facets }

// GlobalFacets reports whether facets are computed over the whole index
// rather than over the filtered result set.
func (r Request) GlobalFacets() bool { return !r.localFacets }

// Suggest returns the fields to request term suggestions for.
func (r Request) Suggest() []string { return r.suggest }

// Bounds returns the slice window.
func (r Request) Bounds() Bounds { return r.bounds }

// Err returns the first error recorded by a With* call.
func (r Request) Err() error { return r.err }

// WithError records err unless an earlier error is already recorded.
func (r Request) WithError(err error) Request {
	if r.err == nil {
		r.err = err
	}
	return r
}

// WithMatch adds an equality condition.
func (r Request) WithMatch(field, value string) Request {
	c, err := filter.NewMatch(field, value)
	if err != nil {
		return r.WithError(domain.NewBuildError(field, "%v", err))
	}
	expr, err := r.filters.And(c)
	if err != nil {
		return r.WithError(domain.NewBuildError(field, "%v", err))
	}
	r.filters = expr
	return r
}

// WithoutMatch adds a negated equality condition.
func (r Request) WithoutMatch(field, value string) Request {
	c, err := filter.NewMatch(field, value)
	if err != nil {
		return r.WithError(domain.NewBuildError(field, "%v", err))
	}
	expr, err := r.filters.AndNot(c)
	if err != nil {
		return r.WithError(domain.NewBuildError(field, "%v", err))
	}
	r.filters = expr
	return r
}

// WithRange adds a numeric range condition.
func (r Request) WithRange(field string, rng filter.Range) Request {
	c, err := filter.NewRange(field, rng)
	if err != nil {
		return r.WithError(domain.NewBuildError(field, "%v", err))
	}
	expr, err := r.filters.And(c)
	if err != nil {
		return r.WithError(domain.NewBuildError(field, "%v", err))
	}
	r.filters = expr
	return r
}

// WithQuery sets the free-text query.
func (r Request) WithQuery(q string) Request {
	if len(q) > MaxQueryLength {
		return r.WithError(domain.NewBuildError("", "query too long (max %d chars)", MaxQueryLength))
	}
	r.query = q
	return r
}

// WithOrdering replaces the ordering.
func (r Request) WithOrdering(keys ...order.Key) Request {
	r.ordering = slices.Clone(keys)
	return r
}

// WithFacets replaces the faceted fields and their scope.
func (r Request) WithFacets(fields []string, global bool) Request {
	r.facets = slices.Clone(fields)
	r.localFacets = !global
	return r
}

// WithSuggest replaces the fields to request suggestions for.
func (r Request) WithSuggest(fields ...string) Request {
	r.suggest = slices.Clone(fields)
	return r
}

// WithSlice narrows the slice window relative to the current one.
func (r Request) WithSlice(start, stop int, hasStop bool) Request {
	b, err := r.bounds.Narrow(start, stop, hasStop)
	if err != nil {
		return r.WithError(err)
	}
	r.bounds = b
	return r
}

// Unbounded returns a copy without a slice window.
func (r Request) Unbounded() Request {
	r.bounds = Bounds{}
	return r
}
