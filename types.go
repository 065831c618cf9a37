package docset

import (
	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/facet"
	"github.com/kailas-cloud/docset/internal/domain/search/filter"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
	"github.com/kailas-cloud/docset/internal/domain/search/suggest"
	"github.com/kailas-cloud/docset/internal/queryset"
)

type (
	// Document is a resolved record: an id plus its stored fields.
	Document = record.Document
	// Kind names a record type, its index and its declared fields.
	Kind = record.Kind
	// FieldKind is how a field is indexed.
	FieldKind = record.FieldKind
	// QuerySet is a lazy, cacheable query over the documents of one kind.
	QuerySet = queryset.QuerySet[Document]
	// Range is a numeric range for QuerySet.FilterRange.
	Range = filter.Range
	// Facet is a shaped term distribution.
	Facet = facet.Facet
	// SuggestEntry holds the suggestions for one token of the query.
	SuggestEntry = suggest.Entry

	// Searcher executes request bodies. Implement it to plug in a custom backend.
	Searcher = queryset.Searcher
	// Counter is an optional Searcher extension for unpaged counts.
	Counter = queryset.Counter
	// Resolver loads the document behind a hit.
	Resolver = queryset.Resolver[Document]
	// Observer receives execution and cache events.
	Observer = queryset.Observer
	// Body is the backend-neutral request a Searcher executes.
	Body = body.Body
	// Response is what a Searcher returns.
	Response = response.Response
	// Hit is one matching document in a Response.
	Hit = response.Hit
)

// Field kinds.
const (
	Keyword = record.Keyword
	Text    = record.Text
	Numeric = record.Numeric
)

// Errors returned by queries. Match them with errors.Is.
var (
	ErrBuild           = domain.ErrBuild
	ErrExecution       = domain.ErrExecution
	ErrIndexRange      = domain.ErrIndexRange
	ErrResolutionDrift = domain.ErrResolutionDrift
	ErrUnknownKind     = domain.ErrUnknownKind
	ErrNotSupported    = domain.ErrNotSupported
)

// NewRange builds a numeric range. Nil bounds are open.
func NewRange(gt, gte, lt, lte *float64) (Range, error) {
	return filter.NewRangeFilter(gt, gte, lt, lte)
}

// NewDocument creates a document from its id and fields.
func NewDocument(id string, fields map[string]string) Document {
	return record.NewDocument(id, fields)
}
