package search

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/record"
	"github.com/kailas-cloud/docset/internal/domain/search/facet"
	"github.com/kailas-cloud/docset/internal/domain/search/filter"
	"github.com/kailas-cloud/docset/internal/domain/search/suggest"
	"github.com/kailas-cloud/docset/internal/queryset"
)

// DefaultMaxLimit caps the page size a caller may ask for.
const DefaultMaxLimit = 100

// Match is a field/value pair used by filters and excludes.
type Match struct {
	Field string
	Value string
}

// Range is a numeric range filter on one field.
type Range struct {
	Field  string
	Bounds filter.Range
}

// Params describes one search over a kind.
type Params struct {
	Query    string
	Filters  []Match
	Excludes []Match
	Ranges   []Range
	Order    []string
	Facets   []string
	// LocalFacets computes facets over the matches only. Facets span the
	// whole index by default.
	LocalFacets bool
	Suggest     []string
	Offset      int
	Limit       int
}

// Hit is a resolved document with its relevance score.
type Hit struct {
	ID     string            `json:"id"`
	Score  float64           `json:"score"`
	Fields map[string]string `json:"fields"`
}

// RecordID returns the document identifier.
func (h Hit) RecordID() string { return h.ID }

// Result is one page of a search plus the requested extras.
type Result struct {
	Kind        string                     `json:"kind"`
	Count       int                        `json:"count"`
	Hits        []Hit                      `json:"hits"`
	Facets      map[string]facet.Facet     `json:"facets,omitempty"`
	Suggestions map[string][]suggest.Entry `json:"suggestions,omitempty"`
}

// Service runs searches over the configured kinds.
type Service struct {
	kinds    map[string]record.Kind
	searcher Searcher
	records  Records
	opts     []queryset.Option
	maxLimit int
}

// New creates a search service over kinds.
func New(kinds []record.Kind, searcher Searcher, records Records, opts ...queryset.Option) *Service {
	m := make(map[string]record.Kind, len(kinds))
	for _, k := range kinds {
		m[k.Name] = k
	}
	return &Service{
		kinds:    m,
		searcher: searcher,
		records:  records,
		opts:     opts,
		maxLimit: DefaultMaxLimit,
	}
}

// WithMaxLimit overrides the page size cap. n <= 0 keeps the current cap.
func (s *Service) WithMaxLimit(n int) *Service {
	if n > 0 {
		s.maxLimit = n
	}
	return s
}

// Kinds returns the configured kind names in sorted order.
func (s *Service) Kinds() []string {
	names := make([]string, 0, len(s.kinds))
	for name := range s.kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Kind looks up a configured kind.
func (s *Service) Kind(name string) (record.Kind, error) {
	k, ok := s.kinds[name]
	if !ok {
		return record.Kind{}, fmt.Errorf("%w: %q", domain.ErrUnknownKind, name)
	}
	return k, nil
}

// QuerySet returns an unfiltered set over every document of kind.
func (s *Service) QuerySet(kind string) (*queryset.QuerySet[record.Document], error) {
	k, err := s.Kind(kind)
	if err != nil {
		return nil, err
	}
	return queryset.New(k, s.searcher, s.records, s.opts...), nil
}

// Search runs p against kind and returns the resolved page.
// Hits whose record is gone are left out of the page.
func (s *Service) Search(ctx context.Context, kind string, p Params) (*Result, error) {
	qs, err := s.build(kind, p)
	if err != nil {
		return nil, err
	}

	docs, err := qs.List(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := qs.Hits(ctx)
	if err != nil {
		return nil, err
	}
	scores := make(map[string]float64, len(raw))
	for _, h := range raw {
		scores[h.ID] = h.Score
	}

	res := &Result{Kind: kind, Hits: make([]Hit, 0, len(docs))}
	for _, d := range docs {
		res.Hits = append(res.Hits, Hit{ID: d.RecordID(), Score: scores[d.RecordID()], Fields: d.Fields()})
	}

	if res.Count, err = qs.Count(ctx); err != nil {
		return nil, err
	}
	if len(p.Facets) > 0 {
		if res.Facets, err = qs.Facets(ctx); err != nil {
			return nil, err
		}
	}
	if len(p.Suggest) > 0 {
		if res.Suggestions, err = qs.Suggestions(ctx); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Count returns how many documents of kind match p inside its window.
func (s *Service) Count(ctx context.Context, kind string, p Params) (int, error) {
	qs, err := s.build(kind, p)
	if err != nil {
		return 0, err
	}
	return qs.Count(ctx)
}

func (s *Service) build(kind string, p Params) (*queryset.QuerySet[record.Document], error) {
	if p.Offset < 0 {
		return nil, domain.NewBuildError("offset", "must be >= 0, got %d", p.Offset)
	}
	if p.Limit < 0 || p.Limit > s.maxLimit {
		return nil, domain.NewBuildError("limit", "must be between 0 and %d, got %d", s.maxLimit, p.Limit)
	}

	qs, err := s.QuerySet(kind)
	if err != nil {
		return nil, err
	}
	for _, m := range p.Filters {
		qs = qs.Filter(m.Field, m.Value)
	}
	for _, m := range p.Excludes {
		qs = qs.Exclude(m.Field, m.Value)
	}
	for _, r := range p.Ranges {
		qs = qs.FilterRange(r.Field, r.Bounds)
	}
	if p.Query != "" {
		qs = qs.Query(p.Query)
	}
	if len(p.Order) > 0 {
		qs = qs.OrderBy(p.Order...)
	}
	if len(p.Facets) > 0 {
		qs = qs.Facet(p.Facets, !p.LocalFacets)
	}
	if len(p.Suggest) > 0 {
		qs = qs.Suggest(p.Suggest...)
	}

	switch {
	case p.Limit > 0:
		qs = qs.Slice(p.Offset, p.Offset+p.Limit)
	case p.Offset > 0:
		qs = qs.From(p.Offset)
	}

	if err := qs.Err(); err != nil {
		return nil, err
	}
	return qs, nil
}
