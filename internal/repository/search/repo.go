package search

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
	"github.com/kailas-cloud/docset/internal/domain/search/suggest"
)

// DefaultPageSize is the page size used when a body sets none.
const DefaultPageSize = 10

// store is the consumer interface for search operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	Count(ctx context.Context, index string, q body.Query) (int, error)
}

// Repo executes request bodies against a Redis search index.
// It implements queryset.Searcher and queryset.Counter.
type Repo struct {
	store    store
	pageSize int
}

// New creates a search repository. pageSize <= 0 selects DefaultPageSize.
func New(s store, pageSize int) *Repo {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Repo{store: s, pageSize: pageSize}
}

// Execute runs b and converts the store result into a response.
func (r *Repo) Execute(ctx context.Context, b *body.Body) (*response.Response, error) {
	q, err := r.searchQuery(b)
	if err != nil {
		return nil, err
	}

	sr, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", b.Index, err)
	}

	resp := &response.Response{
		Total:      sr.Total,
		TotalKnown: true,
		Hits:       make([]response.Hit, 0, len(sr.Entries)),
	}
	for _, e := range sr.Entries {
		resp.Hits = append(resp.Hits, response.Hit{
			ID:    strings.TrimPrefix(e.Key, b.Prefix),
			Score: e.Score,
		})
	}

	if len(b.Aggs) > 0 {
		resp.Facets = make(map[string]response.RawFacet, len(b.Aggs))
		for _, a := range b.Aggs {
			resp.Facets[a.Field] = toRawFacet(sr.Facets[a.Field], a.Size)
		}
	}

	if b.Suggest != nil {
		entries := toEntries(b.Suggest.Text, sr.SpellCheck, sr.IndexSize)
		resp.Suggestions = make(map[string][]suggest.Entry, len(b.Suggest.Fields))
		for _, f := range b.Suggest.Fields {
			resp.Suggestions[f] = slices.Clone(entries)
		}
	}

	return resp, nil
}

// Count returns the number of documents matching b's query.
func (r *Repo) Count(ctx context.Context, b *body.Body) (int, error) {
	n, err := r.store.Count(ctx, b.Index, b.Query)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", b.Index, err)
	}
	return n, nil
}

func (r *Repo) searchQuery(b *body.Body) (*db.SearchQuery, error) {
	if len(b.Sort) > 1 {
		return nil, domain.NewBuildError(b.Sort[1].Field, "redis search orders by a single field")
	}

	q := &db.SearchQuery{
		IndexName: b.Index,
		Query:     b.Query,
		Offset:    b.From,
		Limit:     b.Limit(r.pageSize),
	}
	if len(b.Sort) == 1 {
		q.SortBy = &db.SortBy{Field: b.Sort[0].Field, Desc: b.Sort[0].Desc}
	}
	for _, a := range b.Aggs {
		q.Facets = append(q.Facets, db.FacetQuery{Field: a.Field, Global: a.Scope == body.ScopeGlobal})
	}
	if b.Suggest != nil {
		q.SpellCheck = &db.SpellCheckQuery{Text: strings.ToLower(b.Suggest.Text), Distance: suggest.MaxDistance}
	}
	return q, nil
}

// toRawFacet merges groups that differ only by case and keeps the size
// largest. The rest is reported as Other.
func toRawFacet(fr db.FacetResult, size int) response.RawFacet {
	if size <= 0 {
		size = body.DefaultFacetSize
	}

	merged := make(map[string]int, len(fr.Buckets))
	for _, b := range fr.Buckets {
		merged[strings.ToLower(b.Value)] += b.Count
	}
	buckets := make([]response.Bucket, 0, len(merged))
	for term, n := range merged {
		buckets = append(buckets, response.Bucket{Term: term, Count: n})
	}
	slices.SortFunc(buckets, func(a, b response.Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Term, b.Term)
	})

	raw := response.RawFacet{Missing: fr.Missing}
	if len(buckets) > size {
		for _, b := range buckets[size:] {
			raw.Other += b.Count
		}
		buckets = buckets[:size]
	}
	raw.Buckets = buckets
	return raw
}

// toEntries lays spell check corrections over the tokens of text. Tokens
// the index already knows get no options. Redis scores a correction by the
// share of documents containing it, so the frequency is recovered from the
// index size and the score recomputed from the edit distance.
func toEntries(text string, terms []db.SpellTerm, indexSize int) []suggest.Entry {
	byTerm := make(map[string][]db.SpellSuggestion, len(terms))
	for _, t := range terms {
		byTerm[strings.ToLower(t.Term)] = t.Suggestions
	}

	tokens := suggest.Tokenize(text)
	out := make([]suggest.Entry, 0, len(tokens))
	for _, tok := range tokens {
		e := suggest.Entry{Text: tok.Text, Offset: tok.Offset, Length: tok.Length, Options: []suggest.Option{}}
		for _, s := range byTerm[tok.Text] {
			value := strings.ToLower(s.Value)
			if d := suggest.Distance(tok.Text, value); d == 0 || d > suggest.MaxDistance {
				continue
			}
			e.Options = append(e.Options, suggest.Option{
				Text:  value,
				Score: suggest.Score(tok.Text, value),
				Freq:  int(math.Round(s.Score * float64(indexSize))),
			})
		}
		e.Options = suggest.Rank(e.Options)
		out = append(out, e)
	}
	return out
}
