package bleveidx

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
	"github.com/kailas-cloud/docset/internal/domain/search/suggest"
)

// Execute runs b. Query-scoped facets ride on the hit request; global
// facets need a second, unfiltered request, which runs concurrently.
func (e *Engine) Execute(ctx context.Context, b *body.Body) (*response.Response, error) {
	idx, err := e.index(b.Index)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(compileQuery(b.Query), b.Limit(e.pageSize), b.From, false)
	req.SortBy(sortOrder(b.Sort))
	for _, a := range b.AggsIn(body.ScopeQuery) {
		req.AddFacet(a.Field, bleve.NewFacetRequest(a.Field, facetSize(a)))
	}

	var (
		res    *bleve.SearchResult
		global *bleve.SearchResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res, err = idx.SearchInContext(gctx, req)
		if err != nil {
			return fmt.Errorf("search %s: %w", b.Index, err)
		}
		return nil
	})
	if aggs := b.AggsIn(body.ScopeGlobal); len(aggs) > 0 {
		greq := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 0, 0, false)
		for _, a := range aggs {
			greq.AddFacet(a.Field, bleve.NewFacetRequest(a.Field, facetSize(a)))
		}
		g.Go(func() error {
			var err error
			global, err = idx.SearchInContext(gctx, greq)
			if err != nil {
				return fmt.Errorf("global facets %s: %w", b.Index, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &response.Response{
		Total:      int(res.Total),
		TotalKnown: true,
		Hits:       make([]response.Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		resp.Hits = append(resp.Hits, response.Hit{ID: h.ID, Score: h.Score})
	}

	if len(b.Aggs) > 0 {
		resp.Facets = make(map[string]response.RawFacet, len(b.Aggs))
		collectFacets(resp.Facets, res.Facets)
		if global != nil {
			collectFacets(resp.Facets, global.Facets)
		}
	}

	if b.Suggest != nil {
		resp.Suggestions, err = e.suggest(idx, b.Suggest)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Count returns the number of documents matching b's query.
func (e *Engine) Count(ctx context.Context, b *body.Body) (int, error) {
	idx, err := e.index(b.Index)
	if err != nil {
		return 0, err
	}
	req := bleve.NewSearchRequestOptions(compileQuery(b.Query), 0, 0, false)
	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", b.Index, err)
	}
	return int(res.Total), nil
}

func compileQuery(q body.Query) query.Query {
	if q.MatchAll() {
		return bleve.NewMatchAllQuery()
	}

	bq := bleve.NewBooleanQuery()
	for _, t := range q.Must {
		tq := bleve.NewTermQuery(t.Value)
		tq.SetField(t.Field)
		bq.AddMust(tq)
	}
	for _, r := range q.Ranges {
		bq.AddMust(rangeQuery(r))
	}
	if q.Text != nil {
		mq := bleve.NewMatchQuery(q.Text.Value)
		if q.Text.Field != "" {
			mq.SetField(q.Text.Field)
		}
		bq.AddMust(mq)
	}
	if !q.HasPositive() {
		bq.AddMust(bleve.NewMatchAllQuery())
	}
	for _, t := range q.MustNot {
		tq := bleve.NewTermQuery(t.Value)
		tq.SetField(t.Field)
		bq.AddMustNot(tq)
	}
	return bq
}

func rangeQuery(r body.Range) query.Query {
	var (
		lo, hi       *float64
		loInc, hiInc bool
	)
	switch {
	case r.Bounds.GT() != nil:
		lo = r.Bounds.GT()
	case r.Bounds.GTE() != nil:
		lo, loInc = r.Bounds.GTE(), true
	}
	switch {
	case r.Bounds.LT() != nil:
		hi = r.Bounds.LT()
	case r.Bounds.LTE() != nil:
		hi, hiInc = r.Bounds.LTE(), true
	}
	nq := bleve.NewNumericRangeInclusiveQuery(lo, hi, &loInc, &hiInc)
	nq.SetField(r.Field)
	return nq
}

// sortOrder maps body sort fields to bleve sort strings. Ties fall back
// to the document id so pages are stable.
func sortOrder(fields []body.SortField) []string {
	if len(fields) == 0 {
		return []string{"-_score", "_id"}
	}
	out := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if f.Desc {
			out = append(out, "-"+f.Field)
		} else {
			out = append(out, f.Field)
		}
	}
	return append(out, "_id")
}

func facetSize(a body.Agg) int {
	if a.Size <= 0 {
		return body.DefaultFacetSize
	}
	return a.Size
}

func collectFacets(dst map[string]response.RawFacet, src search.FacetResults) {
	for name, fr := range src {
		raw := response.RawFacet{Missing: fr.Missing, Other: fr.Other}
		if fr.Terms != nil {
			for _, t := range fr.Terms.Terms() {
				raw.Buckets = append(raw.Buckets, response.Bucket{Term: t.Term, Count: t.Count})
			}
		}
		dst[name] = raw
	}
}

// suggest proposes dictionary terms of each field within
// suggest.MaxDistance edits of every token of the text.
func (e *Engine) suggest(idx bleve.Index, s *body.Suggest) (map[string][]suggest.Entry, error) {
	tokens := suggest.Tokenize(s.Text)
	out := make(map[string][]suggest.Entry, len(s.Fields))
	for _, field := range s.Fields {
		terms, err := fieldTerms(idx, field)
		if err != nil {
			return nil, err
		}
		entries := make([]suggest.Entry, 0, len(tokens))
		for _, tok := range tokens {
			var opts []suggest.Option
			for term, freq := range terms {
				if d := suggest.Distance(tok.Text, term); d == 0 || d > suggest.MaxDistance {
					continue
				}
				opts = append(opts, suggest.Option{Text: term, Score: suggest.Score(tok.Text, term), Freq: freq})
			}
			if opts == nil {
				opts = []suggest.Option{}
			}
			entries = append(entries, suggest.Entry{
				Text: tok.Text, Offset: tok.Offset, Length: tok.Length, Options: suggest.Rank(opts),
			})
		}
		out[field] = entries
	}
	return out, nil
}

func fieldTerms(idx bleve.Index, field string) (map[string]int, error) {
	dict, err := idx.FieldDict(field)
	if err != nil {
		return nil, fmt.Errorf("field dict %s: %w", field, err)
	}
	defer func() { _ = dict.Close() }()

	terms := make(map[string]int)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("field dict %s: %w", field, err)
		}
		if entry == nil {
			return terms, nil
		}
		terms[entry.Term] = int(entry.Count)
	}
}
