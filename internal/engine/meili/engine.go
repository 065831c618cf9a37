// Package meili is a search backend over a Meilisearch server.
//
// Filterable, sortable and searchable attributes must be configured on the
// index beforehand. Meilisearch has no term suggester, so bodies asking for
// suggestions are rejected with a build error.
package meili

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docset/internal/domain"
	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/response"
)

// Defaults.
const (
	DefaultPageSize   = 10
	DefaultPrimaryKey = "id"
)

// Config holds connection parameters for a Meilisearch server.
type Config struct {
	Host       string
	APIKey     string
	PrimaryKey string
	PageSize   int
}

// Engine executes request bodies against Meilisearch indexes.
// It implements queryset.Searcher and queryset.Counter.
type Engine struct {
	client     meilisearch.ServiceManager
	primaryKey string
	pageSize   int
}

// New creates an engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	return NewWithClient(client, cfg.PrimaryKey, cfg.PageSize), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client meilisearch.ServiceManager, primaryKey string, pageSize int) *Engine {
	return &Engine{
		client:     client,
		primaryKey: cmp.Or(primaryKey, DefaultPrimaryKey),
		pageSize:   cmp.Or(max(pageSize, 0), DefaultPageSize),
	}
}

// Ping checks that the server is healthy.
func (e *Engine) Ping(ctx context.Context) error {
	if _, err := e.client.HealthWithContext(ctx); err != nil {
		return fmt.Errorf("meilisearch health: %w", err)
	}
	return nil
}

// Close releases the client.
func (e *Engine) Close() {
	e.client.Close()
}

// searchResult is the subset of a search reply the engine reads.
type searchResult struct {
	Hits               []map[string]json.RawMessage `json:"hits"`
	EstimatedTotalHits int64                        `json:"estimatedTotalHits"`
	TotalHits          int64                        `json:"totalHits"`
	FacetDistribution  map[string]map[string]int    `json:"facetDistribution"`
}

// Execute runs b. Offset/limit pagination only yields an estimated total,
// so the response total is marked unknown and counts go through Count.
func (e *Engine) Execute(ctx context.Context, b *body.Body) (*response.Response, error) {
	if b.Suggest != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNotSupported,
			domain.NewBuildError(strings.Join(b.Suggest.Fields, ","), "meilisearch has no term suggester"))
	}

	limit := b.Limit(e.pageSize)
	req := e.baseRequest(b.Query)
	req.Offset = int64(b.From)
	req.Limit = int64(limit)
	req.ShowRankingScore = true
	for _, s := range b.Sort {
		dir := "asc"
		if s.Desc {
			dir = "desc"
		}
		req.Sort = append(req.Sort, s.Field+":"+dir)
	}
	for _, a := range b.AggsIn(body.ScopeQuery) {
		req.Facets = append(req.Facets, a.Field)
	}

	var main, global searchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.search(gctx, b.Index, queryText(b.Query), req, &main)
	})
	if aggs := b.AggsIn(body.ScopeGlobal); len(aggs) > 0 {
		greq := &meilisearch.SearchRequest{Limit: 1}
		for _, a := range aggs {
			greq.Facets = append(greq.Facets, a.Field)
		}
		g.Go(func() error {
			return e.search(gctx, b.Index, "", greq, &global)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// the client treats a zero limit as unset
	if len(main.Hits) > limit {
		main.Hits = main.Hits[:limit]
	}

	resp := &response.Response{
		Total: int(main.EstimatedTotalHits),
		Hits:  make([]response.Hit, 0, len(main.Hits)),
	}
	for i, h := range main.Hits {
		id, err := e.hitID(h)
		if err != nil {
			return nil, fmt.Errorf("hit %d: %w", i, err)
		}
		var score float64
		if raw, ok := h["_rankingScore"]; ok {
			if err := json.Unmarshal(raw, &score); err != nil {
				return nil, fmt.Errorf("hit %d: ranking score: %w", i, err)
			}
		}
		resp.Hits = append(resp.Hits, response.Hit{ID: id, Score: score})
	}

	if len(b.Aggs) > 0 {
		resp.Facets = make(map[string]response.RawFacet, len(b.Aggs))
		for _, a := range b.Aggs {
			dist := main.FacetDistribution[a.Field]
			if a.Scope == body.ScopeGlobal {
				dist = global.FacetDistribution[a.Field]
			}
			resp.Facets[a.Field] = toRawFacet(dist, a.Size)
		}
	}
	return resp, nil
}

// Count returns the exhaustive number of documents matching b's query.
func (e *Engine) Count(ctx context.Context, b *body.Body) (int, error) {
	if b.Suggest != nil {
		return 0, fmt.Errorf("%w: suggestions", domain.ErrNotSupported)
	}
	req := e.baseRequest(b.Query)
	// page mode makes the server count exhaustively
	req.Page = 1
	req.HitsPerPage = 1

	var res searchResult
	if err := e.search(ctx, b.Index, queryText(b.Query), req, &res); err != nil {
		return 0, err
	}
	return int(res.TotalHits), nil
}

func (e *Engine) search(
	ctx context.Context, index, query string, req *meilisearch.SearchRequest, out *searchResult,
) error {
	raw, err := e.client.Index(index).SearchRawWithContext(ctx, query, req)
	if err != nil {
		return fmt.Errorf("search %s: %w", index, err)
	}
	if raw == nil {
		return fmt.Errorf("search %s: empty reply", index)
	}
	if err := json.Unmarshal(*raw, out); err != nil {
		return fmt.Errorf("decode search %s: %w", index, err)
	}
	return nil
}

func (e *Engine) baseRequest(q body.Query) *meilisearch.SearchRequest {
	req := &meilisearch.SearchRequest{}
	if f := compileFilter(q); f != "" {
		req.Filter = f
	}
	if q.Text != nil {
		req.Query = q.Text.Value
		if q.Text.Field != "" {
			req.AttributesToSearchOn = []string{q.Text.Field}
		}
	}
	return req
}

func (e *Engine) hitID(h map[string]json.RawMessage) (string, error) {
	raw, ok := h[e.primaryKey]
	if !ok {
		return "", fmt.Errorf("missing primary key %q", e.primaryKey)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("primary key %q: %w", e.primaryKey, err)
	}
	return n.String(), nil
}

func queryText(q body.Query) string {
	if q.Text == nil {
		return ""
	}
	return q.Text.Value
}

// compileFilter renders the boolean part of q as a Meilisearch filter
// expression. String comparisons are case-insensitive on the server.
func compileFilter(q body.Query) string {
	var parts []string
	for _, t := range q.Must {
		parts = append(parts, fmt.Sprintf("%s = %s", t.Field, quote(t.Value)))
	}
	for _, r := range q.Ranges {
		if v := r.Bounds.GT(); v != nil {
			parts = append(parts, fmt.Sprintf("%s > %s", r.Field, number(*v)))
		}
		if v := r.Bounds.GTE(); v != nil {
			parts = append(parts, fmt.Sprintf("%s >= %s", r.Field, number(*v)))
		}
		if v := r.Bounds.LT(); v != nil {
			parts = append(parts, fmt.Sprintf("%s < %s", r.Field, number(*v)))
		}
		if v := r.Bounds.LTE(); v != nil {
			parts = append(parts, fmt.Sprintf("%s <= %s", r.Field, number(*v)))
		}
	}
	for _, t := range q.MustNot {
		parts = append(parts, fmt.Sprintf("NOT %s = %s", t.Field, quote(t.Value)))
	}
	return strings.Join(parts, " AND ")
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteEscaper.Replace(s) + `"`
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// toRawFacet orders a facet distribution and keeps the size largest terms.
func toRawFacet(dist map[string]int, size int) response.RawFacet {
	if size <= 0 {
		size = body.DefaultFacetSize
	}
	buckets := make([]response.Bucket, 0, len(dist))
	for term, n := range dist {
		buckets = append(buckets, response.Bucket{Term: term, Count: n})
	}
	slices.SortFunc(buckets, func(a, b response.Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Term, b.Term)
	})

	var raw response.RawFacet
	if len(buckets) > size {
		for _, b := range buckets[size:] {
			raw.Other += b.Count
		}
		buckets = buckets[:size]
	}
	raw.Buckets = buckets
	return raw
}
